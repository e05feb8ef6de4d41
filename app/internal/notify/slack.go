package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"linkwatch/app/internal/models"
)

// SlackSink sends messages via a Slack incoming webhook.
type SlackSink struct {
	WebhookURL string
	HTTP       *http.Client
}

// NewSlackSink creates a Slack webhook sink.
func NewSlackSink(webhookURL string) *SlackSink {
	return &SlackSink{
		WebhookURL: webhookURL,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Sink.
func (s *SlackSink) Name() string { return "slack" }

// Send implements Sink.
func (s *SlackSink) Send(ctx context.Context, msg string, sev models.Severity) error {
	colorMap := map[models.Severity]string{
		models.SeverityInfo:    "#22c55e",
		models.SeverityWarning: "#eab308",
		models.SeverityError:   "#ef4444",
	}

	payload := map[string]interface{}{
		"username": "Linkwatch",
		"attachments": []map[string]interface{}{
			{
				"color":  colorMap[sev],
				"title":  embedTitle(sev),
				"text":   msg,
				"footer": "Linkwatch Connection Monitor",
				"ts":     time.Now().Unix(),
			},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook http %d", resp.StatusCode)
	}
	return nil
}
