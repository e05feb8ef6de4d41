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

// severityColors matches the embed accent colors used on the status panel.
var severityColors = map[models.Severity]int{
	models.SeverityInfo:    0x22c55e,
	models.SeverityWarning: 0xffa500,
	models.SeverityError:   0xef4444,
}

// DiscordSink sends rich embed messages via a Discord webhook.
type DiscordSink struct {
	WebhookURL string
	Username   string
	HTTP       *http.Client
}

// NewDiscordSink creates a Discord webhook sink.
func NewDiscordSink(webhookURL string) *DiscordSink {
	return &DiscordSink{
		WebhookURL: webhookURL,
		Username:   "Linkwatch",
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Sink.
func (s *DiscordSink) Name() string { return "discord" }

// Send implements Sink.
func (s *DiscordSink) Send(ctx context.Context, msg string, sev models.Severity) error {
	payload := map[string]interface{}{
		"username": s.Username,
		"embeds": []map[string]interface{}{
			{
				"title":       embedTitle(sev),
				"description": msg,
				"color":       severityColors[sev],
				"footer":      map[string]string{"text": "Linkwatch Connection Monitor"},
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
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
		return fmt.Errorf("discord webhook http %d", resp.StatusCode)
	}
	return nil
}

func embedTitle(sev models.Severity) string {
	switch sev {
	case models.SeverityWarning:
		return "Connection Alert"
	case models.SeverityError:
		return "Connection Error"
	default:
		return "Connection Update"
	}
}
