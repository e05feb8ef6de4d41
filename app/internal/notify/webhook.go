package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"linkwatch/app/internal/models"
)

// WebhookSink posts a JSON payload to a generic webhook URL with optional
// HMAC-SHA256 signing so receivers can verify the sender.
type WebhookSink struct {
	URL    string
	Secret string
	HTTP   *http.Client
}

// NewWebhookSink creates a generic webhook sink.
func NewWebhookSink(url, secret string) *WebhookSink {
	return &WebhookSink{
		URL:    url,
		Secret: secret,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Send implements Sink.
func (s *WebhookSink) Send(ctx context.Context, msg string, sev models.Severity) error {
	payload := map[string]interface{}{
		"source":    "linkwatch",
		"severity":  string(sev),
		"message":   msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if s.Secret != "" {
		mac := hmac.New(sha256.New, []byte(s.Secret))
		mac.Write(body)
		req.Header.Set("X-Linkwatch-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook http %d", resp.StatusCode)
	}
	return nil
}
