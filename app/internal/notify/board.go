package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"linkwatch/app/internal/models"
)

// ErrTargetGone reports that a board's render target no longer exists (for
// example a deleted message). The registry evicts the board on this error
// and only this error.
var ErrTargetGone = errors.New("notify: display target gone")

// Updatable is a live render target that can replace its displayed content
// in place. Both interactive refreshes and the background monitor cycle go
// through the same operation.
type Updatable interface {
	Display(ctx context.Context, content string) error
}

// BoardRegistry tracks open status boards by id. Eviction is explicit: a
// board is removed when its target reports ErrTargetGone, other delivery
// errors keep it registered.
type BoardRegistry struct {
	mu     sync.Mutex
	boards map[string]Updatable
}

// NewBoardRegistry creates an empty registry.
func NewBoardRegistry() *BoardRegistry {
	return &BoardRegistry{boards: make(map[string]Updatable)}
}

// Register adds or replaces a board under id.
func (r *BoardRegistry) Register(id string, b Updatable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[id] = b
}

// Remove deletes a board.
func (r *BoardRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, id)
}

// Len returns the number of registered boards.
func (r *BoardRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Broadcast displays content on every board, evicting gone targets.
func (r *BoardRegistry) Broadcast(ctx context.Context, content string) {
	r.mu.Lock()
	targets := make(map[string]Updatable, len(r.boards))
	for id, b := range r.boards {
		targets[id] = b
	}
	r.mu.Unlock()

	for id, b := range targets {
		err := b.Display(ctx, content)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrTargetGone) {
			log.Printf("notify: board %s target gone, evicting", id)
			r.Remove(id)
			continue
		}
		log.Printf("notify: board %s refresh failed: %v", id, err)
	}
}

// PublishState renders a monitor snapshot and broadcasts it. It implements
// the monitor loop's Publisher.
func (r *BoardRegistry) PublishState(ctx context.Context, st models.MonitorState) {
	r.Broadcast(ctx, RenderState(st))
}

// RenderState formats a snapshot as the operator-facing status panel text.
func RenderState(st models.MonitorState) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Connection Monitor | phase: %s\n", st.Phase)
	h := st.LastHealth
	if h.Online {
		fmt.Fprintf(&buf, "Encoder: connected, %.0f kbps, %.0f ms RTT, %d pkts dropped\n",
			h.BitrateKbps, h.RTTMs, h.DroppedPkts)
	} else if h.Error != "" {
		fmt.Fprintf(&buf, "Encoder: offline (%s)\n", h.Error)
	} else {
		fmt.Fprintf(&buf, "Encoder: offline\n")
	}
	if st.PendingSince != nil {
		fmt.Fprintf(&buf, "Unhealthy since: %s\n", st.PendingSince.Format(time.RFC3339))
	}
	if st.LastKnownGoodScene != "" {
		fmt.Fprintf(&buf, "Scene to restore: %s\n", st.LastKnownGoodScene)
	}
	return buf.String()
}

// LogBoard writes board updates to the process log.
type LogBoard struct{}

// Display implements Updatable.
func (LogBoard) Display(_ context.Context, content string) error {
	log.Printf("status board:\n%s", content)
	return nil
}

// DiscordMessageBoard edits a previously posted webhook message in place,
// giving a single pinned status message that keeps refreshing.
type DiscordMessageBoard struct {
	WebhookURL string
	MessageID  string
	HTTP       *http.Client
}

// NewDiscordMessageBoard creates a board that edits webhook message id.
func NewDiscordMessageBoard(webhookURL, messageID string) *DiscordMessageBoard {
	return &DiscordMessageBoard{
		WebhookURL: webhookURL,
		MessageID:  messageID,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Display implements Updatable. A 404 or 410 from the webhook means the
// message was deleted, reported as ErrTargetGone.
func (b *DiscordMessageBoard) Display(ctx context.Context, content string) error {
	payload := map[string]string{"content": content}
	body, _ := json.Marshal(payload)

	url := b.WebhookURL + "/messages/" + b.MessageID
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrTargetGone
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("discord message edit http %d", resp.StatusCode)
	}
	return nil
}
