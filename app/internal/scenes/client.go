package scenes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Client talks to the scene-switcher HTTP bridge (the sidecar that fronts
// the broadcast software). It implements failover.SceneSwitcher and the
// quick-action switcher.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu       sync.Mutex
	cachedAt time.Time
	cached   string
	cacheFor time.Duration
}

// NewClient creates a bridge client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: 6 * time.Second},
		cacheFor: 2 * time.Second,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("switcher http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("switcher http %d", resp.StatusCode)
	}
	return nil
}

// CurrentScene returns the active program scene. Responses are cached
// briefly because the monitor cycle and status queries both ask for it.
func (c *Client) CurrentScene(ctx context.Context) (string, error) {
	c.mu.Lock()
	if time.Since(c.cachedAt) < c.cacheFor && c.cached != "" {
		name := c.cached
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	var out struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "/api/scene", &out); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cached = out.Name
	c.cachedAt = time.Now()
	c.mu.Unlock()
	return out.Name, nil
}

// CachedCurrentScene returns the last known scene without a network call.
func (c *Client) CachedCurrentScene() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cached, c.cached != ""
}

// SwitchScene makes name the active program scene.
func (c *Client) SwitchScene(ctx context.Context, name string) error {
	if err := c.postJSON(ctx, "/api/scene", map[string]string{"name": name}); err != nil {
		return err
	}
	c.mu.Lock()
	c.cached = name
	c.cachedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Scenes lists the available scene names.
func (c *Client) Scenes(ctx context.Context) ([]string, error) {
	var out struct {
		Scenes []string `json:"scenes"`
	}
	if err := c.getJSON(ctx, "/api/scenes", &out); err != nil {
		return nil, err
	}
	return out.Scenes, nil
}

// StopStream stops the broadcast output.
func (c *Client) StopStream(ctx context.Context) error {
	return c.postJSON(ctx, "/api/stream/stop", nil)
}

// StartStream starts the broadcast output.
func (c *Client) StartStream(ctx context.Context) error {
	return c.postJSON(ctx, "/api/stream/start", nil)
}

// StreamActive reports whether the broadcast output is live.
func (c *Client) StreamActive(ctx context.Context) (bool, error) {
	var out struct {
		Active bool `json:"active"`
	}
	if err := c.getJSON(ctx, "/api/stream", &out); err != nil {
		return false, err
	}
	return out.Active, nil
}
