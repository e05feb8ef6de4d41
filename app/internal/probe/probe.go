package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"linkwatch/app/internal/models"
)

// requestTimeout bounds a single stats request regardless of the caller's
// context.
const requestTimeout = 10 * time.Second

// Thresholds are the limits an online publisher must satisfy.
type Thresholds struct {
	BitrateKbps float64
	RTTMs       float64
	Dropped     int
}

// Checker probes the encoder stats endpoint and reduces the raw telemetry to
// a pass/fail verdict.
type Checker struct {
	Endpoint string
	Limits   Thresholds
	HTTP     *http.Client
}

// New creates a checker for the given stats endpoint.
func New(endpoint string, limits Thresholds) *Checker {
	return &Checker{
		Endpoint: endpoint,
		Limits:   limits,
		HTTP:     &http.Client{Timeout: requestTimeout},
	}
}

// statsPayload is the wire shape of the stats endpoint.
type statsPayload struct {
	Publishers map[string]publisherStats `json:"publishers"`
}

type publisherStats struct {
	Connected   bool    `json:"connected"`
	Bitrate     float64 `json:"bitrate"`
	RTT         float64 `json:"rtt"`
	DroppedPkts int     `json:"dropped_pkts"`
}

// Check queries the stats endpoint and returns a verdict. It is a total
// function: every failure mode resolves to Online=false with a populated
// Error, nothing is ever raised to the caller.
func (c *Checker) Check(ctx context.Context) models.EncoderHealth {
	h, _ := c.check(ctx)
	return h
}

// CheckRaw behaves like Check but also returns the unparsed endpoint
// response for troubleshooting.
func (c *Checker) CheckRaw(ctx context.Context) (models.EncoderHealth, string) {
	return c.check(ctx)
}

func (c *Checker) check(ctx context.Context) (models.EncoderHealth, string) {
	now := time.Now().UTC()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return offline(now, "invalid endpoint: "+err.Error()), ""
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ue, ok := err.(*url.Error); ok && ue.Timeout() {
			return offline(now, "timeout"), ""
		}
		return offline(now, err.Error()), ""
	}
	defer resp.Body.Close()

	// Cap the body read; the stats document is small.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return offline(now, "read error: "+err.Error()), ""
	}
	body := string(raw)

	if resp.StatusCode != http.StatusOK {
		return offline(now, fmt.Sprintf("HTTP %d", resp.StatusCode)), body
	}

	var stats statsPayload
	if err := json.Unmarshal(raw, &stats); err != nil {
		return offline(now, "parse error: "+err.Error()), body
	}

	live, ok := stats.Publishers["live"]
	if !ok {
		return offline(now, "parse error: no live publisher in response"), body
	}

	if !live.Connected {
		h := offline(now, "publisher not connected")
		h.BitrateKbps = live.Bitrate
		h.RTTMs = live.RTT
		h.DroppedPkts = live.DroppedPkts
		return h, body
	}

	bitrateOK := live.Bitrate >= c.Limits.BitrateKbps
	rttOK := live.RTT <= c.Limits.RTTMs
	droppedOK := live.DroppedPkts <= c.Limits.Dropped

	h := models.EncoderHealth{
		Online:      bitrateOK && rttOK && droppedOK,
		Connected:   true,
		BitrateKbps: live.Bitrate,
		RTTMs:       live.RTT,
		DroppedPkts: live.DroppedPkts,
		CheckedAt:   now,
	}
	if !h.Online {
		h.Error = thresholdError(bitrateOK, rttOK, droppedOK, live)
	}
	return h, body
}

// thresholdError names the first threshold the publisher violated.
func thresholdError(bitrateOK, rttOK, droppedOK bool, live publisherStats) string {
	switch {
	case !bitrateOK:
		return fmt.Sprintf("bitrate too low (%.0f kbps)", live.Bitrate)
	case !rttOK:
		return fmt.Sprintf("rtt too high (%.0f ms)", live.RTT)
	case !droppedOK:
		return fmt.Sprintf("too many dropped packets (%d)", live.DroppedPkts)
	default:
		return ""
	}
}

func offline(at time.Time, reason string) models.EncoderHealth {
	return models.EncoderHealth{Online: false, Error: reason, CheckedAt: at}
}
