package notify

import (
	"context"
	"log"

	"linkwatch/app/internal/models"
)

// Sink delivers one operator-facing message to a single channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg string, sev models.Severity) error
}

// Recorder persists dispatched notifications.
type Recorder interface {
	RecordNotification(msg string, sev models.Severity)
}

// Dispatcher fans a notification out to every configured sink. A failing
// sink is logged and skipped; delivery is best effort and never blocks the
// monitor cycle beyond each sink's own request timeout.
type Dispatcher struct {
	enabled  bool
	sinks    []Sink
	recorder Recorder // optional
}

// NewDispatcher creates a dispatcher. With enabled=false Notify becomes a
// no-op, matching the notifications toggle in the config.
func NewDispatcher(enabled bool, sinks ...Sink) *Dispatcher {
	return &Dispatcher{enabled: enabled, sinks: sinks}
}

// SetRecorder attaches a notification recorder.
func (d *Dispatcher) SetRecorder(r Recorder) { d.recorder = r }

// Notify sends msg to all sinks.
func (d *Dispatcher) Notify(ctx context.Context, msg string, sev models.Severity) {
	if !d.enabled {
		return
	}
	if d.recorder != nil {
		d.recorder.RecordNotification(msg, sev)
	}
	for _, s := range d.sinks {
		if err := s.Send(ctx, msg, sev); err != nil {
			log.Printf("notify: %s delivery failed: %v", s.Name(), err)
			continue
		}
		log.Printf("notify: %s delivered severity=%s", s.Name(), sev)
	}
}
