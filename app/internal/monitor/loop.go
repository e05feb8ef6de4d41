package monitor

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"linkwatch/app/internal/config"
	"linkwatch/app/internal/detector"
	"linkwatch/app/internal/failover"
	"linkwatch/app/internal/models"
	"linkwatch/app/internal/probe"
)

// Recorder persists cycle outcomes. Implementations must tolerate being
// called from the loop goroutine only.
type Recorder interface {
	RecordSample(h models.EncoderHealth, phase models.Phase)
	RecordTransition(tr models.Transition, h models.EncoderHealth)
}

// Publisher pushes the fresh state snapshot to live status boards.
type Publisher interface {
	PublishState(ctx context.Context, st models.MonitorState)
}

// Loop drives one probe→detector→controller cycle per interval. It is the
// single writer of the published MonitorState; everyone else reads
// snapshots.
type Loop struct {
	cfg   *config.Config
	probe *probe.Checker
	det   *detector.Detector
	ctrl  *failover.Controller

	recorder  Recorder  // optional
	publisher Publisher // optional

	state atomic.Pointer[models.MonitorState]

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a stopped loop.
func New(cfg *config.Config, p *probe.Checker, det *detector.Detector, ctrl *failover.Controller) *Loop {
	l := &Loop{cfg: cfg, probe: p, det: det, ctrl: ctrl}
	l.state.Store(&models.MonitorState{Phase: models.PhaseHealthy})
	return l
}

// SetRecorder attaches a history recorder. Call before Start.
func (l *Loop) SetRecorder(r Recorder) { l.recorder = r }

// SetPublisher attaches a status board publisher. Call before Start.
func (l *Loop) SetPublisher(p Publisher) { l.publisher = p }

// Start begins the periodic cycle. It is idempotent: starting a running loop
// is a no-op. It returns a ConfigError when monitoring is disabled or no
// stats endpoint is configured; it never retries on its own.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}
	if !l.cfg.Enabled {
		return &config.ConfigError{Field: "enabled", Reason: "monitoring is disabled"}
	}
	if l.cfg.StatsEndpoint == "" {
		return &config.ConfigError{Field: "stats_endpoint", Reason: "no stats endpoint configured"}
	}

	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.running = true
	go l.run(l.stop, l.done)
	log.Printf("monitor: started, interval=%s threshold=%s", l.cfg.CheckInterval, l.cfg.TimeoutThreshold)
	return nil
}

// Stop cancels the loop and blocks until the in-flight cycle, if any, has
// completed. No scene switch happens after Stop returns.
func (l *Loop) Stop() {
	// The lock is held across the wait so a concurrent Start cannot spawn a
	// second loop while the old one is still draining.
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	close(l.stop)
	<-l.done
	l.running = false
	log.Printf("monitor: stopped")
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Status returns the latest state snapshot. Safe to call concurrently with
// a running loop.
func (l *Loop) Status() models.MonitorState {
	return *l.state.Load()
}

// TestProbe runs a probe directly, bypassing the detector. It never mutates
// monitor state; a diagnostic and the loop's own probe may race and both
// simply run to completion.
func (l *Loop) TestProbe(ctx context.Context) (models.EncoderHealth, string) {
	return l.probe.CheckRaw(ctx)
}

func (l *Loop) run(stop, done chan struct{}) {
	defer close(done)

	// First cycle immediately, then one per interval. Cancellation is only
	// observed at the timer boundary; an in-flight probe finishes bounded by
	// its own timeout.
	for {
		l.cycle(context.Background())
		select {
		case <-stop:
			return
		case <-time.After(l.cfg.CheckInterval):
		}
	}
}

// cycle runs one probe→detector→controller pass and publishes the new
// snapshot with a single atomic swap.
func (l *Loop) cycle(ctx context.Context) {
	health := l.probe.Check(ctx)
	tr := l.det.Advance(health, health.CheckedAt)

	if tr != models.TransitionNone {
		l.ctrl.HandleTransition(ctx, tr, health)
		if l.recorder != nil {
			l.recorder.RecordTransition(tr, health)
		}
	} else {
		l.ctrl.Reconcile(ctx, l.det.Phase())
	}

	st := &models.MonitorState{
		Phase:              l.det.Phase(),
		PendingSince:       l.det.PendingSince(),
		LastKnownGoodScene: l.ctrl.LastKnownGoodScene(),
		LastHealth:         health,
	}
	l.state.Store(st)

	if l.recorder != nil {
		l.recorder.RecordSample(health, st.Phase)
	}
	if l.publisher != nil {
		l.publisher.PublishState(ctx, *st)
	}
}
