package detector

import (
	"time"

	"linkwatch/app/internal/models"
)

// Detector converts a stream of probe verdicts into debounced link-down /
// link-up transitions. Failure entry requires the link to stay unhealthy for
// the timeout threshold; recovery is immediate on the first healthy verdict.
//
// Detector is not safe for concurrent use; the monitor loop is its only
// caller.
type Detector struct {
	interval  time.Duration
	threshold time.Duration

	phase        models.Phase
	pendingSince time.Time
}

// New creates a detector. interval is the probe cadence; threshold is how
// long the link must stay unhealthy before the detector reports failure.
func New(interval, threshold time.Duration) *Detector {
	return &Detector{
		interval:  interval,
		threshold: threshold,
		phase:     models.PhaseHealthy,
	}
}

// Phase returns the current phase.
func (d *Detector) Phase() models.Phase {
	return d.phase
}

// PendingSince returns the time the current unhealthy run started, or nil
// when the detector is not in the pending phase.
func (d *Detector) PendingSince() *time.Time {
	if d.phase != models.PhasePendingFailure {
		return nil
	}
	t := d.pendingSince
	return &t
}

// Advance feeds one verdict into the state machine and returns the resulting
// transition, if any. An unhealthy verdict is counted as covering the whole
// probe interval that produced it, so a 60s threshold at a 15s cadence trips
// on the fourth consecutive unhealthy probe.
func (d *Detector) Advance(h models.EncoderHealth, now time.Time) models.Transition {
	switch d.phase {
	case models.PhaseHealthy:
		if !h.Online {
			d.phase = models.PhasePendingFailure
			d.pendingSince = now
			if d.unhealthyFor(now) >= d.threshold {
				// Threshold no larger than one interval: fail immediately.
				d.phase = models.PhaseFailed
				d.pendingSince = time.Time{}
				return models.TransitionEnterFailed
			}
		}
		return models.TransitionNone

	case models.PhasePendingFailure:
		if h.Online {
			d.phase = models.PhaseHealthy
			d.pendingSince = time.Time{}
			return models.TransitionNone
		}
		if d.unhealthyFor(now) >= d.threshold {
			d.phase = models.PhaseFailed
			d.pendingSince = time.Time{}
			return models.TransitionEnterFailed
		}
		return models.TransitionNone

	case models.PhaseFailed:
		if h.Online {
			d.phase = models.PhaseHealthy
			return models.TransitionEnterHealthy
		}
		return models.TransitionNone
	}
	return models.TransitionNone
}

// unhealthyFor is the debounced unhealthy duration as of now.
func (d *Detector) unhealthyFor(now time.Time) time.Duration {
	return now.Sub(d.pendingSince) + d.interval
}
