package detector

import (
	"testing"
	"time"

	"linkwatch/app/internal/models"
)

var base = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func healthy() models.EncoderHealth {
	return models.EncoderHealth{Online: true, Connected: true, BitrateKbps: 1500, RTTMs: 50}
}

func unhealthy(reason string) models.EncoderHealth {
	return models.EncoderHealth{Online: false, Error: reason}
}

func TestAdvance_StaysHealthy(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	for i := 0; i < 5; i++ {
		tr := d.Advance(healthy(), base.Add(time.Duration(i)*15*time.Second))
		if tr != models.TransitionNone {
			t.Fatalf("cycle %d: unexpected transition %v", i, tr)
		}
	}
	if d.Phase() != models.PhaseHealthy {
		t.Errorf("expected healthy, got %s", d.Phase())
	}
}

func TestAdvance_EntersPendingOnFirstFailure(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	tr := d.Advance(unhealthy("timeout"), base)
	if tr != models.TransitionNone {
		t.Fatalf("first failure should not transition, got %v", tr)
	}
	if d.Phase() != models.PhasePendingFailure {
		t.Errorf("expected pending_failure, got %s", d.Phase())
	}
	ps := d.PendingSince()
	if ps == nil || !ps.Equal(base) {
		t.Errorf("pendingSince should be set to the first failure time, got %v", ps)
	}
}

func TestAdvance_PendingSinceOnlyWhilePending(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	if d.PendingSince() != nil {
		t.Error("pendingSince should be nil while healthy")
	}
	d.Advance(unhealthy("timeout"), base)
	if d.PendingSince() == nil {
		t.Error("pendingSince should be set while pending")
	}
	d.Advance(healthy(), base.Add(15*time.Second))
	if d.PendingSince() != nil {
		t.Error("pendingSince should be cleared on recovery")
	}
}

// Scenario A: 15s interval, 60s threshold. The 4th consecutive unhealthy
// probe covers the full 60s and trips the failover.
func TestAdvance_FailsAfterThreshold(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	times := []time.Duration{0, 15 * time.Second, 30 * time.Second, 45 * time.Second}
	for i, offset := range times[:3] {
		tr := d.Advance(unhealthy("bitrate too low (500 kbps)"), base.Add(offset))
		if tr != models.TransitionNone {
			t.Fatalf("cycle %d: premature transition %v", i, tr)
		}
		if d.Phase() != models.PhasePendingFailure {
			t.Fatalf("cycle %d: expected pending_failure, got %s", i, d.Phase())
		}
	}

	tr := d.Advance(unhealthy("bitrate too low (500 kbps)"), base.Add(times[3]))
	if tr != models.TransitionEnterFailed {
		t.Fatalf("expected enter_failed on 4th unhealthy probe, got %v", tr)
	}
	if d.Phase() != models.PhaseFailed {
		t.Errorf("expected failed, got %s", d.Phase())
	}
	if d.PendingSince() != nil {
		t.Error("pendingSince should be cleared after entering failed")
	}
}

// Debounce property: an unhealthy run one cycle short of the threshold that
// then recovers never reaches the failed phase.
func TestAdvance_RecoveryBeforeThreshold(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	for i, offset := range []time.Duration{0, 15 * time.Second, 30 * time.Second} {
		if tr := d.Advance(unhealthy("timeout"), base.Add(offset)); tr != models.TransitionNone {
			t.Fatalf("cycle %d: unexpected transition %v", i, tr)
		}
	}

	tr := d.Advance(healthy(), base.Add(45*time.Second))
	if tr != models.TransitionNone {
		t.Fatalf("recovery from pending should not emit a transition, got %v", tr)
	}
	if d.Phase() != models.PhaseHealthy {
		t.Errorf("expected healthy, got %s", d.Phase())
	}
}

// Scenario D: repeated HTTP 503 verdicts accumulate debounce time without
// resetting pendingSince.
func TestAdvance_PendingSinceNotReset(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	d.Advance(unhealthy("HTTP 503"), base)
	first := d.PendingSince()

	d.Advance(unhealthy("HTTP 503"), base.Add(15*time.Second))
	d.Advance(unhealthy("HTTP 503"), base.Add(30*time.Second))

	ps := d.PendingSince()
	if ps == nil || first == nil || !ps.Equal(*first) {
		t.Errorf("pendingSince moved from %v to %v", first, ps)
	}
}

// Recovery from failed is immediate regardless of the threshold.
func TestAdvance_ImmediateRecoveryFromFailed(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	for _, offset := range []time.Duration{0, 15 * time.Second, 30 * time.Second, 45 * time.Second} {
		d.Advance(unhealthy("timeout"), base.Add(offset))
	}
	if d.Phase() != models.PhaseFailed {
		t.Fatalf("setup: expected failed, got %s", d.Phase())
	}

	tr := d.Advance(healthy(), base.Add(60*time.Second))
	if tr != models.TransitionEnterHealthy {
		t.Fatalf("expected enter_healthy on first healthy probe, got %v", tr)
	}
	if d.Phase() != models.PhaseHealthy {
		t.Errorf("expected healthy, got %s", d.Phase())
	}
}

func TestAdvance_StaysFailedWhileUnhealthy(t *testing.T) {
	d := New(15*time.Second, 60*time.Second)

	for _, offset := range []time.Duration{0, 15 * time.Second, 30 * time.Second, 45 * time.Second} {
		d.Advance(unhealthy("timeout"), base.Add(offset))
	}

	// Further unhealthy cycles emit no transitions.
	for i := 4; i < 10; i++ {
		tr := d.Advance(unhealthy("timeout"), base.Add(time.Duration(i)*15*time.Second))
		if tr != models.TransitionNone {
			t.Fatalf("cycle %d: unexpected transition %v while failed", i, tr)
		}
		if d.Phase() != models.PhaseFailed {
			t.Fatalf("cycle %d: expected failed, got %s", i, d.Phase())
		}
	}
}

func TestAdvance_ImmediateFailWithTinyThreshold(t *testing.T) {
	// Threshold no larger than one interval: a single unhealthy probe fails.
	d := New(15*time.Second, 15*time.Second)

	tr := d.Advance(unhealthy("timeout"), base)
	if tr != models.TransitionEnterFailed {
		t.Fatalf("expected enter_failed, got %v", tr)
	}
}
