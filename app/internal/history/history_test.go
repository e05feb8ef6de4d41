package history

import (
	"path/filepath"
	"testing"
	"time"

	"linkwatch/app/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordSample_AndQuery(t *testing.T) {
	s := testStore(t)

	h := models.EncoderHealth{
		Online:      true,
		Connected:   true,
		BitrateKbps: 1500,
		RTTMs:       50,
		DroppedPkts: 2,
		CheckedAt:   time.Now().UTC(),
	}
	s.RecordSample(h, models.PhaseHealthy)

	events, err := s.RecentEvents(10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Kind != KindSample || e.Phase != "healthy" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Online == nil || !*e.Online {
		t.Error("online flag lost")
	}
	if e.BitrateKbps == nil || *e.BitrateKbps != 1500 {
		t.Error("bitrate lost")
	}
	if e.ID == "" {
		t.Error("expected generated event id")
	}
}

func TestRecordTransition(t *testing.T) {
	s := testStore(t)

	s.RecordTransition(models.TransitionEnterFailed, models.EncoderHealth{Error: "timeout"})

	events, err := s.RecentEvents(10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 || events[0].Kind != KindTransition || events[0].Detail != "enter_failed" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestRecordNotification(t *testing.T) {
	s := testStore(t)

	s.RecordNotification("Connection lost!", models.SeverityWarning)

	events, err := s.RecentEvents(10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != KindNotification || events[0].Phase != "warning" || events[0].Detail != "Connection lost!" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestRecentEvents_NewestFirstAndLimit(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 5; i++ {
		h := models.EncoderHealth{
			Online:      false,
			Error:       "HTTP 503",
			BitrateKbps: float64(i),
			CheckedAt:   time.Date(2026, 8, 1, 12, 0, i, 0, time.UTC),
		}
		s.RecordSample(h, models.PhasePendingFailure)
	}

	events, err := s.RecentEvents(3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if *events[0].BitrateKbps != 4 {
		t.Errorf("expected newest first, got bitrate %v", *events[0].BitrateKbps)
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 10; i++ {
		h := models.EncoderHealth{CheckedAt: time.Date(2026, 8, 1, 12, 0, i, 0, time.UTC)}
		s.RecordSample(h, models.PhaseHealthy)
	}

	if err := s.Prune(4); err != nil {
		t.Fatalf("prune: %v", err)
	}
	events, err := s.RecentEvents(100)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 4 {
		t.Errorf("expected 4 events after prune, got %d", len(events))
	}
}
