package history

import (
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"linkwatch/app/internal/models"
)

// Store persists monitor events (probe samples, phase transitions and
// dispatched notifications) to sqlite for the history API.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  at TEXT NOT NULL,
  kind TEXT NOT NULL,
  phase TEXT,
  online INTEGER,
  bitrate_kbps REAL,
  rtt_ms REAL,
  dropped_pkts INTEGER,
  detail TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`)
	return err
}

// Event is one history row.
type Event struct {
	ID          string    `json:"id"`
	At          time.Time `json:"at"`
	Kind        string    `json:"kind"`
	Phase       string    `json:"phase,omitempty"`
	Online      *bool     `json:"online,omitempty"`
	BitrateKbps *float64  `json:"bitrate_kbps,omitempty"`
	RTTMs       *float64  `json:"rtt_ms,omitempty"`
	DroppedPkts *int      `json:"dropped_pkts,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// Event kinds.
const (
	KindSample       = "sample"
	KindTransition   = "transition"
	KindNotification = "notification"
)

// RecordSample stores one probe verdict. Write failures are logged, never
// propagated; history must not break the monitor cycle.
func (s *Store) RecordSample(h models.EncoderHealth, phase models.Phase) {
	online := 0
	if h.Online {
		online = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO events (id, at, kind, phase, online, bitrate_kbps, rtt_ms, dropped_pkts, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), h.CheckedAt.UTC().Format(time.RFC3339), KindSample,
		string(phase), online, h.BitrateKbps, h.RTTMs, h.DroppedPkts, h.Error)
	if err != nil {
		log.Printf("history: recording sample failed: %v", err)
	}
}

// RecordTransition stores one detector edge.
func (s *Store) RecordTransition(tr models.Transition, h models.EncoderHealth) {
	_, err := s.db.Exec(`
		INSERT INTO events (id, at, kind, detail)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC().Format(time.RFC3339), KindTransition, tr.String())
	if err != nil {
		log.Printf("history: recording transition failed: %v", err)
	}
}

// RecordNotification stores one dispatched notification.
func (s *Store) RecordNotification(msg string, sev models.Severity) {
	_, err := s.db.Exec(`
		INSERT INTO events (id, at, kind, phase, detail)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC().Format(time.RFC3339), KindNotification, string(sev), msg)
	if err != nil {
		log.Printf("history: recording notification failed: %v", err)
	}
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, at, kind, phase, online, bitrate_kbps, rtt_ms, dropped_pkts, detail
		FROM events ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			at      string
			phase   sql.NullString
			online  sql.NullInt64
			bitrate sql.NullFloat64
			rtt     sql.NullFloat64
			dropped sql.NullInt64
			detail  sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &e.Kind, &phase, &online, &bitrate, &rtt, &dropped, &detail); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			e.At = t
		}
		e.Phase = phase.String
		e.Detail = detail.String
		if online.Valid {
			b := online.Int64 == 1
			e.Online = &b
		}
		if bitrate.Valid {
			v := bitrate.Float64
			e.BitrateKbps = &v
		}
		if rtt.Valid {
			v := rtt.Float64
			e.RTTMs = &v
		}
		if dropped.Valid {
			v := int(dropped.Int64)
			e.DroppedPkts = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep events.
func (s *Store) Prune(keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM events WHERE rowid NOT IN (
			SELECT rowid FROM events ORDER BY at DESC, rowid DESC LIMIT ?
		)`, keep)
	return err
}
