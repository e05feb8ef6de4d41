package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"linkwatch/app/internal/config"
	"linkwatch/app/internal/history"
	"linkwatch/app/internal/models"
	"linkwatch/app/internal/monitor"
	"linkwatch/app/internal/scenes"
)

// statusPayload is the public status document.
type statusPayload struct {
	T              time.Time            `json:"t"`
	Running        bool                 `json:"running"`
	Phase          models.Phase         `json:"phase"`
	PendingSince   *time.Time           `json:"pending_since,omitempty"`
	LastHealth     models.EncoderHealth `json:"last_health"`
	CurrentScene   string               `json:"current_scene,omitempty"`
	FallbackActive *bool                `json:"fallback_active,omitempty"`
}

// HandleStatus returns the monitor phase, the last health snapshot and
// whether the fallback scene is currently active.
func HandleStatus(loop *monitor.Loop, sc *scenes.Client, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := loop.Status()
		out := statusPayload{
			T:            time.Now().UTC(),
			Running:      loop.Running(),
			Phase:        st.Phase,
			PendingSince: st.PendingSince,
			LastHealth:   st.LastHealth,
		}

		// Fallback-active comes from the switcher's cached scene; unknown is
		// reported as absent, not guessed.
		if current, ok := sc.CachedCurrentScene(); ok {
			out.CurrentScene = current
			active := current == cfg.FallbackScene
			out.FallbackActive = &active
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// HandleHistory returns recent monitor events, newest first.
func HandleHistory(hist *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		events, err := hist.RecentEvents(limit)
		if err != nil {
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []history.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
