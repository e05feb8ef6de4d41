package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"linkwatch/app/internal/actions"
	"linkwatch/app/internal/config"
	"linkwatch/app/internal/monitor"
)

// HandleStartMonitor starts the monitor loop. Starting an already running
// loop succeeds; a configuration problem is reported once, not retried.
func HandleStartMonitor(loop *monitor.Loop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := loop.Start(); err != nil {
			var cerr *config.ConfigError
			if errors.As(err, &cerr) {
				http.Error(w, cerr.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"running": true})
	}
}

// HandleStopMonitor stops the monitor loop and returns once the loop has
// fully terminated.
func HandleStopMonitor(loop *monitor.Loop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		loop.Stop()
		writeJSON(w, http.StatusOK, map[string]any{"running": false})
	}
}

// HandleProbeNow runs a probe immediately, bypassing the detector, and
// returns the verdict together with the unparsed endpoint response.
func HandleProbeNow(loop *monitor.Loop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health, raw := loop.TestProbe(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"health": health,
			"raw":    raw,
		})
	}
}

// HandleAction dispatches a quick action by id.
func HandleAction(tbl *actions.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
			http.Error(w, "missing action id", http.StatusBadRequest)
			return
		}

		result, err := tbl.Dispatch(r.Context(), body.ID)
		if err != nil {
			if errors.Is(err, actions.ErrUnknownAction) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     body.ID,
			"label":  tbl.Label(body.ID),
			"result": result,
		})
	}
}

// HandleListActions lists the registered quick actions.
func HandleListActions(tbl *actions.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type entry struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		}
		var out []entry
		for _, id := range tbl.IDs() {
			out = append(out, entry{ID: id, Label: tbl.Label(id)})
		}
		writeJSON(w, http.StatusOK, map[string]any{"actions": out})
	}
}
