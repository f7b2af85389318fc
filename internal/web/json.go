package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/sweeney/carwash-monitor/internal/store"
)

// recentSessions is how many sessions the per-bay endpoint lists.
const recentSessions = 20

// BayDetail is the per-bay JSON document.
type BayDetail struct {
	BayReport
	Recent []SessionJSON `json:"recent_sessions"`
}

// SessionJSON is one recorded session.
type SessionJSON struct {
	ID           string  `json:"id"`
	TimerSeconds float64 `json:"timer_seconds"`
	PumpSeconds  float64 `json:"pump_seconds"`
	CreatedAt    string  `json:"created_at"`
}

func sessionsJSON(sessions []store.Session) []SessionJSON {
	out := make([]SessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionJSON{
			ID:           s.ID,
			TimerSeconds: s.TimerSeconds,
			PumpSeconds:  s.PumpSeconds,
			CreatedAt:    s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("web: encode response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
