package api

import (
	"net/http"
	"strconv"
	"time"

	"flowpilot/internal/sim"
)

func leaderboardHandler(seed int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		limit := sim.DefaultFleetCount
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}

		fleets := sim.Leaderboard(seed, sim.DefaultFleetCount, time.Now())
		if limit < len(fleets) {
			fleets = fleets[:limit]
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"fleets": fleets,
			"total":  len(fleets),
		})
	})
}

func analyticsHandler(seed int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())

		tf := sim.Timeframe(r.URL.Query().Get("timeframe"))
		if tf == "" {
			tf = sim.Timeframe30d
		}
		if !tf.Valid() {
			writeError(w, http.StatusBadRequest, "timeframe must be 7d, 30d, or 90d")
			return
		}

		agents, err := sess.Ledger.Agents(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		count := len(agents)
		if count == 0 {
			count = 12
		}
		writeJSON(w, http.StatusOK, sim.Analytics(seed, tf, count, time.Now()))
	})
}
