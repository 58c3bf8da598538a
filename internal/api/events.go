package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"flowpilot/internal/bus"
)

const (
	defaultPollTimeout = 25 * time.Second
	maxPollTimeout     = 60 * time.Second
)

// eventsHandler long-polls the session bus: it waits for the next event
// on the requested topics (all topics when none are given) and returns
// it, or an empty list when the timeout passes first. Consumers poll in
// a loop to follow cross-view signals.
func eventsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())

		var topics []string
		if raw := strings.TrimSpace(r.URL.Query().Get("topics")); raw != "" {
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					topics = append(topics, t)
				}
			}
		}

		timeout := defaultPollTimeout
		if raw := r.URL.Query().Get("timeout_ms"); raw != "" {
			ms, err := strconv.Atoi(raw)
			if err != nil || ms < 0 {
				writeError(w, http.StatusBadRequest, "invalid timeout_ms")
				return
			}
			timeout = time.Duration(ms) * time.Millisecond
			if timeout > maxPollTimeout {
				timeout = maxPollTimeout
			}
		}

		events, cancel := sess.Bus.Subscribe(topics...)
		defer cancel()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case ev := <-events:
			writeJSON(w, http.StatusOK, map[string]any{"events": []bus.Event{ev}})
		case <-timer.C:
			writeJSON(w, http.StatusOK, map[string]any{"events": []bus.Event{}})
		case <-r.Context().Done():
			writeJSON(w, http.StatusOK, map[string]any{"events": []bus.Event{}})
		}
	})
}
