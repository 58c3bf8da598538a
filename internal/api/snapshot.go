package api

import (
	"encoding/json"
	"net/http"

	"flowpilot/internal/snapshot"
)

// snapshotHandler exports and restores the full state of the calling
// session, covering both its session scope and the shared persistent
// scope.
func snapshotHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r.Context())
		switch r.Method {
		case http.MethodGet:
			snap, err := snapshot.Export(r.Context(), sess.Scopes)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, snap)
		case http.MethodPost, http.MethodPut:
			var snap snapshot.Snapshot
			if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
				writeError(w, http.StatusBadRequest, "invalid snapshot payload")
				return
			}
			if err := snapshot.Import(r.Context(), sess.Scopes, &snap); err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"imported": true,
				"agents":   len(snap.Agents),
			})
		default:
			methodNotAllowed(w)
		}
	})
}
