package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"flowpilot/internal/ledger"
	"flowpilot/internal/ratelimit"
	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

// Deps carries everything the router needs. Persistent is the shared
// cross-session store; each session gets its own session-scoped store
// and wallet on top of it.
type Deps struct {
	Persistent store.Store
	NewWallet  func() wallet.Wallet
	Ledger     ledger.Options
	Version    string
	MarketSeed int64
	SimSeed    int64
}

func (d Deps) withDefaults() Deps {
	if d.NewWallet == nil {
		d.NewWallet = func() wallet.Wallet {
			return wallet.NewDemo(150 * time.Millisecond)
		}
	}
	if d.MarketSeed == 0 {
		d.MarketSeed = 1
	}
	if d.SimSeed == 0 {
		d.SimSeed = 1
	}
	return d
}

func NewRouter(deps Deps) *http.ServeMux {
	deps = deps.withDefaults()
	sessions := NewManager(deps)
	limiter := ratelimit.NewLimiter()
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(sessions, rateLimitMiddleware(limiter, h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", statusHandler(sessions, deps.Version))
	mux.HandleFunc("/api/v1/sessions", sessionsCollectionHandler(sessions))
	mux.Handle("/api/v1/sessions/current", withAuth(sessionCurrentHandler(sessions)))
	mux.Handle("/api/v1/agents", withAuth(agentsCollectionHandler()))
	mux.Handle("/api/v1/agents/", withAuth(agentScopedHandler()))
	mux.Handle("/api/v1/balance", withAuth(balanceHandler()))
	mux.Handle("/api/v1/balance/reset", withAuth(balanceResetHandler()))
	mux.Handle("/api/v1/balance/refresh", withAuth(balanceRefreshHandler()))
	mux.Handle("/api/v1/portfolio", withAuth(portfolioHandler()))
	mux.Handle("/api/v1/mode", withAuth(modeHandler()))
	mux.Handle("/api/v1/mode/connect", withAuth(modeConnectHandler()))
	mux.Handle("/api/v1/mode/disconnect", withAuth(modeDisconnectHandler()))
	mux.Handle("/api/v1/market/listings", withAuth(listingsCollectionHandler()))
	mux.Handle("/api/v1/market/listings/", withAuth(listingScopedHandler()))
	mux.Handle("/api/v1/market/fleets", withAuth(boughtFleetsHandler()))
	mux.Handle("/api/v1/leaderboard", withAuth(leaderboardHandler(deps.SimSeed)))
	mux.Handle("/api/v1/analytics", withAuth(analyticsHandler(deps.SimSeed)))
	mux.Handle("/api/v1/events", withAuth(eventsHandler()))
	mux.Handle("/api/v1/snapshot", withAuth(snapshotHandler()))
	mux.Handle("/mcp", mcpHandler(sessions, deps.Version))
	return mux
}

func statusHandler(sessions *Manager, version string) http.HandlerFunc {
	type statusResponse struct {
		Status    string `json:"status"`
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
		Sessions  int    `json:"sessions"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Status:    "ok",
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Sessions:  sessions.Count(),
		})
	}
}

func pathTail(path, prefix string) string {
	tail := strings.TrimPrefix(path, prefix)
	tail = strings.Trim(tail, "/")
	return tail
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
