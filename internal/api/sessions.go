package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"flowpilot/internal/auth"
	"flowpilot/internal/bus"
	"flowpilot/internal/ledger"
	"flowpilot/internal/market"
	"flowpilot/internal/mode"
	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

// Session bundles the per-session state: a private session-scoped store
// layered over the shared persistent store, plus the ledger, mode
// controller, and market bound to them. One session corresponds to one
// browser-tab-equivalent consumer.
type Session struct {
	ID      string
	Created time.Time

	Scopes store.Scopes
	Bus    *bus.Bus
	Wallet wallet.Wallet
	Ledger *ledger.Ledger
	Mode   *mode.Controller
	Market *market.Market

	tokenHash string
}

// Manager owns all live sessions, keyed by token hash.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	byHash   map[string]*Session
	byID     map[string]*Session
	produced int
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:   deps,
		byHash: map[string]*Session{},
		byID:   map[string]*Session{},
	}
}

// Create builds a fresh session and returns it with its bearer token.
// The token is shown once; only its hash is retained.
func (m *Manager) Create(ctx context.Context) (*Session, string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, "", err
	}

	scopes := store.Scopes{
		Session:    store.NewMemory(),
		Persistent: m.deps.Persistent,
	}
	b := bus.New()
	w := m.deps.NewWallet()
	l := ledger.New(scopes, b, w, m.deps.Ledger)
	mk := market.New(scopes, b, l)

	sess := &Session{
		ID:        uuid.NewString(),
		Created:   time.Now().UTC(),
		Scopes:    scopes,
		Bus:       b,
		Wallet:    w,
		Ledger:    l,
		Mode:      mode.New(scopes, b, w, 0),
		Market:    mk,
		tokenHash: auth.HashToken(token),
	}
	sess.Mode.Init(ctx)
	if err := mk.SeedListings(ctx, m.deps.MarketSeed); err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	m.byHash[sess.tokenHash] = sess
	m.byID[sess.ID] = sess
	m.produced++
	m.mu.Unlock()
	return sess, token, nil
}

// Lookup resolves a raw bearer token to its session.
func (m *Manager) Lookup(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byHash[auth.HashToken(token)]
	return sess, ok
}

// ByID resolves a session id, for callers that authenticated elsewhere.
func (m *Manager) ByID(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byID[id]
	return sess, ok
}

// Remove ends a session. The shared persistent scope is untouched.
func (m *Manager) Remove(sess *Session) {
	m.mu.Lock()
	delete(m.byHash, sess.tokenHash)
	delete(m.byID, sess.ID)
	m.mu.Unlock()
}

// Count reports live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHash)
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
	Mode      string `json:"mode"`
	Address   string `json:"address"`
	Created   string `json:"created"`
}

func sessionsCollectionHandler(sessions *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		sess, token, err := sessions.Create(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{
			SessionID: sess.ID,
			Token:     token,
			Mode:      sess.Mode.State().String(),
			Address:   sess.Mode.Address(),
			Created:   sess.Created.Format(time.RFC3339),
		})
	}
}

func sessionCurrentHandler(sessions *Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r.Context())
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, sessionResponse{
				SessionID: sess.ID,
				Mode:      sess.Mode.State().String(),
				Address:   sess.Mode.Address(),
				Created:   sess.Created.Format(time.RFC3339),
			})
		case http.MethodDelete:
			sessions.Remove(sess)
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	})
}
