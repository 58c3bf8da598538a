// Package ledger owns the ordered minted-agent collection for one
// session and every value derived from it. All mutations go through one
// mutex; the record stores underneath provide no transactions, so the
// ledger is the single logical writer for its session.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"flowpilot/internal/bus"
	"flowpilot/internal/cost"
	"flowpilot/internal/models"
	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

var (
	// ErrNotFound reports an operation against an agent id that does not
	// exist in this session's ledger.
	ErrNotFound = errors.New("ledger: agent not found")
	// ErrBusy reports a mutation attempted while a mint is in flight.
	ErrBusy = errors.New("ledger: mint in progress")
)

// DefaultInitialBalance is the starting USDC balance of a session.
var DefaultInitialBalance = decimal.NewFromInt(1000)

// Options tune a ledger. Zero values resolve to the defaults below.
type Options struct {
	// InitialBalance is the balance a fresh session starts from.
	InitialBalance decimal.Decimal
	// AllowNegativeBalance skips the zero floor when deriving balance.
	AllowNegativeBalance bool
	// QueryTimeout bounds read calls to the wallet.
	QueryTimeout time.Duration
	// SubmitTimeout bounds transaction submission to the wallet.
	SubmitTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.InitialBalance.IsZero() {
		o.InitialBalance = DefaultInitialBalance
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 5 * time.Second
	}
	if o.SubmitTimeout <= 0 {
		o.SubmitTimeout = 10 * time.Second
	}
	return o
}

type Ledger struct {
	scopes store.Scopes
	bus    *bus.Bus
	wallet wallet.Wallet
	opts   Options

	// mu serializes mutations and is held across mint, including the
	// external wallet call, so a double-click cannot mint twice.
	mu sync.Mutex
}

func New(scopes store.Scopes, b *bus.Bus, w wallet.Wallet, opts Options) *Ledger {
	return &Ledger{
		scopes: scopes,
		bus:    b,
		wallet: w,
		opts:   opts.withDefaults(),
	}
}

// Mint creates a new agent from a strategy tag and its configuration.
// When a real wallet is connected the mint transaction must be confirmed
// before anything is written locally; a re-entrant call while one mint is
// pending fails with ErrBusy.
func (l *Ledger) Mint(ctx context.Context, tag string, cfg models.StrategyConfig) (models.Agent, error) {
	if !l.mu.TryLock() {
		return models.Agent{}, ErrBusy
	}
	defer l.mu.Unlock()

	if cfg.StrategyType == "" {
		cfg.StrategyType = tag
	}
	c := cost.Cost(tag)

	connected, err := l.walletConnected(ctx)
	if err != nil {
		return models.Agent{}, err
	}
	if connected {
		sctx, cancel := context.WithTimeout(ctx, l.opts.SubmitTimeout)
		defer cancel()
		payload := wallet.MintPayload(tag, cfg.RiskTolerance, cfg.AllocationPercent.StringFixed(1), cfg.TimeLockDays, c.StringFixed(1))
		if _, err := l.wallet.SubmitStrategyPayload(sctx, payload); err != nil {
			return models.Agent{}, wallet.Classify(err)
		}
	}

	agents, err := l.loadAgents(ctx)
	if err != nil {
		return models.Agent{}, err
	}
	agent := models.Agent{
		ID:        len(agents) + 1,
		Type:      tag,
		Cost:      c,
		Strategy:  cfg,
		Timestamp: time.Now().UnixMilli(),
	}
	agents = append(agents, agent)
	if err := store.WriteJSON(ctx, l.scopes.Session, store.KeyAgents, agents); err != nil {
		return models.Agent{}, err
	}
	if err := l.scopes.Session.Set(ctx, store.KeyHasAgents, "true"); err != nil {
		return models.Agent{}, err
	}

	balance, err := l.cachedOrDerivedBalance(ctx, agents[:len(agents)-1])
	if err != nil {
		return models.Agent{}, err
	}
	if err := l.writeBalance(ctx, l.clamp(balance.Sub(c))); err != nil {
		return models.Agent{}, err
	}
	return agent, nil
}

// Agents returns the session's minted agents in ascending id order. The
// order is enforced here, not assumed from storage.
func (l *Ledger) Agents(ctx context.Context) ([]models.Agent, error) {
	return l.loadAgents(ctx)
}

// UpdateStrategy replaces the strategy configuration of the agent with
// the given id. The agent's cost and pricing tag are untouched.
func (l *Ledger) UpdateStrategy(ctx context.Context, id int, cfg models.StrategyConfig) (models.Agent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	agents, err := l.loadAgents(ctx)
	if err != nil {
		return models.Agent{}, err
	}
	for i := range agents {
		if agents[i].ID != id {
			continue
		}
		agents[i].Strategy = cfg
		if err := store.WriteJSON(ctx, l.scopes.Session, store.KeyAgents, agents); err != nil {
			return models.Agent{}, err
		}
		return agents[i], nil
	}
	return models.Agent{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// Pause marks an agent paused. Pausing an already-paused agent is a
// no-op.
func (l *Ledger) Pause(ctx context.Context, id int) error {
	return l.setPaused(ctx, id, true)
}

// Resume clears an agent's paused mark. Idempotent like Pause.
func (l *Ledger) Resume(ctx context.Context, id int) error {
	return l.setPaused(ctx, id, false)
}

// Status derives an agent's Active/Paused status from the paused set.
func (l *Ledger) Status(ctx context.Context, id int) (string, error) {
	if _, err := l.findAgent(ctx, id); err != nil {
		return "", err
	}
	paused, err := l.pausedSet(ctx)
	if err != nil {
		return "", err
	}
	if paused[fmt.Sprint(id)] {
		return models.StatusPaused, nil
	}
	return models.StatusActive, nil
}

// Detail joins one agent with its display mapping, status, and farm.
func (l *Ledger) Detail(ctx context.Context, id int) (models.AgentDetail, error) {
	agent, err := l.findAgent(ctx, id)
	if err != nil {
		return models.AgentDetail{}, err
	}
	status, err := l.Status(ctx, id)
	if err != nil {
		return models.AgentDetail{}, err
	}
	return joinDetail(agent, status), nil
}

// Details is Detail over the whole ledger, in id order.
func (l *Ledger) Details(ctx context.Context) ([]models.AgentDetail, error) {
	agents, err := l.loadAgents(ctx)
	if err != nil {
		return nil, err
	}
	paused, err := l.pausedSet(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]models.AgentDetail, 0, len(agents))
	for _, a := range agents {
		status := models.StatusActive
		if paused[fmt.Sprint(a.ID)] {
			status = models.StatusPaused
		}
		details = append(details, joinDetail(a, status))
	}
	return details, nil
}

func joinDetail(a models.Agent, status string) models.AgentDetail {
	d := cost.DisplayFor(a.Type)
	return models.AgentDetail{
		Agent:       a,
		Label:       d.Label,
		Description: d.Description,
		Emoji:       d.Emoji,
		Status:      status,
		Farm:        cost.FarmFor(a.Type).Name,
	}
}

func (l *Ledger) setPaused(ctx context.Context, id int, paused bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.findAgent(ctx, id); err != nil {
		return err
	}
	var ids []string
	if _, err := store.ReadJSON(ctx, l.scopes.Session, store.KeyPausedAgentIDs, &ids); err != nil {
		return err
	}
	key := fmt.Sprint(id)
	next := make([]string, 0, len(ids)+1)
	present := false
	for _, v := range ids {
		if v == key {
			present = true
			if !paused {
				continue
			}
		}
		next = append(next, v)
	}
	if paused && !present {
		next = append(next, key)
	}
	if paused == present {
		return nil
	}
	return store.WriteJSON(ctx, l.scopes.Session, store.KeyPausedAgentIDs, next)
}

func (l *Ledger) pausedSet(ctx context.Context) (map[string]bool, error) {
	var ids []string
	if _, err := store.ReadJSON(ctx, l.scopes.Session, store.KeyPausedAgentIDs, &ids); err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, v := range ids {
		set[v] = true
	}
	return set, nil
}

func (l *Ledger) findAgent(ctx context.Context, id int) (models.Agent, error) {
	agents, err := l.loadAgents(ctx)
	if err != nil {
		return models.Agent{}, err
	}
	for _, a := range agents {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Agent{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (l *Ledger) loadAgents(ctx context.Context) ([]models.Agent, error) {
	var agents []models.Agent
	if _, err := store.ReadJSON(ctx, l.scopes.Session, store.KeyAgents, &agents); err != nil {
		return nil, err
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

func (l *Ledger) walletConnected(ctx context.Context) (bool, error) {
	v, ok, err := l.scopes.Persistent.Get(ctx, store.KeyWalletFlag)
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}
