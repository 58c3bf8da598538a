package ledger

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"flowpilot/internal/bus"
	"flowpilot/internal/cost"
	"flowpilot/internal/models"
	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

// Balance returns the session's current balance: the cached value when
// one exists, otherwise the value derived from the minted agents.
func (l *Ledger) Balance(ctx context.Context) (decimal.Decimal, error) {
	raw, ok, err := l.scopes.Persistent.Get(ctx, store.KeyBalance)
	if err != nil {
		return decimal.Zero, err
	}
	if ok {
		return decimal.NewFromString(strings.TrimSpace(raw))
	}
	agents, err := l.loadAgents(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	balance := l.derive(ctx, agents)
	if err := l.writeBalance(ctx, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ComputeBalance derives initial − Σcost over the minted agents, floored
// at zero unless the ledger allows negative balances. Pure with respect
// to the cache and the override flag.
func (l *Ledger) ComputeBalance(ctx context.Context, initial decimal.Decimal) (decimal.Decimal, error) {
	agents, err := l.loadAgents(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := initial
	for _, a := range agents {
		total = total.Sub(agentCost(a))
	}
	return l.clamp(total), nil
}

// SyncBalance recomputes the cached balance from the minted agents,
// unless a manual reset is in force. A reset value stands until an
// authoritative refresh clears the override.
func (l *Ledger) SyncBalance(ctx context.Context) (decimal.Decimal, error) {
	overridden, err := l.balanceOverridden(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if overridden {
		return l.Balance(ctx)
	}
	balance, err := l.ComputeBalance(ctx, l.opts.InitialBalance)
	if err != nil {
		return decimal.Zero, err
	}
	if err := l.writeBalance(ctx, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ResetBalance overwrites the cached balance and marks it sticky: later
// automatic recomputes leave it alone until RefreshBalance succeeds.
func (l *Ledger) ResetBalance(ctx context.Context, amount decimal.Decimal) error {
	if err := l.scopes.Persistent.Set(ctx, store.KeyBalanceReset, "true"); err != nil {
		return err
	}
	return l.writeBalance(ctx, amount)
}

// RefreshBalance queries the authoritative wallet balance for the given
// address. On success it replaces the cache and clears the manual
// override; on timeout or failure it degrades to the last-known cached
// value rather than surfacing an error to the view.
func (l *Ledger) RefreshBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if address == "" {
		address = wallet.DemoAddress
	}
	qctx, cancel := context.WithTimeout(ctx, l.opts.QueryTimeout)
	defer cancel()

	result, err := l.wallet.QueryChainState(qctx, wallet.BalancePayload(address))
	if err != nil {
		return l.Balance(ctx)
	}
	balance, perr := parseChainBalance(result)
	if perr != nil {
		return l.Balance(ctx)
	}
	if err := l.scopes.Persistent.Delete(ctx, store.KeyBalanceReset); err != nil {
		return decimal.Zero, err
	}
	if err := l.writeBalance(ctx, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// PortfolioValue is Σcost × the standard markup.
func (l *Ledger) PortfolioValue(ctx context.Context) (decimal.Decimal, error) {
	total, err := l.sumCosts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Mul(cost.PortfolioMarkup), nil
}

// SuggestedListPrice is the recommended marketplace price: portfolio
// value plus the listing premium.
func (l *Ledger) SuggestedListPrice(ctx context.Context) (decimal.Decimal, error) {
	value, err := l.PortfolioValue(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Mul(cost.ListingPremium), nil
}

// TotalProfit is the displayed lifetime profit estimate, Σcost × 0.5.
func (l *Ledger) TotalProfit(ctx context.Context) (decimal.Decimal, error) {
	total, err := l.sumCosts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Mul(cost.ProfitFactor), nil
}

func (l *Ledger) sumCosts(ctx context.Context) (decimal.Decimal, error) {
	agents, err := l.loadAgents(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range agents {
		total = total.Add(agentCost(a))
	}
	return total, nil
}

// agentCost prefers the cost stamped at mint time; records imported from
// elsewhere may lack it, in which case the tag reprices them.
func agentCost(a models.Agent) decimal.Decimal {
	if a.Cost.IsZero() {
		return cost.Cost(a.Type)
	}
	return a.Cost
}

func (l *Ledger) derive(ctx context.Context, agents []models.Agent) decimal.Decimal {
	// A fresh session (no sentinel) starts at the initial balance even
	// though its agent list is also empty.
	if v, ok, _ := l.scopes.Session.Get(ctx, store.KeyHasAgents); !ok || v != "true" {
		return l.opts.InitialBalance
	}
	total := l.opts.InitialBalance
	for _, a := range agents {
		total = total.Sub(agentCost(a))
	}
	return l.clamp(total)
}

func (l *Ledger) cachedOrDerivedBalance(ctx context.Context, agents []models.Agent) (decimal.Decimal, error) {
	raw, ok, err := l.scopes.Persistent.Get(ctx, store.KeyBalance)
	if err != nil {
		return decimal.Zero, err
	}
	if ok {
		return decimal.NewFromString(strings.TrimSpace(raw))
	}
	return l.derive(ctx, agents), nil
}

func (l *Ledger) balanceOverridden(ctx context.Context) (bool, error) {
	v, ok, err := l.scopes.Persistent.Get(ctx, store.KeyBalanceReset)
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}

func (l *Ledger) writeBalance(ctx context.Context, balance decimal.Decimal) error {
	if err := l.scopes.Persistent.Set(ctx, store.KeyBalance, balance.String()); err != nil {
		return err
	}
	l.bus.Publish(bus.TopicBalanceUpdated, map[string]string{"balance": balance.String()})
	return nil
}

func (l *Ledger) clamp(d decimal.Decimal) decimal.Decimal {
	if !l.opts.AllowNegativeBalance && d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseChainBalance(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	return decimal.NewFromString(s)
}
