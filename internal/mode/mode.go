// Package mode decides whether a session is operating against a real
// wallet or in demo mode, and what happens to the stored collections
// when that changes. It never raises hard errors: every unexpected
// combination resolves to demo mode.
package mode

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"flowpilot/internal/bus"
	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

type State int

const (
	Uninitialized State = iota
	Demo
	WalletConnected
)

func (s State) String() string {
	switch s {
	case Demo:
		return "demo"
	case WalletConnected:
		return "wallet"
	default:
		return "uninitialized"
	}
}

// ConnectedBalance is the balance granted when a wallet connects.
var ConnectedBalance = decimal.NewFromInt(1000)

type Controller struct {
	scopes  store.Scopes
	bus     *bus.Bus
	wallet  wallet.Wallet
	timeout time.Duration

	mu      sync.Mutex
	state   State
	address string
}

func New(scopes store.Scopes, b *bus.Bus, w wallet.Wallet, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{
		scopes:  scopes,
		bus:     b,
		wallet:  w,
		timeout: timeout,
		state:   Uninitialized,
	}
}

// Init resolves the starting mode. A persisted connected flag is only
// honored when the wallet still reports an active session; a stale flag
// is cleared and the controller falls back to demo.
func (c *Controller) Init(ctx context.Context) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	flag, _, err := c.scopes.Persistent.Get(ctx, store.KeyWalletFlag)
	claimsConnected := err == nil && flag == "true"

	if claimsConnected {
		wctx, cancel := context.WithTimeout(ctx, c.timeout)
		acct, active, werr := c.wallet.Active(wctx)
		cancel()
		if werr == nil && active {
			c.state = WalletConnected
			c.address = acct.Address
			return c.state
		}
		// Storage claims connected but the wallet disagrees: clear the
		// stale flag rather than sitting in a half-connected state.
		_ = c.scopes.Persistent.Delete(ctx, store.KeyWalletFlag)
	}

	c.state = Demo
	c.address = wallet.DemoAddress
	return c.state
}

// Connect authenticates against the wallet and, on success, moves to
// wallet mode: the address becomes authoritative, the balance resets to
// the connected default, and the real-wallet flag is persisted. On any
// failure the controller stays in demo mode and reports the error.
func (c *Controller) Connect(ctx context.Context) (wallet.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	acct, err := c.wallet.Connect(wctx)
	if err != nil {
		c.state = Demo
		c.address = wallet.DemoAddress
		return wallet.Account{}, wallet.Classify(err)
	}

	if err := c.scopes.Persistent.Set(ctx, store.KeyWalletFlag, "true"); err != nil {
		return wallet.Account{}, err
	}
	if err := c.scopes.Persistent.Set(ctx, store.KeyBalance, ConnectedBalance.String()); err != nil {
		return wallet.Account{}, err
	}
	c.state = WalletConnected
	c.address = acct.Address

	c.bus.Publish(bus.TopicWalletConnected, map[string]string{
		"address": acct.Address,
		"balance": ConnectedBalance.String(),
	})
	return acct, nil
}

// Disconnect returns to demo mode. When the real-wallet flag was set the
// transition is destructive: minted agents, the paused set, and bought
// fleets are all cleared. Without the flag only bought fleets go; a demo
// session keeps its agents.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	flag, _, err := c.scopes.Persistent.Get(ctx, store.KeyWalletFlag)
	wasReal := err == nil && flag == "true"

	if wasReal {
		wctx, cancel := context.WithTimeout(ctx, c.timeout)
		// Best effort: a wallet that fails to sign out does not keep the
		// session in wallet mode.
		_ = c.wallet.Disconnect(wctx)
		cancel()

		_ = c.scopes.Session.Delete(ctx, store.KeyAgents)
		_ = c.scopes.Session.Delete(ctx, store.KeyHasAgents)
		_ = c.scopes.Session.Delete(ctx, store.KeyPausedAgentIDs)
	}
	_ = c.scopes.Persistent.Delete(ctx, store.KeyBoughtFleets)
	_ = c.scopes.Persistent.Delete(ctx, store.KeyWalletFlag)
	_ = c.scopes.Persistent.Delete(ctx, store.KeyBalance)
	_ = c.scopes.Persistent.Delete(ctx, store.KeyBalanceReset)

	c.state = Demo
	c.address = wallet.DemoAddress

	c.bus.Publish(bus.TopicWalletDisconnected, map[string]string{"balance": "0"})
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Uninitialized {
		return Demo
	}
	return c.state
}

// Address is the authoritative account for the current mode.
func (c *Controller) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.address == "" {
		return wallet.DemoAddress
	}
	return c.address
}
