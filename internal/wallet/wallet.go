// Package wallet is the boundary to the external wallet SDK. The ledger
// treats every call here as opaque and fallible; payload texts are data,
// not logic.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrTimeout reports that a wallet call exceeded its caller-imposed
	// deadline.
	ErrTimeout = errors.New("wallet: call timed out")
	// ErrExternal reports that the wallet rejected or failed a call.
	ErrExternal = errors.New("wallet: call failed")
)

// Account is the wallet-side identity of a connected user.
type Account struct {
	Address string `json:"address"`
}

// Payload is an opaque script or transaction blob plus its arguments.
type Payload struct {
	Cadence string `json:"cadence"`
	Args    []any  `json:"args,omitempty"`
}

// Wallet is the external collaborator contract. Callers bound every call
// with a context deadline; implementations must respect cancellation.
type Wallet interface {
	// Connect authenticates and returns the active account.
	Connect(ctx context.Context) (Account, error)
	// Disconnect ends the wallet session.
	Disconnect(ctx context.Context) error
	// Active reports the account the wallet currently considers signed
	// in, if any. Used to detect stale connected flags after a restart.
	Active(ctx context.Context) (Account, bool, error)
	// SubmitStrategyPayload submits a transaction and returns its id.
	SubmitStrategyPayload(ctx context.Context, p Payload) (string, error)
	// QueryChainState runs a read-only script.
	QueryChainState(ctx context.Context, p Payload) (json.RawMessage, error)
}

// Classify maps a raw error from a wallet call into the package's error
// taxonomy, preserving the original as the wrapped cause.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrExternal) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrExternal, err)
}
