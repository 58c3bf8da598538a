package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// DemoAddress is the fixed synthetic account used when no real wallet is
// attached.
const DemoAddress = "0xf8d6e0586b0a20c7"

// Demo simulates the wallet SDK: fixed address, configurable latency,
// canned chain state. Latency of zero makes it synchronous for tests.
type Demo struct {
	mu        sync.Mutex
	latency   time.Duration
	connected bool
	address   string
	balance   string
	txSeq     int

	// FailSubmits forces SubmitStrategyPayload to reject, for exercising
	// the no-local-commit-on-failure path.
	FailSubmits bool
	// FailQueries forces QueryChainState to reject.
	FailQueries bool
}

func NewDemo(latency time.Duration) *Demo {
	return &Demo{
		latency: latency,
		address: DemoAddress,
		balance: "1000.0",
	}
}

// SetBalance overrides the canned balance returned by chain queries.
func (d *Demo) SetBalance(balance string) {
	d.mu.Lock()
	d.balance = balance
	d.mu.Unlock()
}

func (d *Demo) wait(ctx context.Context) error {
	if d.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Demo) Connect(ctx context.Context) (Account, error) {
	if err := d.wait(ctx); err != nil {
		return Account{}, Classify(err)
	}
	d.mu.Lock()
	d.connected = true
	addr := d.address
	d.mu.Unlock()
	return Account{Address: addr}, nil
}

func (d *Demo) Disconnect(ctx context.Context) error {
	if err := d.wait(ctx); err != nil {
		return Classify(err)
	}
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	return nil
}

func (d *Demo) Active(ctx context.Context) (Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, false, Classify(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return Account{}, false, nil
	}
	return Account{Address: d.address}, true, nil
}

func (d *Demo) SubmitStrategyPayload(ctx context.Context, _ Payload) (string, error) {
	if err := d.wait(ctx); err != nil {
		return "", Classify(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailSubmits {
		return "", fmt.Errorf("%w: transaction rejected", ErrExternal)
	}
	d.txSeq++
	return fmt.Sprintf("demo-tx-%d", d.txSeq), nil
}

func (d *Demo) QueryChainState(ctx context.Context, _ Payload) (json.RawMessage, error) {
	if err := d.wait(ctx); err != nil {
		return nil, Classify(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailQueries {
		return nil, fmt.Errorf("%w: script execution failed", ErrExternal)
	}
	return json.RawMessage(d.balance), nil
}
