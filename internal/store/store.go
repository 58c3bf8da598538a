// Package store is the record layer under the ledger: keyed JSON blobs
// in two scopes. The session scope lives and dies with one session; the
// persistent scope is shared across sessions and survives restarts.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Record keys. Values are JSON unless noted.
const (
	KeyAgents         = "agents"         // session: ordered []models.Agent
	KeyHasAgents      = "hasAgents"      // session: "true" sentinel, distinguishes empty from fresh
	KeyPausedAgentIDs = "pausedAgentIds" // session: []string of agent ids
	KeyBalance        = "balance"        // persistent: decimal string
	KeyBalanceReset   = "balanceManuallyReset" // persistent: "true" when overridden
	KeyWalletFlag     = "walletConnected"      // persistent: "true" when a real wallet connected
	KeyBoughtFleets   = "boughtFleets"         // persistent: []models.PurchasedFleet
	KeyListings       = "marketplaceListings"  // persistent: []models.FleetListing
)

// Store is a keyed blob store. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Scopes carries the two storage scopes a ledger operates over.
type Scopes struct {
	Session    Store
	Persistent Store
}

// ReadJSON unmarshals the value at key into out. The second return is
// false when the key is absent; out is left untouched in that case.
func ReadJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode record %s: %w", key, err)
	}
	return true, nil
}

// WriteJSON marshals v and stores it at key.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
