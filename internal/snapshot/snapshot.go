// Package snapshot exports and imports a session's ledger state as a
// single document, usable for backups or for seeding a fresh session.
// Files ending in .yaml or .yml use YAML; everything else is JSON.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"flowpilot/internal/models"
	"flowpilot/internal/store"
)

type Snapshot struct {
	ExportedAt      string                  `json:"exported_at"`
	Agents          []models.Agent          `json:"agents"`
	PausedAgentIDs  []string                `json:"paused_agent_ids"`
	Balance         string                  `json:"balance,omitempty"`
	BalanceReset    bool                    `json:"balance_manually_reset,omitempty"`
	WalletConnected bool                    `json:"wallet_connected,omitempty"`
	BoughtFleets    []models.PurchasedFleet `json:"bought_fleets"`
	Listings        []models.FleetListing   `json:"listings"`
}

// Export captures the full session and persistent state.
func Export(ctx context.Context, scopes store.Scopes) (*Snapshot, error) {
	snap := &Snapshot{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := store.ReadJSON(ctx, scopes.Session, store.KeyAgents, &snap.Agents); err != nil {
		return nil, err
	}
	if _, err := store.ReadJSON(ctx, scopes.Session, store.KeyPausedAgentIDs, &snap.PausedAgentIDs); err != nil {
		return nil, err
	}
	if _, err := store.ReadJSON(ctx, scopes.Persistent, store.KeyBoughtFleets, &snap.BoughtFleets); err != nil {
		return nil, err
	}
	if _, err := store.ReadJSON(ctx, scopes.Persistent, store.KeyListings, &snap.Listings); err != nil {
		return nil, err
	}

	balance, ok, err := scopes.Persistent.Get(ctx, store.KeyBalance)
	if err != nil {
		return nil, err
	}
	if ok {
		snap.Balance = balance
	}
	reset, _, err := scopes.Persistent.Get(ctx, store.KeyBalanceReset)
	if err != nil {
		return nil, err
	}
	snap.BalanceReset = reset == "true"
	flag, _, err := scopes.Persistent.Get(ctx, store.KeyWalletFlag)
	if err != nil {
		return nil, err
	}
	snap.WalletConnected = flag == "true"
	return snap, nil
}

// Import restores a snapshot into the given scopes, replacing whatever
// is there.
func Import(ctx context.Context, scopes store.Scopes, snap *Snapshot) error {
	if err := store.WriteJSON(ctx, scopes.Session, store.KeyAgents, snap.Agents); err != nil {
		return err
	}
	hasAgents := "false"
	if len(snap.Agents) > 0 {
		hasAgents = "true"
	}
	if err := scopes.Session.Set(ctx, store.KeyHasAgents, hasAgents); err != nil {
		return err
	}
	if err := store.WriteJSON(ctx, scopes.Session, store.KeyPausedAgentIDs, snap.PausedAgentIDs); err != nil {
		return err
	}
	if err := store.WriteJSON(ctx, scopes.Persistent, store.KeyBoughtFleets, snap.BoughtFleets); err != nil {
		return err
	}
	if err := store.WriteJSON(ctx, scopes.Persistent, store.KeyListings, snap.Listings); err != nil {
		return err
	}

	if snap.Balance != "" {
		if err := scopes.Persistent.Set(ctx, store.KeyBalance, snap.Balance); err != nil {
			return err
		}
	} else if err := scopes.Persistent.Delete(ctx, store.KeyBalance); err != nil {
		return err
	}
	if snap.BalanceReset {
		if err := scopes.Persistent.Set(ctx, store.KeyBalanceReset, "true"); err != nil {
			return err
		}
	} else if err := scopes.Persistent.Delete(ctx, store.KeyBalanceReset); err != nil {
		return err
	}
	if snap.WalletConnected {
		return scopes.Persistent.Set(ctx, store.KeyWalletFlag, "true")
	}
	return scopes.Persistent.Delete(ctx, store.KeyWalletFlag)
}

// WriteFile writes the snapshot to path in the format implied by its
// extension.
func WriteFile(path string, snap *Snapshot) error {
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = marshalYAML(snap)
	} else {
		b, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// ReadFile parses a snapshot file in the format implied by its
// extension.
func ReadFile(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if isYAML(path) {
		if err := unmarshalYAML(b, &snap); err != nil {
			return nil, fmt.Errorf("parse yaml snapshot: %w", err)
		}
	} else {
		if err := json.Unmarshal(b, &snap); err != nil {
			return nil, fmt.Errorf("parse json snapshot: %w", err)
		}
	}
	return &snap, nil
}

// Money fields carry custom JSON codecs but no YAML ones, so the YAML
// path goes through the JSON representation.
func marshalYAML(snap *Snapshot) ([]byte, error) {
	j, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(j, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

func unmarshalYAML(b []byte, snap *Snapshot) error {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	j, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(j, snap)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
