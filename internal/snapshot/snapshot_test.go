package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"flowpilot/internal/bus"
	"flowpilot/internal/ledger"
	"flowpilot/internal/models"
	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

func seededScopes(t *testing.T) (store.Scopes, *ledger.Ledger) {
	t.Helper()
	ctx := context.Background()
	scopes := store.Scopes{
		Session:    store.NewMemory(),
		Persistent: store.NewMemory(),
	}
	l := ledger.New(scopes, bus.New(), wallet.NewDemo(0), ledger.Options{})
	for _, tag := range []string{models.TagAutoCompound5P, models.TagHighestAPY} {
		if _, err := l.Mint(ctx, tag, models.StrategyConfig{}); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	if err := l.Pause(ctx, 1); err != nil {
		t.Fatalf("pause: %v", err)
	}
	return scopes, l
}

func TestExportCapturesState(t *testing.T) {
	ctx := context.Background()
	scopes, _ := seededScopes(t)

	snap, err := Export(ctx, scopes)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Agents) != 2 {
		t.Fatalf("agents = %d", len(snap.Agents))
	}
	if len(snap.PausedAgentIDs) != 1 || snap.PausedAgentIDs[0] != "1" {
		t.Fatalf("paused = %v", snap.PausedAgentIDs)
	}
	if snap.Balance == "" {
		t.Fatal("balance not captured")
	}
	if snap.ExportedAt == "" {
		t.Fatal("missing export timestamp")
	}
}

func TestImportRestoresState(t *testing.T) {
	ctx := context.Background()
	src, _ := seededScopes(t)
	snap, err := Export(ctx, src)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := store.Scopes{
		Session:    store.NewMemory(),
		Persistent: store.NewMemory(),
	}
	if err := Import(ctx, dst, snap); err != nil {
		t.Fatalf("import: %v", err)
	}

	l := ledger.New(dst, bus.New(), wallet.NewDemo(0), ledger.Options{})
	agents, err := l.Agents(ctx)
	if err != nil || len(agents) != 2 {
		t.Fatalf("agents after import = %d, %v", len(agents), err)
	}
	status, err := l.Status(ctx, 1)
	if err != nil || status != models.StatusPaused {
		t.Fatalf("status = %s, %v", status, err)
	}
	balance, err := l.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// 1000 - 50 - 200
	if !balance.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("balance = %s", balance)
	}
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	scopes, _ := seededScopes(t)
	snap, err := Export(ctx, scopes)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	for _, name := range []string{"state.json", "state.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := WriteFile(path, snap); err != nil {
			t.Fatalf("%s write: %v", name, err)
		}
		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("%s read: %v", name, err)
		}
		if len(got.Agents) != len(snap.Agents) {
			t.Fatalf("%s: agents = %d, want %d", name, len(got.Agents), len(snap.Agents))
		}
		if !got.Agents[1].Cost.Equal(snap.Agents[1].Cost) {
			t.Fatalf("%s: cost = %s, want %s", name, got.Agents[1].Cost, snap.Agents[1].Cost)
		}
		if got.Balance != snap.Balance {
			t.Fatalf("%s: balance = %q, want %q", name, got.Balance, snap.Balance)
		}
	}
}

func TestImportClearsAbsentFlags(t *testing.T) {
	ctx := context.Background()
	dst := store.Scopes{
		Session:    store.NewMemory(),
		Persistent: store.NewMemory(),
	}
	if err := dst.Persistent.Set(ctx, store.KeyWalletFlag, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := dst.Persistent.Set(ctx, store.KeyBalanceReset, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := Import(ctx, dst, &Snapshot{}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, ok, _ := dst.Persistent.Get(ctx, store.KeyWalletFlag); ok {
		t.Fatal("wallet flag survived import of empty snapshot")
	}
	if _, ok, _ := dst.Persistent.Get(ctx, store.KeyBalanceReset); ok {
		t.Fatal("reset flag survived import of empty snapshot")
	}
}
