package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"flowpilot/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, ok, err := s.Get(ctx, KeyAgents); err != nil || ok {
		t.Fatalf("fresh store Get = %v, %v", ok, err)
	}
	if err := s.Set(ctx, KeyHasAgents, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyHasAgents)
	if err != nil || !ok || v != "true" {
		t.Fatalf("get = %q, %v, %v", v, ok, err)
	}
	if err := s.Delete(ctx, KeyHasAgents); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyHasAgents); ok {
		t.Fatal("key survived delete")
	}
}

func TestJSONRoundTripPreservesAgentOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	agents := []models.Agent{
		{ID: 1, Type: models.TagAutoCompound5P, Cost: decimal.NewFromInt(50)},
		{ID: 2, Type: models.TagHighestAPY, Cost: decimal.NewFromInt(200)},
		{ID: 3, Type: models.TagAutoCompound15P, Cost: decimal.NewFromInt(8)},
	}
	if err := WriteJSON(ctx, s, KeyAgents, agents); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got []models.Agent
	ok, err := ReadJSON(ctx, s, KeyAgents, &got)
	if err != nil || !ok {
		t.Fatalf("read = %v, %v", ok, err)
	}
	if len(got) != len(agents) {
		t.Fatalf("len = %d, want %d", len(got), len(agents))
	}
	for i := range agents {
		if got[i].ID != agents[i].ID || got[i].Type != agents[i].Type || !got[i].Cost.Equal(agents[i].Cost) {
			t.Fatalf("agent %d mismatch: %+v vs %+v", i, got[i], agents[i])
		}
	}
}

func TestReadJSONMissingKey(t *testing.T) {
	var out []string
	ok, err := ReadJSON(context.Background(), NewMemory(), KeyPausedAgentIDs, &out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ok || out != nil {
		t.Fatalf("missing key read = %v, %v", ok, out)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "flowpilot-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := ApplyMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Re-applying must be a no-op.
	if err := ApplyMigrations(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	s := NewSQLite(db)
	if err := s.Set(ctx, KeyBalance, "750"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, KeyBalance, "550"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyBalance)
	if err != nil || !ok || v != "550" {
		t.Fatalf("get = %q, %v, %v", v, ok, err)
	}

	// The history trigger keeps the replaced value.
	var prev string
	err = db.QueryRowContext(ctx,
		"SELECT value FROM record_history WHERE key = ? ORDER BY replaced_at DESC LIMIT 1",
		KeyBalance,
	).Scan(&prev)
	if err != nil || prev != "750" {
		t.Fatalf("history value = %q, %v", prev, err)
	}

	if err := s.Delete(ctx, KeyBalance); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyBalance); ok {
		t.Fatal("key survived delete")
	}
}
