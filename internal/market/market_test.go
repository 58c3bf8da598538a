package market

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"flowpilot/internal/bus"
	"flowpilot/internal/ledger"
	"flowpilot/internal/models"
	"flowpilot/internal/store"
	"flowpilot/internal/wallet"
)

func testMarket(t *testing.T) (*Market, *ledger.Ledger, *bus.Bus) {
	t.Helper()
	scopes := store.Scopes{
		Session:    store.NewMemory(),
		Persistent: store.NewMemory(),
	}
	b := bus.New()
	l := ledger.New(scopes, b, wallet.NewDemo(0), ledger.Options{})
	return New(scopes, b, l), l, b
}

func mintAgents(t *testing.T, l *ledger.Ledger, tags ...string) {
	t.Helper()
	for _, tag := range tags {
		if _, err := l.Mint(context.Background(), tag, models.StrategyConfig{}); err != nil {
			t.Fatalf("mint %s: %v", tag, err)
		}
	}
}

func TestListSnapshotsLedger(t *testing.T) {
	ctx := context.Background()
	m, l, _ := testMarket(t)
	mintAgents(t, l, models.TagAutoCompound5P, models.TagHighestAPY)

	listing, err := m.List(ctx, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if listing.Seller != models.SellerYou {
		t.Fatalf("seller = %q", listing.Seller)
	}
	if listing.TotalAgents != 2 || len(listing.Agents) != 2 {
		t.Fatalf("totalAgents = %d, agents = %d", listing.TotalAgents, len(listing.Agents))
	}
	if listing.Rarity != models.RarityCommon {
		t.Fatalf("rarity = %s", listing.Rarity)
	}
	if listing.ID == "" || listing.ListedAt == "" {
		t.Fatalf("missing id or timestamp: %+v", listing)
	}

	listings, err := m.Listings(ctx)
	if err != nil || len(listings) != 1 || listings[0].ID != listing.ID {
		t.Fatalf("listings = %v, %v", listings, err)
	}

	// Listing is a snapshot; the ledger keeps its agents.
	agents, err := l.Agents(ctx)
	if err != nil || len(agents) != 2 {
		t.Fatalf("agents after list = %d, %v", len(agents), err)
	}
}

func TestListEmptyFleet(t *testing.T) {
	m, _, _ := testMarket(t)
	if _, err := m.List(context.Background(), decimal.NewFromInt(100)); !errors.Is(err, ErrEmptyFleet) {
		t.Fatalf("error = %v", err)
	}
}

func TestUnlistRemovesOnlyMatchingListing(t *testing.T) {
	ctx := context.Background()
	m, l, _ := testMarket(t)
	mintAgents(t, l, models.TagAutoCompound5P, models.TagAutoCompound15P)

	listing, err := m.List(ctx, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := m.Unlist(ctx, listing.ID); err != nil {
		t.Fatalf("unlist: %v", err)
	}

	listings, err := m.Listings(ctx)
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	for _, rem := range listings {
		if rem.ID == listing.ID {
			t.Fatal("unlisted id still present")
		}
	}

	agents, err := l.Agents(ctx)
	if err != nil || len(agents) != 2 {
		t.Fatalf("agents after unlist = %d, %v", len(agents), err)
	}
}

func TestUnlistUnknownID(t *testing.T) {
	m, _, _ := testMarket(t)
	if err := m.Unlist(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v", err)
	}
}

func TestRarityByFleetSize(t *testing.T) {
	cases := []struct {
		size int
		want string
	}{
		{1, models.RarityCommon},
		{2, models.RarityCommon},
		{3, models.RarityRare},
		{4, models.RarityRare},
		{5, models.RarityEpic},
		{9, models.RarityEpic},
	}
	for _, tc := range cases {
		if got := RarityFor(tc.size); got != tc.want {
			t.Errorf("RarityFor(%d) = %s, want %s", tc.size, got, tc.want)
		}
	}
}

func TestPurchaseCopiesListingIntoBought(t *testing.T) {
	ctx := context.Background()
	m, _, _ := testMarket(t)
	if err := m.SeedListings(ctx, 7); err != nil {
		t.Fatalf("seed: %v", err)
	}
	listings, _ := m.Listings(ctx)
	target := listings[0]

	fleet, err := m.Purchase(ctx, target.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if fleet.ID != target.ID || !fleet.PurchasePrice.Equal(target.Price) {
		t.Fatalf("fleet = %+v", fleet)
	}
	if fleet.PurchaseDate == "" {
		t.Fatal("missing purchase date")
	}

	bought, err := m.PurchasedFleets(ctx)
	if err != nil || len(bought) != 1 {
		t.Fatalf("bought = %d, %v", len(bought), err)
	}

	// Buying never removes the listing from the shared collection.
	after, _ := m.Listings(ctx)
	if len(after) != len(listings) {
		t.Fatalf("listings shrank from %d to %d", len(listings), len(after))
	}
}

func TestPurchaseUnknownID(t *testing.T) {
	m, _, _ := testMarket(t)
	if _, err := m.Purchase(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v", err)
	}
}

func TestSyntheticListingsDeterministic(t *testing.T) {
	a := SyntheticListings(42, DefaultSeedCount)
	b := SyntheticListings(42, DefaultSeedCount)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different listings")
	}
	if len(a) != DefaultSeedCount {
		t.Fatalf("count = %d", len(a))
	}
	for _, l := range a {
		if l.Seller == models.SellerYou {
			t.Fatalf("synthetic listing claims seller %q", l.Seller)
		}
		if l.Price.LessThanOrEqual(decimal.Zero) {
			t.Fatalf("price = %s", l.Price)
		}
	}
}

func TestSeedListingsDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	m, _, _ := testMarket(t)
	if err := m.SeedListings(ctx, 1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.SeedListings(ctx, 1); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	listings, _ := m.Listings(ctx)
	if len(listings) != DefaultSeedCount {
		t.Fatalf("listings = %d, want %d", len(listings), DefaultSeedCount)
	}
}

func TestListPublishesMarketplaceUpdated(t *testing.T) {
	ctx := context.Background()
	m, l, b := testMarket(t)
	mintAgents(t, l, models.TagAutoCompound5P)

	events, cancel := b.Subscribe(bus.TopicMarketplaceUpdated)
	defer cancel()

	if _, err := m.List(ctx, decimal.NewFromInt(250)); err != nil {
		t.Fatalf("list: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Topic != bus.TopicMarketplaceUpdated {
			t.Fatalf("topic = %s", ev.Topic)
		}
	default:
		t.Fatal("no marketplace event published")
	}
}
