// Package market manages the shared marketplace listings collection and
// the buyer-side purchased fleets collection. Listings with seller "You"
// snapshot the session's own agent ledger; the rest come from synthetic
// sellers. Purchasing a fleet copies the listing into the bought
// collection and nothing else: agents never move between ledgers.
package market

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flowpilot/internal/bus"
	"flowpilot/internal/ledger"
	"flowpilot/internal/models"
	"flowpilot/internal/store"
)

var (
	// ErrNotFound reports a listing id with no matching listing.
	ErrNotFound = errors.New("listing not found")
	// ErrEmptyFleet reports an attempt to list a ledger with no agents.
	ErrEmptyFleet = errors.New("no agents to list")
)

const (
	fleetName        = "AI Agent Fleet"
	fleetDescription = "Complete AI agent fleet with automated DeFi strategies"
)

var fleetTags = []string{"AI Agents", "DeFi", "Automation", "Fleet"}

// Market mediates access to the shared listings store for one session.
type Market struct {
	scopes store.Scopes
	bus    *bus.Bus
	ledger *ledger.Ledger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func New(scopes store.Scopes, b *bus.Bus, l *ledger.Ledger) *Market {
	return &Market{
		scopes: scopes,
		bus:    b,
		ledger: l,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// RarityFor grades a fleet by size.
func RarityFor(totalAgents int) string {
	switch {
	case totalAgents >= 5:
		return models.RarityEpic
	case totalAgents >= 3:
		return models.RarityRare
	default:
		return models.RarityCommon
	}
}

// List snapshots the session's current agents into a new listing at the
// given price and appends it to the shared collection. The ledger itself
// is untouched: agents stay owned until someone buys them.
func (m *Market) List(ctx context.Context, price decimal.Decimal) (models.FleetListing, error) {
	agents, err := m.ledger.Agents(ctx)
	if err != nil {
		return models.FleetListing{}, err
	}
	if len(agents) == 0 {
		return models.FleetListing{}, ErrEmptyFleet
	}

	snapshot := make([]models.FleetAgent, len(agents))
	for i, a := range agents {
		snapshot[i] = models.FleetAgent{
			ID:       a.ID,
			Type:     a.Type,
			Strategy: a.Strategy.StrategyType,
			Cost:     a.Cost,
		}
	}

	listing := models.FleetListing{
		ID:          m.newID(),
		Name:        fleetName,
		Description: fleetDescription,
		Price:       price,
		Seller:      models.SellerYou,
		Agents:      snapshot,
		TotalAgents: len(snapshot),
		Rarity:      RarityFor(len(snapshot)),
		Tags:        fleetTags,
		ListedAt:    m.now().UTC().Format(time.RFC3339),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	listings, err := m.loadListings(ctx)
	if err != nil {
		return models.FleetListing{}, err
	}
	listings = append(listings, listing)
	if err := store.WriteJSON(ctx, m.scopes.Persistent, store.KeyListings, listings); err != nil {
		return models.FleetListing{}, err
	}

	m.bus.Publish(bus.TopicMarketplaceUpdated, listing)
	return listing, nil
}

// Unlist removes a listing by id. There is no identity system, so the
// only check is the id itself.
func (m *Market) Unlist(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	listings, err := m.loadListings(ctx)
	if err != nil {
		return err
	}

	kept := listings[:0]
	found := false
	for _, l := range listings {
		if l.ID == id {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return ErrNotFound
	}
	if err := store.WriteJSON(ctx, m.scopes.Persistent, store.KeyListings, kept); err != nil {
		return err
	}

	m.bus.Publish(bus.TopicMarketplaceUpdated, nil)
	return nil
}

// Listings returns the shared collection, all sellers included.
func (m *Market) Listings(ctx context.Context) ([]models.FleetListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadListings(ctx)
}

// Listed reports whether the session currently has its own fleet on the
// market.
func (m *Market) Listed(ctx context.Context) (bool, error) {
	listings, err := m.Listings(ctx)
	if err != nil {
		return false, err
	}
	for _, l := range listings {
		if l.Seller == models.SellerYou && len(l.Agents) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Purchase copies a listing into the bought collection with purchase
// metadata. The listing stays on the market and no balance moves; fleets
// and minted agents are separate collections.
func (m *Market) Purchase(ctx context.Context, id string) (models.PurchasedFleet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listings, err := m.loadListings(ctx)
	if err != nil {
		return models.PurchasedFleet{}, err
	}
	var listing *models.FleetListing
	for i := range listings {
		if listings[i].ID == id {
			listing = &listings[i]
			break
		}
	}
	if listing == nil {
		return models.PurchasedFleet{}, ErrNotFound
	}

	fleet := models.PurchasedFleet{
		FleetListing:  *listing,
		PurchaseDate:  m.now().UTC().Format(time.RFC3339),
		PurchasePrice: listing.Price,
	}

	var bought []models.PurchasedFleet
	if _, err := store.ReadJSON(ctx, m.scopes.Persistent, store.KeyBoughtFleets, &bought); err != nil {
		return models.PurchasedFleet{}, err
	}
	bought = append(bought, fleet)
	if err := store.WriteJSON(ctx, m.scopes.Persistent, store.KeyBoughtFleets, bought); err != nil {
		return models.PurchasedFleet{}, err
	}

	m.bus.Publish(bus.TopicMarketplaceUpdated, nil)
	return fleet, nil
}

// PurchasedFleets returns the buyer-side bought collection.
func (m *Market) PurchasedFleets(ctx context.Context) ([]models.PurchasedFleet, error) {
	var bought []models.PurchasedFleet
	if _, err := store.ReadJSON(ctx, m.scopes.Persistent, store.KeyBoughtFleets, &bought); err != nil {
		return nil, err
	}
	return bought, nil
}

func (m *Market) loadListings(ctx context.Context) ([]models.FleetListing, error) {
	var listings []models.FleetListing
	if _, err := store.ReadJSON(ctx, m.scopes.Persistent, store.KeyListings, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}
