package market

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"flowpilot/internal/models"
	"flowpilot/internal/store"
)

// DefaultSeedCount matches the number of synthetic fleets the market
// starts with.
const DefaultSeedCount = 16

var rarities = []string{
	models.RarityCommon,
	models.RarityRare,
	models.RarityEpic,
	models.RarityLegendary,
}

var basePrices = map[string]int64{
	models.RarityCommon:    1000,
	models.RarityRare:      5000,
	models.RarityEpic:      15000,
	models.RarityLegendary: 50000,
}

var seedTags = []string{
	"DeFi", "Yield Farming", "Auto-Compound", "High APY", "Low Risk",
	"Smart Strategy", "Multi-Chain", "Staking", "Liquidity", "Arbitrage",
}

// SyntheticListings generates third-party "Genesis Fleet" listings.
// Deterministic for a fixed seed.
func SyntheticListings(seed int64, count int) []models.FleetListing {
	rng := rand.New(rand.NewSource(seed))
	listings := make([]models.FleetListing, count)
	for i := range listings {
		rarity := rarities[rng.Intn(len(rarities))]
		base := basePrices[rarity]
		price := decimal.NewFromInt(base).Add(
			decimal.NewFromFloat(rng.Float64() * float64(base) * 0.5).Round(2))

		tagCount := rng.Intn(3) + 2
		tags := make([]string, tagCount)
		copy(tags, seedTags[:tagCount])

		listings[i] = models.FleetListing{
			ID:          fmt.Sprintf("fleet-nft-%d", i+1),
			Name:        fmt.Sprintf("Genesis Fleet %d", i+1),
			Description: "Established fleet from a third-party operator",
			Price:       price,
			Seller:      fmt.Sprintf("0x%08x", rng.Uint32()),
			TotalAgents: rng.Intn(100) + 10,
			Rarity:      rarity,
			Tags:        tags,
			ListedAt:    "2024-01-01T00:00:00Z",
		}
	}
	return listings
}

// SeedListings populates the shared collection with synthetic sellers
// when it is empty. A collection that already has listings is left
// alone, so re-opening a session never duplicates the seed.
func (m *Market) SeedListings(ctx context.Context, seed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.loadListings(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return store.WriteJSON(ctx, m.scopes.Persistent, store.KeyListings,
		SyntheticListings(seed, DefaultSeedCount))
}
