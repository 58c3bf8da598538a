// Package cost is the single pricing and display table for strategy tags.
// Every balance, valuation, and rendering path goes through here; the
// tables must not be duplicated at call sites.
package cost

import (
	"github.com/shopspring/decimal"

	"flowpilot/internal/models"
)

// DefaultCost is charged for tags the table does not know. Unknown tags
// price rather than fail so forward-compatible tags keep working.
var DefaultCost = decimal.NewFromInt(50)

var costs = map[string]decimal.Decimal{
	models.TagHighestAPY:          decimal.NewFromInt(200),
	models.TagRiskAdjustedYield:   decimal.NewFromInt(200),
	models.TagAutoCompound5PFarm2: decimal.NewFromInt(150),
	models.TagAutoCompound5PFarm1: decimal.NewFromInt(100),
	models.TagAutoCompound5P:      decimal.NewFromInt(50),
	models.TagAutoCompound15P:     decimal.NewFromInt(8),
}

// Cost returns the fixed USDC mint cost for a strategy tag.
func Cost(tag string) decimal.Decimal {
	if c, ok := costs[tag]; ok {
		return c
	}
	return DefaultCost
}

// PortfolioMarkup is applied to summed mint costs when valuing a fleet.
var PortfolioMarkup = decimal.NewFromFloat(1.3)

// ListingPremium is applied on top of portfolio value when suggesting a
// sale price.
var ListingPremium = decimal.NewFromFloat(1.15)

// ProfitFactor approximates lifetime profit as a share of mint cost.
var ProfitFactor = decimal.NewFromFloat(0.5)
