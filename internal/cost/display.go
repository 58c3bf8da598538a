package cost

import (
	"flowpilot/internal/models"
)

// Display is the rendered identity of a strategy tag.
type Display struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

var defaultDisplay = Display{
	Label:       "Simple Agent",
	Description: "Automatically compounds rewards in the current farm",
	Emoji:       "🔄",
}

var displays = map[string]Display{
	models.TagHighestAPY: {
		Label:       "Smart Agent",
		Description: "Automatically finds and moves to the farm with the highest APY",
		Emoji:       "🧠",
	},
	models.TagAutoCompound5PFarm1: {
		Label:       "Simple Agent (10% APY)",
		Description: "Auto-Compound only",
		Emoji:       "🌱",
	},
	models.TagAutoCompound5PFarm2: {
		Label:       "Premium Simple Agent (15% APY)",
		Description: "Auto-Compound and Split",
		Emoji:       "💎",
	},
	models.TagAutoCompound5P: {
		Label:       "Simple Agent (5% APY)",
		Description: "Auto-Compound only",
		Emoji:       "🛡️",
	},
	models.TagAutoCompound15P: {
		Label:       "Simple Agent (5% APY)",
		Description: "Automatically compounds rewards in the current farm",
		Emoji:       "🛡️",
	},
}

// DisplayFor returns the display mapping for a strategy tag, with a
// "Simple Agent" fallback for unrecognized tags.
func DisplayFor(tag string) Display {
	if d, ok := displays[tag]; ok {
		return d
	}
	return defaultDisplay
}

// Farm describes the farm a tag's agent works, as shown on the agent
// detail page.
type Farm struct {
	Name            string `json:"name"`
	APY             string `json:"apy"`
	DailyRate       string `json:"dailyRate"`
	CompoundEvery   string `json:"compoundEvery"`
	RiskLevel       string `json:"riskLevel"`
	VolatilityScore string `json:"volatilityScore"`
}

var defaultFarm = Farm{
	Name:            "Farm 1 (5% APY)",
	APY:             "5.5%",
	DailyRate:       "+0.5%",
	CompoundEvery:   "12h",
	RiskLevel:       models.RiskHigh,
	VolatilityScore: "7.8",
}

var farms = map[string]Farm{
	models.TagAutoCompound5PFarm1: {
		Name:            "Farm 2 (10% APY)",
		APY:             "10.8%",
		DailyRate:       "+0.8%",
		CompoundEvery:   "6h",
		RiskLevel:       models.RiskLow,
		VolatilityScore: "2.1",
	},
	models.TagAutoCompound5PFarm2: {
		Name:            "Farm 3 (15% APY)",
		APY:             "15.2%",
		DailyRate:       "+1.2%",
		CompoundEvery:   "8h",
		RiskLevel:       models.RiskMedium,
		VolatilityScore: "5.4",
	},
	models.TagAutoCompound5P: defaultFarm,
}

// FarmFor returns the farm profile for a strategy tag.
func FarmFor(tag string) Farm {
	if f, ok := farms[tag]; ok {
		return f
	}
	return defaultFarm
}
