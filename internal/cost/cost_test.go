package cost

import (
	"testing"

	"github.com/shopspring/decimal"

	"flowpilot/internal/models"
)

func TestCostTable(t *testing.T) {
	cases := map[string]int64{
		models.TagHighestAPY:          200,
		models.TagRiskAdjustedYield:   200,
		models.TagAutoCompound5PFarm2: 150,
		models.TagAutoCompound5PFarm1: 100,
		models.TagAutoCompound5P:      50,
		models.TagAutoCompound15P:     8,
	}
	for tag, want := range cases {
		if got := Cost(tag); !got.Equal(decimal.NewFromInt(want)) {
			t.Errorf("Cost(%s) = %s, want %d", tag, got, want)
		}
	}
}

func TestCostUnknownTagDefaults(t *testing.T) {
	if got := Cost("SomeFutureStrategy"); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unknown tag cost = %s, want 50", got)
	}
	if got := Cost(""); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("empty tag cost = %s, want 50", got)
	}
}

func TestDisplayForKnownTags(t *testing.T) {
	d := DisplayFor(models.TagHighestAPY)
	if d.Label != "Smart Agent" || d.Emoji != "🧠" {
		t.Fatalf("unexpected HighestAPY display: %+v", d)
	}
	d = DisplayFor(models.TagAutoCompound5PFarm2)
	if d.Label != "Premium Simple Agent (15% APY)" {
		t.Fatalf("unexpected Farm2 display: %+v", d)
	}
}

func TestDisplayForUnknownTagFallsBack(t *testing.T) {
	d := DisplayFor("nope")
	if d.Label != "Simple Agent" || d.Emoji != "🔄" {
		t.Fatalf("unexpected fallback display: %+v", d)
	}
	// RiskAdjustedYield has no dedicated display entry; it renders as the
	// fallback even though it prices at the premium tier.
	if got := DisplayFor(models.TagRiskAdjustedYield); got != d {
		t.Fatalf("RiskAdjustedYield display = %+v, want fallback", got)
	}
}

func TestFarmForTags(t *testing.T) {
	if f := FarmFor(models.TagAutoCompound5PFarm1); f.Name != "Farm 2 (10% APY)" || f.RiskLevel != models.RiskLow {
		t.Fatalf("unexpected Farm1 profile: %+v", f)
	}
	if f := FarmFor("unknown"); f.Name != "Farm 1 (5% APY)" {
		t.Fatalf("unexpected fallback farm: %+v", f)
	}
}
