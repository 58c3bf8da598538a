// Package sim holds the seeded simulators behind the leaderboard and
// analytics views. Output is synthetic display data: deterministic for a
// fixed seed, float-valued, and independent of the agent ledger.
package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// DefaultFleetCount is how many fleets the leaderboard ranks.
const DefaultFleetCount = 50

var badges = []string{"Gold", "Silver", "Bronze", "Elite", "Rising"}

// FleetPerformance is one ranked row on the leaderboard.
type FleetPerformance struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Owner           string  `json:"owner"`
	TotalAgents     int     `json:"totalAgents"`
	SuccessRate     float64 `json:"successRate"`
	TotalMissions   int     `json:"totalMissions"`
	EfficiencyScore float64 `json:"efficiencyScore"`
	TotalProfit     float64 `json:"totalProfit"`
	Rank            int     `json:"rank"`
	Badge           string  `json:"badge"`
	LastActivity    string  `json:"lastActivity"`
}

// Score is the weighted overall ranking metric.
func Score(f FleetPerformance) float64 {
	return f.SuccessRate*0.3 +
		f.EfficiencyScore*0.3 +
		float64(f.TotalMissions)/100*0.2 +
		f.TotalProfit/10000*0.2
}

// Leaderboard generates count fleets and ranks them by weighted score,
// best first. Deterministic for a fixed seed and reference time.
func Leaderboard(seed int64, count int, now time.Time) []FleetPerformance {
	rng := rand.New(rand.NewSource(seed))
	fleets := make([]FleetPerformance, count)
	for i := range fleets {
		fleets[i] = FleetPerformance{
			ID:              fmt.Sprintf("fleet-%d", i+1),
			Name:            fmt.Sprintf("DeFi Fleet %d", i+1),
			Owner:           fmt.Sprintf("0x%08x", rng.Uint32()),
			TotalAgents:     rng.Intn(20) + 5,
			SuccessRate:     rng.Float64()*30 + 70,
			TotalMissions:   rng.Intn(5000) + 100,
			EfficiencyScore: rng.Float64()*20 + 80,
			TotalProfit:     rng.Float64()*100000 + 10000,
			Badge:           badges[rng.Intn(len(badges))],
			LastActivity: now.Add(-time.Duration(rng.Intn(7*24)) * time.Hour).
				UTC().Format(time.RFC3339),
		}
	}

	sort.SliceStable(fleets, func(i, j int) bool {
		return Score(fleets[i]) > Score(fleets[j])
	})
	for i := range fleets {
		fleets[i].Rank = i + 1
	}
	return fleets
}
