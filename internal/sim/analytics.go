package sim

import (
	"fmt"
	"math/rand"
	"time"
)

// Timeframe selects how much history the analytics report covers.
type Timeframe string

const (
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe90d Timeframe = "90d"
)

// Valid reports whether t is a recognized timeframe.
func (t Timeframe) Valid() bool {
	switch t {
	case Timeframe7d, Timeframe30d, Timeframe90d:
		return true
	}
	return false
}

// AgentPerformance is per-agent synthetic performance over a timeframe.
type AgentPerformance struct {
	ID           string  `json:"id"`
	StrategyType string  `json:"strategyType"`
	TotalProfit  float64 `json:"totalProfit"`
	SuccessRate  float64 `json:"successRate"`
	Transactions int     `json:"transactions"`
	Efficiency   float64 `json:"efficiency"`
	LastActivity string  `json:"lastActivity"`
}

// TimeSeriesPoint is one day of fleet activity.
type TimeSeriesPoint struct {
	Date         string  `json:"date"`
	Profit       float64 `json:"profit"`
	Transactions int     `json:"transactions"`
	ActiveAgents int     `json:"activeAgents"`
}

// MarketConditions is the randomized market snapshot on the report.
type MarketConditions struct {
	ActiveStrategies int    `json:"activeStrategies"`
	Sentiment        string `json:"sentiment"`
	Volatility       string `json:"volatility"`
}

// Report bundles everything the analytics view renders.
type Report struct {
	Timeframe Timeframe          `json:"timeframe"`
	Agents    []AgentPerformance `json:"agents"`
	Series    []TimeSeriesPoint  `json:"series"`
	Market    MarketConditions   `json:"market"`
}

var strategyRotation = []string{
	"HighestAPY",
	"AutoCompoundOnly5P-Farm1",
	"AutoCompoundOnly5P-Farm2",
	"AutoCompoundSplit-Farm2",
}

var (
	sentiments  = []string{"Bullish", "Bearish", "Neutral"}
	volatilties = []string{"Low", "Medium", "High"}
)

// Analytics generates a report for agentCount agents over the given
// timeframe. Deterministic for a fixed seed and reference time.
func Analytics(seed int64, tf Timeframe, agentCount int, now time.Time) Report {
	var days int
	var profitMult, txMult float64
	var seriesProfit, seriesTx, seriesAgents float64
	switch tf {
	case Timeframe7d:
		days, profitMult, txMult = 7, 0.2, 0.3
		seriesProfit, seriesTx, seriesAgents = 0.2, 0.3, 0.75
	case Timeframe90d:
		days, profitMult, txMult = 90, 2.7, 2.7
		seriesProfit, seriesTx, seriesAgents = 1.8, 1.5, 1.2
	default:
		tf = Timeframe30d
		days, profitMult, txMult = 30, 1, 1
		seriesProfit, seriesTx, seriesAgents = 1, 1, 1
	}

	rng := rand.New(rand.NewSource(seed))

	agents := make([]AgentPerformance, agentCount)
	for i := range agents {
		agents[i] = AgentPerformance{
			ID:           fmt.Sprintf("Agent-%d", i+1),
			StrategyType: strategyRotation[i%len(strategyRotation)],
			TotalProfit:  (rng.Float64()*80 + 15) * profitMult,
			SuccessRate:  rng.Float64()*10 + 90,
			Transactions: int((rng.Float64()*25 + 8) * txMult),
			Efficiency:   rng.Float64()*15 + 85,
			LastActivity: now.Add(-time.Duration(rng.Intn(7*24)) * time.Hour).
				UTC().Format(time.RFC3339),
		}
	}

	series := make([]TimeSeriesPoint, days)
	for i := range series {
		series[i] = TimeSeriesPoint{
			Date:         now.AddDate(0, 0, -(days - 1 - i)).UTC().Format("2006-01-02"),
			Profit:       (rng.Float64()*15 + 5) * seriesProfit,
			Transactions: int((rng.Float64()*8 + 3) * seriesTx),
			ActiveAgents: int((rng.Float64()*3 + 6) * seriesAgents),
		}
	}

	return Report{
		Timeframe: tf,
		Agents:    agents,
		Series:    series,
		Market: MarketConditions{
			ActiveStrategies: rng.Intn(15) + 5,
			Sentiment:        sentiments[rng.Intn(len(sentiments))],
			Volatility:       volatilties[rng.Intn(len(volatilties))],
		},
	}
}
