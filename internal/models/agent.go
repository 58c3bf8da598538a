package models

import (
	"github.com/shopspring/decimal"
)

// Strategy tags. The tag stamped on an agent at mint time fixes its cost
// and display identity; the editable StrategyConfig below does not.
const (
	TagHighestAPY          = "HighestAPY"
	TagRiskAdjustedYield   = "RiskAdjustedYield"
	TagAutoCompound5P      = "AutoCompoundOnly5P"
	TagAutoCompound5PFarm1 = "AutoCompoundOnly5P-Farm1"
	TagAutoCompound5PFarm2 = "AutoCompoundOnly5P-Farm2"
	TagAutoCompound15P     = "AutoCompoundOnly15P"
)

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

const (
	StatusActive = "Active"
	StatusPaused = "Paused"
)

// StrategyConfig is the user-editable part of an agent. Its StrategyType
// may be retuned after mint; the Agent.Type tag that drives pricing stays
// fixed.
type StrategyConfig struct {
	StrategyType      string          `json:"strategyType"`
	RiskTolerance     string          `json:"riskTolerance"`
	AllocationPercent decimal.Decimal `json:"allocationPercent"`
	TimeLockDays      uint64          `json:"timeLockDays"`
}

// Agent is one minted automation agent. IDs are ordinals in the owning
// session's mint order, so they are only unique within that session.
type Agent struct {
	ID        int             `json:"id"`
	Type      string          `json:"type"`
	Cost      decimal.Decimal `json:"cost"`
	Strategy  StrategyConfig  `json:"strategy"`
	Timestamp int64           `json:"timestamp"`
}

// AgentDetail joins an Agent with everything a consumer renders: the
// display mapping, paused status, and the farm the agent works.
type AgentDetail struct {
	Agent
	Label       string `json:"label"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Status      string `json:"status"`
	Farm        string `json:"farm,omitempty"`
}
