package models

import (
	"github.com/shopspring/decimal"
)

const (
	RarityCommon    = "Common"
	RarityRare      = "Rare"
	RarityEpic      = "Epic"
	RarityLegendary = "Legendary"
)

// SellerYou marks listings owned by the active session. There is no
// identity system beyond this tag.
const SellerYou = "You"

// FleetAgent is the read-only agent snapshot captured inside a listing.
type FleetAgent struct {
	ID       int             `json:"id"`
	Type     string          `json:"type"`
	Strategy string          `json:"strategy"`
	Cost     decimal.Decimal `json:"cost"`
}

// FleetListing is a priced bundle of agents offered on the marketplace.
// Listings with Seller == SellerYou snapshot the session's own ledger;
// everything else comes from synthetic sellers.
type FleetListing struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Seller      string          `json:"seller"`
	Agents      []FleetAgent    `json:"agents"`
	TotalAgents int             `json:"totalAgents"`
	Rarity      string          `json:"rarity"`
	Tags        []string        `json:"tags"`
	ListedAt    string          `json:"listedAt"`
}

// PurchasedFleet is a listing copied into the buyer's bought collection.
// Buying a fleet does not move its agents into the buyer's ledger; the
// two collections are deliberately disjoint.
type PurchasedFleet struct {
	FleetListing
	PurchaseDate  string          `json:"purchaseDate"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
}
