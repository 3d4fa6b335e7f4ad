package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the database
type User struct {
	ID       int
	Username string
}

// Price is a decimal price value that marshals as a bare JSON number.
//
// Stored alert payloads carry prices as numbers, sometimes quoted as
// strings. The embedded Decimal already tolerates both on decode.
type Price struct {
	decimal.Decimal
}

func NewPrice(value decimal.Decimal) *Price {
	return &Price{value}
}

func PriceFromFloat(value float64) *Price {
	return &Price{decimal.NewFromFloat(value)}
}

func (price Price) MarshalJSON() ([]byte, error) {
	return []byte(price.Decimal.String()), nil
}

// AlertEntry represents one logical price alert, regardless of which row
// shape stores it.
type AlertEntry struct {
	ID               string `json:"id,omitempty"`
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	AssetType        string `json:"assetType"`
	TargetPrice      *Price `json:"targetPrice"`
	PriceWhenCreated *Price `json:"priceWhenCreated"`
	Condition        string `json:"condition"`
	Note             string `json:"note"`
	Triggered        bool   `json:"triggered"`
}

// AlertRow represents one unit of persistence in the record store.
//
// A row either packs many entries into Data as a JSON array, or it is a
// single legacy alert stored flat on the row itself.
type AlertRow struct {
	ID      string
	UserID  int
	Updated time.Time

	// Data holds the consolidated payload, possibly double-encoded as a
	// JSON string. Empty for legacy rows.
	Data json.RawMessage

	Symbol           string
	Name             string
	AssetType        string
	TargetPrice      *Price
	PriceWhenCreated *Price
	Condition        string
	Note             string
	Triggered        bool
}
