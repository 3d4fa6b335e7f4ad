// Package alert implements the price-alert record set: decoding the two
// stored row shapes, addressing individual entries, and the operations
// that rewrite them.
package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dense-analysis/stockwarp/internal/model"
)

// NoteLimit is the maximum stored note length, in characters.
const NoteLimit = 500

// NormalizeSymbol trims and uppercases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ClampNote truncates a note to NoteLimit characters.
func ClampNote(note string) string {
	runes := []rune(note)

	if len(runes) > NoteLimit {
		return string(runes[:NoteLimit])
	}

	return note
}

// EntryID resolves the identifier for an entry at the given position in a
// row. Entries without a persisted id get "{rowID}:{index}", recomputed on
// every read and never stored, so it is only stable while the row's entry
// order is.
func EntryID(rowID string, entry *model.AlertEntry, index int) string {
	if entry.ID != "" {
		return entry.ID
	}

	return fmt.Sprintf("%s:%d", rowID, index)
}

// DecodeRow converts a stored row into its logical entries.
//
// A row is consolidated when its data field decodes to a non-empty array
// of objects; every object becomes one entry. Anything else falls back to
// the legacy shape, where the row itself is a single alert, provided its
// symbol normalizes to something non-empty.
//
// The second return value reports whether the row decoded as consolidated.
func DecodeRow(row *model.AlertRow) ([]model.AlertEntry, bool) {
	if entries, ok := decodeConsolidated(row.Data); ok {
		return entries, true
	}

	symbol := NormalizeSymbol(row.Symbol)

	if symbol == "" {
		return nil, false
	}

	entry := model.AlertEntry{
		// A legacy row's single entry is identified by the row's own id.
		ID:               row.ID,
		Symbol:           symbol,
		Name:             row.Name,
		AssetType:        normalizeAssetType(row.AssetType),
		TargetPrice:      row.TargetPrice,
		PriceWhenCreated: row.PriceWhenCreated,
		Condition:        normalizeCondition(row.Condition),
		Note:             row.Note,
		Triggered:        row.Triggered,
	}

	return []model.AlertEntry{entry}, false
}

func decodeConsolidated(data json.RawMessage) ([]model.AlertEntry, bool) {
	raw, ok := decodeLoose(data)

	if !ok {
		return nil, false
	}

	// Tolerate payloads double-encoded as a JSON string.
	if text, isString := raw.(string); isString {
		raw, ok = decodeLoose([]byte(text))

		if !ok {
			return nil, false
		}
	}

	list, isList := raw.([]any)

	if !isList || len(list) == 0 {
		return nil, false
	}

	entries := make([]model.AlertEntry, 0, len(list))

	for _, element := range list {
		object, isObject := element.(map[string]any)

		if !isObject {
			return nil, false
		}

		entries = append(entries, entryFromObject(object))
	}

	return entries, true
}

func decodeLoose(data []byte) (any, bool) {
	if len(data) == 0 {
		return nil, false
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any

	// Decode errors count as "no payload".
	if err := decoder.Decode(&raw); err != nil {
		return nil, false
	}

	return raw, true
}

func entryFromObject(object map[string]any) model.AlertEntry {
	return model.AlertEntry{
		ID:               stringValue(object["id"]),
		Symbol:           NormalizeSymbol(stringField(object, "symbol")),
		Name:             stringField(object, "name"),
		AssetType:        normalizeAssetType(stringField(object, "assetType", "asset_type")),
		TargetPrice:      priceField(object, "targetPrice", "target_price"),
		PriceWhenCreated: priceField(object, "priceWhenCreated", "price_when_created"),
		Condition:        normalizeCondition(stringField(object, "condition")),
		Note:             stringField(object, "note"),
		Triggered:        CoerceBool(object["triggered"]),
	}
}

func normalizeAssetType(assetType string) string {
	assetType = strings.ToLower(strings.TrimSpace(assetType))

	if assetType == "" {
		return "stock"
	}

	return assetType
}

func normalizeCondition(condition string) string {
	condition = strings.ToLower(strings.TrimSpace(condition))

	if condition == "" {
		return "above"
	}

	return condition
}

func stringField(object map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, present := object[key]; present {
			return stringValue(value)
		}
	}

	return ""
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return ""
	}
}

func priceField(object map[string]any, keys ...string) *model.Price {
	for _, key := range keys {
		if value, present := object[key]; present {
			return priceValue(value)
		}
	}

	return nil
}

func priceValue(value any) *model.Price {
	switch v := value.(type) {
	case json.Number:
		if parsed, err := decimal.NewFromString(v.String()); err == nil {
			return model.NewPrice(parsed)
		}
	case float64:
		return model.PriceFromFloat(v)
	case string:
		if parsed, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return model.NewPrice(parsed)
		}
	}

	return nil
}

// CoerceBool converts a loosely-typed triggered flag to a bool.
//
// Unrecognized non-empty strings and other non-null values coerce to true,
// matching the loose truthiness the stored payloads were written under.
// Stored rows rely on it; do not tighten without checking them first.
func CoerceBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case json.Number:
		parsed, err := v.Float64()

		return err == nil && parsed != 0
	case string:
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off", "":
			return false
		}

		return true
	default:
		return true
	}
}
