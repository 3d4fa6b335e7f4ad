package alert

import (
	"context"
	"encoding/json"
)

// GetNote returns the note text for the entry with the given id, or
// found=false when no row or entry of the user's matches.
func GetNote(ctx context.Context, store Store, userID int, targetID string) (string, bool, error) {
	rows, err := store.QueryRows(ctx, userID)

	if err != nil {
		return "", false, err
	}

	SortRows(rows)
	location, found := Locate(rows, targetID)

	if !found {
		return "", false, nil
	}

	return location.Entry().Note, true, nil
}

// SetNote replaces the note on the entry with the given id, clamped to
// NoteLimit characters.
//
// Unlike delete, this never consolidates: a legacy row keeps its flat note
// field, and a consolidated row's data array is rewritten with the same
// length and order, only the one note changed. No other row is touched.
func SetNote(ctx context.Context, store Store, userID int, targetID string, note string) (bool, error) {
	note = ClampNote(note)
	rows, err := store.QueryRows(ctx, userID)

	if err != nil {
		return false, err
	}

	SortRows(rows)
	location, found := Locate(rows, targetID)

	if !found {
		return false, nil
	}

	if !location.Consolidated {
		if err := store.UpdateRow(ctx, location.Row.ID, map[string]any{"note": note}); err != nil {
			return false, err
		}

		return true, nil
	}

	location.Entry().Note = note
	data, err := json.Marshal(location.Entries)

	if err != nil {
		return false, err
	}

	if err := store.UpdateRow(ctx, location.Row.ID, map[string]any{"data": string(data)}); err != nil {
		return false, err
	}

	return true, nil
}
