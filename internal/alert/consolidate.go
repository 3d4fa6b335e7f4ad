package alert

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/dense-analysis/stockwarp/internal/model"
)

// Consolidate computes the entry set that survives deleting deleteIDs from
// rows, in row-then-position order, plus the ids of every non-canonical row.
//
// Rows must be sorted newest-first; rows[0] is the canonical row. A row
// whose own id is being deleted contributes nothing regardless of shape.
// Kept entries are re-normalized, and entries left with an empty symbol are
// dropped so corrupt data cannot be resurrected.
func Consolidate(rows []model.AlertRow, deleteIDs map[string]bool) ([]model.AlertEntry, []string) {
	kept := make([]model.AlertEntry, 0, len(rows))
	staleRowIDs := make([]string, 0, len(rows))

	for i := range rows {
		row := &rows[i]

		if i > 0 {
			staleRowIDs = append(staleRowIDs, row.ID)
		}

		if deleteIDs[row.ID] {
			continue
		}

		entries, _ := DecodeRow(row)

		for index := range entries {
			entry := entries[index]

			if deleteIDs[EntryID(row.ID, &entry, index)] {
				continue
			}

			entry.Symbol = NormalizeSymbol(entry.Symbol)

			if entry.Symbol == "" {
				continue
			}

			kept = append(kept, entry)
		}
	}

	return kept, staleRowIDs
}

// DeleteAlerts removes the given entry ids from a user's alerts and packs
// everything that survives into the single newest row.
//
// This is also how a user's data migrates from the legacy one-row-per-alert
// shape to the consolidated shape: every delete, even with no ids, rewrites
// the user's entire alert set into the canonical row and clears out the
// rest. There is no transaction across the store calls; the canonical
// rewrite always lands before any stale row is removed, so a failure
// partway through duplicates entries rather than losing them.
func DeleteAlerts(ctx context.Context, store Store, userID int, ids []string) error {
	rows, err := store.QueryRows(ctx, userID)

	if err != nil {
		return err
	}

	if len(rows) == 0 {
		return nil
	}

	SortRows(rows)

	deleteIDs := make(map[string]bool, len(ids))

	for _, id := range ids {
		deleteIDs[id] = true
	}

	kept, staleRowIDs := Consolidate(rows, deleteIDs)
	data, err := json.Marshal(kept)

	if err != nil {
		return err
	}

	// Clearing symbol keeps an emptied legacy row from decoding back into
	// an alert once its data field holds an empty array.
	fields := map[string]any{
		"data":   string(data),
		"symbol": "",
	}

	if err := store.UpdateRow(ctx, rows[0].ID, fields); err != nil {
		return err
	}

	for _, rowID := range staleRowIDs {
		if err := store.DeleteRow(ctx, rowID); err != nil {
			// Best-effort cleanup: the canonical row already holds every
			// surviving entry, so a straggler only duplicates them until
			// the next delete pass.
			zap.L().Warn(
				"stale alert row cleanup failed",
				zap.String("rowID", rowID),
				zap.Error(err),
			)
		}
	}

	return nil
}
