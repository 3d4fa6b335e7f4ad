package alert

import (
	"context"
	"sort"

	"github.com/dense-analysis/stockwarp/internal/model"
)

// ListEntries returns every entry across all of a user's rows, sorted by
// symbol ascending, with each entry's id resolved for addressing.
func ListEntries(ctx context.Context, store Store, userID int) ([]model.AlertEntry, error) {
	rows, err := store.QueryRows(ctx, userID)

	if err != nil {
		return nil, err
	}

	SortRows(rows)
	entries := make([]model.AlertEntry, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		decoded, _ := DecodeRow(row)

		for index := range decoded {
			entry := decoded[index]
			entry.ID = EntryID(row.ID, &entry, index)
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Symbol < entries[j].Symbol
	})

	return entries, nil
}
