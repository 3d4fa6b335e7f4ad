package alert

import (
	"sort"

	"github.com/dense-analysis/stockwarp/internal/model"
)

// Location identifies one entry inside one owning row.
type Location struct {
	Row *model.AlertRow
	// Entries holds the row's full decoded entry set, in stored order.
	Entries      []model.AlertEntry
	Index        int
	Consolidated bool
}

// Entry returns the located entry.
func (location *Location) Entry() *model.AlertEntry {
	return &location.Entries[location.Index]
}

// SortRows orders rows newest-first by their updated timestamp. Every
// operation works on rows in this order; it decides which row is canonical
// and which duplicate wins if ids ever collide across rows.
func SortRows(rows []model.AlertRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Updated.After(rows[j].Updated)
	})
}

// Locate scans rows in the order supplied and returns the first entry whose
// resolved id matches targetID. A row that decodes as a single legacy entry
// also matches on the row's own id.
func Locate(rows []model.AlertRow, targetID string) (Location, bool) {
	for i := range rows {
		row := &rows[i]
		entries, consolidated := DecodeRow(row)

		for index := range entries {
			if EntryID(row.ID, &entries[index], index) == targetID {
				return Location{row, entries, index, consolidated}, true
			}
		}

		if !consolidated && len(entries) == 1 && row.ID == targetID {
			return Location{row, entries, 0, false}, true
		}
	}

	return Location{}, false
}
