package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dense-analysis/stockwarp/internal/model"
)

func entriesForUser(t *testing.T, store *FakeStore, userID int) []model.AlertEntry {
	t.Helper()

	entries, err := ListEntries(context.Background(), store, userID)
	require.NoError(t, err)

	return entries
}

func symbols(entries []model.AlertEntry) []string {
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		names = append(names, entry.Symbol)
	}

	return names
}

func TestConsolidatePreservesRowThenPositionOrder(t *testing.T) {
	base := time.Now()
	rows := []model.AlertRow{
		consolidatedRow("row1", 1, base, `[
			{"id": "a1", "symbol": "AAPL"},
			{"id": "b1", "symbol": "MSFT"},
			{"id": "c1", "symbol": "GOOG"}
		]`),
		legacyRow("row2", 1, "TSLA", base.Add(-time.Hour)),
	}

	kept, staleRowIDs := Consolidate(rows, map[string]bool{})

	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG", "TSLA"}, symbols(kept))
	assert.Equal(t, []string{"row2"}, staleRowIDs)
}

func TestConsolidateSelectiveDelete(t *testing.T) {
	rows := []model.AlertRow{
		consolidatedRow("row1", 1, time.Now(), `[
			{"id": "a1", "symbol": "AAPL"},
			{"id": "b1", "symbol": "MSFT"},
			{"id": "c1", "symbol": "GOOG"}
		]`),
	}

	kept, _ := Consolidate(rows, map[string]bool{"b1": true})

	assert.Equal(t, []string{"AAPL", "GOOG"}, symbols(kept))
	assert.Equal(t, "a1", kept[0].ID)
	assert.Equal(t, "c1", kept[1].ID)
}

func TestConsolidateDeletesByFallbackID(t *testing.T) {
	rows := []model.AlertRow{
		consolidatedRow("row1", 1, time.Now(), `[
			{"symbol": "AAPL"},
			{"symbol": "MSFT"}
		]`),
	}

	kept, _ := Consolidate(rows, map[string]bool{"row1:0": true})

	assert.Equal(t, []string{"MSFT"}, symbols(kept))
}

func TestConsolidateWholeRowDelete(t *testing.T) {
	base := time.Now()
	rows := []model.AlertRow{
		consolidatedRow("row1", 1, base, `[{"id": "a1", "symbol": "AAPL"}]`),
		consolidatedRow("row2", 1, base.Add(-time.Hour), `[
			{"symbol": "MSFT"},
			{"symbol": "GOOG"}
		]`),
	}

	kept, staleRowIDs := Consolidate(rows, map[string]bool{"row2": true})

	assert.Equal(t, []string{"AAPL"}, symbols(kept))
	assert.Equal(t, []string{"row2"}, staleRowIDs)
}

func TestConsolidateDropsEntriesWithEmptySymbols(t *testing.T) {
	rows := []model.AlertRow{
		consolidatedRow("row1", 1, time.Now(), `[
			{"id": "a1", "symbol": "AAPL"},
			{"id": "bad", "symbol": "   "},
			{"id": "c1", "symbol": "GOOG"}
		]`),
	}

	kept, _ := Consolidate(rows, map[string]bool{})

	assert.Equal(t, []string{"AAPL", "GOOG"}, symbols(kept))
}

func TestDeleteMigratesLegacyRows(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("rowY", 1, "MSFT", base.Add(-time.Hour)),
			legacyRow("rowX", 1, "AAPL", base),
		},
	}

	require.NoError(t, DeleteAlerts(ctx, store, 1, nil))

	require.Len(t, store.RowList, 1)
	row := store.Row("rowX")
	require.NotNil(t, row, "the newest row survives as the canonical row")
	assert.Nil(t, store.Row("rowY"))

	entries, consolidated := DecodeRow(row)
	require.True(t, consolidated, "the canonical row is consolidated after a delete")
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols(entries))
	assert.Equal(t, "rowX", entries[0].ID, "migrated entries keep their row ids")
	assert.Equal(t, "rowY", entries[1].ID)
}

func TestDeleteWithEmptyIDSetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("rowA", 1, "AAPL", base),
			consolidatedRow("rowB", 1, base.Add(-time.Hour), `[
				{"id": "m1", "symbol": "MSFT"}
			]`),
		},
	}

	require.NoError(t, DeleteAlerts(ctx, store, 1, nil))

	require.Len(t, store.RowList, 1)
	firstPass := entriesForUser(t, store, 1)

	require.NoError(t, DeleteAlerts(ctx, store, 1, nil))

	require.Len(t, store.RowList, 1)
	assert.Equal(t, firstPass, entriesForUser(t, store, 1))
}

func TestDeleteWholeLegacyRowByID(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			consolidatedRow("row1", 1, base, `[
				{"id": "a1", "symbol": "AAPL"},
				{"id": "b1", "symbol": "MSFT"}
			]`),
			legacyRow("rowZ", 1, "GOOG", base.Add(-time.Hour)),
		},
	}

	require.NoError(t, DeleteAlerts(ctx, store, 1, []string{"rowZ"}))

	assert.Nil(t, store.Row("rowZ"))
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols(entriesForUser(t, store, 1)))
}

func TestDeleteEmptiedCanonicalRowStaysEmpty(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("row1", 1, "AAPL", time.Now()),
		},
	}

	require.NoError(t, DeleteAlerts(ctx, store, 1, []string{"row1"}))

	// The canonical row is rewritten, never physically deleted.
	require.Len(t, store.RowList, 1)
	require.NotNil(t, store.Row("row1"))
	assert.Empty(t, entriesForUser(t, store, 1), "the cleared legacy fields must not decode back into an alert")
}

func TestDeleteRewritesCanonicalRowBeforeCleanup(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("rowX", 1, "AAPL", base),
			legacyRow("rowY", 1, "MSFT", base.Add(-time.Hour)),
			legacyRow("rowZ", 1, "GOOG", base.Add(-2*time.Hour)),
		},
	}

	require.NoError(t, DeleteAlerts(ctx, store, 1, nil))

	require.Len(t, store.Journal, 3)
	assert.Equal(t, "update rowX", store.Journal[0], "the canonical rewrite must land before any stale row is removed")
	assert.ElementsMatch(t, []string{"delete rowY", "delete rowZ"}, store.Journal[1:])
}

func TestDeleteCleanupFailureDuplicatesInsteadOfLosing(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("rowX", 1, "AAPL", base),
			legacyRow("rowY", 1, "MSFT", base.Add(-time.Hour)),
		},
		DeleteFailures: map[string]error{
			"rowY": errors.New("store unavailable"),
		},
	}

	// The per-row cleanup failure is swallowed.
	require.NoError(t, DeleteAlerts(ctx, store, 1, nil))

	// rowY survived, so MSFT now exists twice: once in the canonical row
	// and once in the straggler. Duplication, not loss.
	require.Len(t, store.RowList, 2)
	assert.Equal(t, []string{"AAPL", "MSFT", "MSFT"}, symbols(entriesForUser(t, store, 1)))
}

func TestDeleteFailedRewriteStopsBeforeCleanup(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("rowX", 1, "AAPL", base),
			legacyRow("rowY", 1, "MSFT", base.Add(-time.Hour)),
		},
		UpdateFailure: errors.New("store unavailable"),
	}

	require.Error(t, DeleteAlerts(ctx, store, 1, nil))

	require.Len(t, store.RowList, 2, "no rows may be removed when the rewrite failed")
	assert.Equal(t, []string{"update rowX"}, store.Journal)
}

func TestDeleteWithNoRowsIsANoOp(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{}

	require.NoError(t, DeleteAlerts(ctx, store, 1, []string{"anything"}))
	assert.Empty(t, store.Journal)
}

func TestDeleteOnlyTouchesTheOwnersRows(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("mine", 1, "AAPL", base),
			legacyRow("theirs", 2, "MSFT", base),
		},
	}

	require.NoError(t, DeleteAlerts(ctx, store, 1, []string{"theirs"}))

	require.NotNil(t, store.Row("theirs"))
	assert.Equal(t, []string{"MSFT"}, symbols(entriesForUser(t, store, 2)))
}
