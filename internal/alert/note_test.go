package alert

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dense-analysis/stockwarp/internal/model"
)

func TestGetNote(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{
		RowList: []model.AlertRow{
			consolidatedRow("row1", 1, time.Now(), `[
				{"id": "a1", "symbol": "AAPL", "note": "earnings call"}
			]`),
		},
	}

	note, found, err := GetNote(ctx, store, 1, "a1")

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "earnings call", note)
}

func TestGetNoteNotFoundIsDistinct(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{
		RowList: []model.AlertRow{
			consolidatedRow("row1", 1, time.Now(), `[
				{"id": "a1", "symbol": "AAPL", "note": ""}
			]`),
		},
	}

	// A valid-looking id that resolves to nothing is not-found, not an
	// empty note.
	_, found, err := GetNote(ctx, store, 1, "a2")
	require.NoError(t, err)
	assert.False(t, found)

	note, found, err := GetNote(ctx, store, 1, "a1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "", note)
}

func TestSetNoteOnConsolidatedRow(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{
		RowList: []model.AlertRow{
			consolidatedRow("row1", 1, time.Now(), `[
				{"id": "a1", "symbol": "AAPL"},
				{"id": "b1", "symbol": "MSFT"},
				{"id": "c1", "symbol": "GOOG"}
			]`),
		},
	}

	updated, err := SetNote(ctx, store, 1, "b1", "laggard")

	require.NoError(t, err)
	require.True(t, updated)
	require.Len(t, store.RowList, 1, "a note update never consolidates or removes rows")

	entries, consolidated := DecodeRow(store.Row("row1"))
	require.True(t, consolidated, "the row keeps its shape")
	require.Len(t, entries, 3, "the rewritten array keeps its length")
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, symbols(entries))
	assert.Equal(t, "", entries[0].Note)
	assert.Equal(t, "laggard", entries[1].Note)
	assert.Equal(t, "", entries[2].Note)
}

func TestSetNoteOnLegacyRow(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("row1", 1, "AAPL", time.Now()),
		},
	}

	updated, err := SetNote(ctx, store, 1, "row1", "held since 2019")

	require.NoError(t, err)
	require.True(t, updated)

	row := store.Row("row1")
	assert.Equal(t, "held since 2019", row.Note, "legacy rows keep the flat note field")
	assert.Empty(t, row.Data, "a note update never changes the row shape")

	entries, consolidated := DecodeRow(row)
	require.False(t, consolidated)
	require.Len(t, entries, 1)
	assert.Equal(t, "held since 2019", entries[0].Note)
}

func TestSetNoteClampsTo500Characters(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("row1", 1, "AAPL", time.Now()),
		},
	}

	updated, err := SetNote(ctx, store, 1, "row1", strings.Repeat("x", 600))

	require.NoError(t, err)
	require.True(t, updated)
	assert.Len(t, store.Row("row1").Note, 500)
}

func TestSetNoteNotFound(t *testing.T) {
	ctx := context.Background()
	store := &FakeStore{
		RowList: []model.AlertRow{
			legacyRow("row1", 1, "AAPL", time.Now()),
		},
	}

	updated, err := SetNote(ctx, store, 1, "row2", "nothing here")

	require.NoError(t, err)
	assert.False(t, updated)
	assert.Empty(t, store.Journal, "nothing may be written for an unknown id")
}

func TestSetNoteLeavesOtherRowsAlone(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	store := &FakeStore{
		RowList: []model.AlertRow{
			consolidatedRow("row1", 1, base, `[{"id": "a1", "symbol": "AAPL"}]`),
			legacyRow("row2", 1, "MSFT", base.Add(-time.Hour)),
		},
	}

	updated, err := SetNote(ctx, store, 1, "row2", "second row")

	require.NoError(t, err)
	require.True(t, updated)
	assert.Equal(t, []string{"update row2"}, store.Journal)
	assert.Len(t, store.RowList, 2)
}
