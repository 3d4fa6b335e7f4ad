package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dense-analysis/stockwarp/internal/model"
)

// FakeStore is an in-memory Store for tests. It keeps a journal of write
// operations in order, and individual writes can be made to fail.
type FakeStore struct {
	RowList        []model.AlertRow
	Journal        []string
	UpdateFailure  error
	DeleteFailures map[string]error
}

func (store *FakeStore) QueryRows(ctx context.Context, userID int) ([]model.AlertRow, error) {
	var rows []model.AlertRow

	for _, row := range store.RowList {
		if row.UserID == userID {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func (store *FakeStore) UpdateRow(ctx context.Context, rowID string, fields map[string]any) error {
	store.Journal = append(store.Journal, "update "+rowID)

	if store.UpdateFailure != nil {
		return store.UpdateFailure
	}

	row := store.Row(rowID)

	if row == nil {
		return fmt.Errorf("no row with id %q", rowID)
	}

	for column, value := range fields {
		switch column {
		case "data":
			row.Data = json.RawMessage(value.(string))
		case "note":
			row.Note = value.(string)
		case "symbol":
			row.Symbol = value.(string)
		default:
			return fmt.Errorf("no updatable column %q", column)
		}
	}

	row.Updated = time.Now()

	return nil
}

func (store *FakeStore) DeleteRow(ctx context.Context, rowID string) error {
	store.Journal = append(store.Journal, "delete "+rowID)

	if err := store.DeleteFailures[rowID]; err != nil {
		return err
	}

	for i := range store.RowList {
		if store.RowList[i].ID == rowID {
			store.RowList = append(store.RowList[:i], store.RowList[i+1:]...)

			break
		}
	}

	return nil
}

// Row returns a pointer to the stored row with the given id, or nil.
func (store *FakeStore) Row(rowID string) *model.AlertRow {
	for i := range store.RowList {
		if store.RowList[i].ID == rowID {
			return &store.RowList[i]
		}
	}

	return nil
}
