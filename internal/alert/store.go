package alert

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dense-analysis/stockwarp/internal/database"
	"github.com/dense-analysis/stockwarp/internal/model"
)

// Store is the record store the alert operations run against.
//
// QueryRows is always scoped to one owner; rows come back in no guaranteed
// order. UpdateRow is a partial last-write-wins update that also stamps the
// row's updated time. DeleteRow is idempotent in effect: deleting a row
// that is already gone is not an error.
type Store interface {
	QueryRows(ctx context.Context, userID int) ([]model.AlertRow, error)
	UpdateRow(ctx context.Context, rowID string, fields map[string]any) error
	DeleteRow(ctx context.Context, rowID string) error
}

// RowStore implements Store on the Postgres alert_row table.
type RowStore struct {
	DB database.Queryable
}

var rowQuery = `
select
	id,
	user_id,
	updated,
	data,
	symbol,
	name,
	asset_type,
	target_price::text,
	price_when_created::text,
	condition,
	note,
	triggered
from alert_row
`

func scanAlertRow(row database.Row, alertRow *model.AlertRow) error {
	var data []byte
	var targetPrice *string
	var priceWhenCreated *string

	err := row.Scan(
		&alertRow.ID,
		&alertRow.UserID,
		&alertRow.Updated,
		&data,
		&alertRow.Symbol,
		&alertRow.Name,
		&alertRow.AssetType,
		&targetPrice,
		&priceWhenCreated,
		&alertRow.Condition,
		&alertRow.Note,
		&alertRow.Triggered,
	)

	if err != nil {
		return err
	}

	alertRow.Data = data
	alertRow.TargetPrice = parseStoredPrice(targetPrice)
	alertRow.PriceWhenCreated = parseStoredPrice(priceWhenCreated)

	return nil
}

func parseStoredPrice(text *string) *model.Price {
	if text == nil {
		return nil
	}

	value, err := decimal.NewFromString(*text)

	if err != nil {
		return nil
	}

	return model.NewPrice(value)
}

func (store *RowStore) QueryRows(ctx context.Context, userID int) ([]model.AlertRow, error) {
	var rows []model.AlertRow

	err := model.LoadList(
		ctx,
		store.DB,
		&rows,
		10,
		scanAlertRow,
		rowQuery+"where user_id = $1 order by updated desc, id desc",
		userID,
	)

	return rows, err
}

// Columns UpdateRow may touch. "data" carries JSON text and is cast on the
// way in.
var updatableColumns = map[string]string{
	"data":   "data = $%d::jsonb",
	"note":   "note = $%d",
	"symbol": "symbol = $%d",
}

func (store *RowStore) UpdateRow(ctx context.Context, rowID string, fields map[string]any) error {
	columns := make([]string, 0, len(fields))

	for column := range fields {
		if _, known := updatableColumns[column]; !known {
			return fmt.Errorf("alert_row has no updatable column %q", column)
		}

		columns = append(columns, column)
	}

	sort.Strings(columns)

	assignments := make([]string, 0, len(columns)+1)
	arguments := make([]any, 0, len(columns)+1)
	arguments = append(arguments, rowID)

	for _, column := range columns {
		arguments = append(arguments, fields[column])
		assignments = append(assignments, fmt.Sprintf(updatableColumns[column], len(arguments)))
	}

	assignments = append(assignments, "updated = now()")

	return store.DB.Exec(
		ctx,
		"update alert_row set "+strings.Join(assignments, ", ")+" where id = $1",
		arguments...,
	)
}

func (store *RowStore) DeleteRow(ctx context.Context, rowID string) error {
	return store.DB.Exec(ctx, "delete from alert_row where id = $1", rowID)
}
