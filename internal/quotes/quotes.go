// Package quotes stores quote history in ClickHouse and serves the latest
// price per symbol.
package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"

	"github.com/dense-analysis/stockwarp/internal/config"
)

// Quote is one observed price for a symbol.
type Quote struct {
	Time   time.Time
	Symbol string
	Value  decimal.Decimal
}

type Store struct {
	chConn clickhouse.Conn
}

// Connect connects to the ClickHouse quote database.
func Connect(ctx context.Context, cfg config.Config) (*Store, error) {
	address := fmt.Sprintf("%s:%s", cfg.QuoteDBHost, cfg.QuoteDBPort)
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{address},
		Auth: clickhouse.Auth{
			Database: cfg.QuoteDBName,
			Username: cfg.QuoteDBUsername,
			Password: cfg.QuoteDBPassword,
		},
		DialTimeout: time.Second * 5,
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}

	return &Store{chConn: conn}, nil
}

// Close closes the quote database connection.
func (store *Store) Close() error {
	return store.chConn.Close()
}

// LatestPrices returns the newest stored price for each of the given
// symbols. Symbols with no quote history are simply absent from the result.
func (store *Store) LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := map[string]decimal.Decimal{}

	if len(symbols) == 0 {
		return prices, nil
	}

	rows, err := store.chConn.Query(
		ctx,
		`select symbol, argMax(value, time)
		from stock_quote
		where symbol in (?)
		group by symbol`,
		symbols,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var symbol string
		var value decimal.Decimal

		if err := rows.Scan(&symbol, &value); err != nil {
			return nil, err
		}

		prices[symbol] = value
	}

	return prices, rows.Err()
}

// WriteQuotes batch-inserts quotes.
func (store *Store) WriteQuotes(ctx context.Context, quoteList []Quote) error {
	if len(quoteList) == 0 {
		return nil
	}

	batch, err := store.chConn.PrepareBatch(
		ctx,
		"insert into stock_quote (time, symbol, value)",
	)

	if err != nil {
		return err
	}

	for _, quote := range quoteList {
		if err := batch.Append(quote.Time, quote.Symbol, quote.Value); err != nil {
			return err
		}
	}

	return batch.Send()
}
