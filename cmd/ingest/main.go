// Read ticker quote data into the quote database
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dense-analysis/stockwarp/internal/alert"
	"github.com/dense-analysis/stockwarp/internal/config"
	"github.com/dense-analysis/stockwarp/internal/env"
	"github.com/dense-analysis/stockwarp/internal/quotes"
)

var VerySmallAmount = decimal.New(1, -20)

type TickerResult struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func readTickerResults(cfg config.Config) ([]TickerResult, error) {
	client := http.Client{Timeout: cfg.QuoteFeedTimeout}
	response, err := client.Get(cfg.QuoteFeedURL)

	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)

	if err != nil {
		return nil, err
	}

	var results []TickerResult

	if err := json.Unmarshal(content, &results); err == nil {
		return results, nil
	}

	var apiError struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}

	if err := json.Unmarshal(content, &apiError); err == nil && apiError.Msg != "" {
		return nil, fmt.Errorf("quote feed returned an error: %s", apiError.Msg)
	}

	return nil, fmt.Errorf("quote feed returned unexpected response: %s", string(content))
}

func readQuotes(results []TickerResult) []quotes.Quote {
	timestamp := time.Now()
	quoteList := make([]quotes.Quote, 0, len(results))

	for _, tickerData := range results {
		symbol := alert.NormalizeSymbol(tickerData.Symbol)

		if symbol == "" {
			continue
		}

		value, err := decimal.NewFromString(tickerData.Price)

		if err != nil {
			continue
		}

		// Hack a very small amount for 0 or negative prices.
		if value.LessThanOrEqual(decimal.Zero) {
			value = VerySmallAmount
		}

		quoteList = append(quoteList, quotes.Quote{
			Time:   timestamp,
			Symbol: symbol,
			Value:  value,
		})
	}

	return quoteList
}

func main() {
	env.LoadEnvironmentVariables()

	ctx := context.Background()
	cfg, err := config.Load(ctx)

	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(1)
	}

	store, err := quotes.Connect(ctx, cfg)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer func() {
		_ = store.Close()
	}()

	tickerResults, err := readTickerResults(cfg)

	if err != nil {
		fmt.Fprintf(os.Stderr, "HTTP error: %s\n", err)
		os.Exit(1)
	}

	if err := store.WriteQuotes(ctx, readQuotes(tickerResults)); err != nil {
		fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
		os.Exit(1)
	}
}
