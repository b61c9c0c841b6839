// Package provider fetches quotes and daily history from external market data sources.
package provider

import (
	"context"
	"fmt"
	"time"
)

// Quote is a live snapshot of one ticker.
type Quote struct {
	Ticker   string
	Name     string
	Exchange string
	Currency string
	Price    float64
	Open     float64
	DayHigh  float64
	DayLow   float64
	Volume   int64
	At       time.Time
}

// Bar is one daily OHLCV bar.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// History is a ticker's daily series, oldest first.
type History struct {
	Ticker   string
	Name     string
	Currency string
	Bars     []Bar
}

// FetchError is a failed fetch for a single ticker.
type FetchError struct {
	Ticker string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Ticker, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// Provider fetches market data for exchange tickers such as "INFY.NS".
type Provider interface {
	// Name returns the provider's display name.
	Name() string

	// FetchQuotes returns as many quotes as it can; tickers that failed are
	// reported individually.
	FetchQuotes(ctx context.Context, tickers []string) ([]Quote, []FetchError)

	// FetchHistory returns daily bars covering rng (e.g. "1mo", "1y").
	FetchHistory(ctx context.Context, ticker, rng string) (*History, error)
}
