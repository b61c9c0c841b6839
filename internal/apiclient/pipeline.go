package apiclient

import (
	"context"
	"net/http"
	"time"
)

// StockEntry describes a stock to create or refresh.
type StockEntry struct {
	Symbol         string `json:"symbol"`
	CompanyName    string `json:"company_name,omitempty"`
	Sector         string `json:"sector,omitempty"`
	Exchange       string `json:"exchange,omitempty"`
	ProviderSymbol string `json:"provider_symbol,omitempty"`
}

// BarEntry is one daily bar. Date is YYYY-MM-DD.
type BarEntry struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// TickEntry is one live price observation.
type TickEntry struct {
	Symbol string     `json:"symbol"`
	Price  float64    `json:"price"`
	Volume int64      `json:"volume"`
	At     *time.Time `json:"at,omitempty"`
}

// UpsertStocks creates or refreshes stocks and returns the count upserted.
func (c *Client) UpsertStocks(ctx context.Context, stocks []StockEntry) (int, error) {
	body := struct {
		Stocks []StockEntry `json:"stocks"`
	}{Stocks: stocks}

	var result struct {
		StocksUpserted int `json:"stocks_upserted"`
	}
	if err := c.do(ctx, "upserting stocks", http.MethodPost, "/pipeline/stocks", body, &result, authAPIKey); err != nil {
		return 0, err
	}
	return result.StocksUpserted, nil
}

// RecordBars submits daily bars and returns the count stored. Bars the
// server already has are skipped and not counted.
func (c *Client) RecordBars(ctx context.Context, bars []BarEntry) (int, error) {
	body := struct {
		Bars []BarEntry `json:"bars"`
	}{Bars: bars}

	var result struct {
		BarsRecorded int `json:"bars_recorded"`
	}
	if err := c.do(ctx, "recording bars", http.MethodPost, "/pipeline/bars", body, &result, authAPIKey); err != nil {
		return 0, err
	}
	return result.BarsRecorded, nil
}

// RecordTicks submits live prices and returns the count applied.
func (c *Client) RecordTicks(ctx context.Context, ticks []TickEntry) (int, error) {
	body := struct {
		Ticks []TickEntry `json:"ticks"`
	}{Ticks: ticks}

	var result struct {
		TicksApplied int `json:"ticks_applied"`
	}
	if err := c.do(ctx, "recording ticks", http.MethodPost, "/pipeline/ticks", body, &result, authAPIKey); err != nil {
		return 0, err
	}
	return result.TicksApplied, nil
}

// ComputeSnapshots triggers portfolio snapshot computation and returns the count recorded.
func (c *Client) ComputeSnapshots(ctx context.Context) (int, error) {
	body := struct {
		RecordedAt string `json:"recorded_at"`
	}{RecordedAt: time.Now().UTC().Format(time.RFC3339)}

	var result struct {
		SnapshotsRecorded int `json:"snapshots_recorded"`
	}
	if err := c.do(ctx, "computing snapshots", http.MethodPost, "/pipeline/snapshots", body, &result, authAPIKey); err != nil {
		return 0, err
	}
	return result.SnapshotsRecorded, nil
}
