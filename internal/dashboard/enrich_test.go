package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/feed"
	"tradedesk/internal/valuation"
)

func TestEnrich(t *testing.T) {
	updated := time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC)
	holdings := []apiclient.Holding{
		{ID: "h-1", StockID: "s-infy", Quantity: 10, AverageCostPerShare: 100, LastUpdated: updated},
		{ID: "h-2", StockID: "s-gone", Quantity: 5, AverageCostPerShare: 50, LastUpdated: updated},
		{ID: "h-3", StockID: "s-new", Quantity: 1, AverageCostPerShare: 10, LastUpdated: updated},
		{ID: "h-4", StockID: "s-tcs", Quantity: 2, AverageCostPerShare: 3500, LastUpdated: updated},
	}
	stocks := []apiclient.Stock{
		{ID: "s-infy", Symbol: "INFY", CompanyName: "Infosys", LatestOHLC: &apiclient.OHLC{Open: 110, Close: 120}},
		{ID: "s-new", Symbol: "NEWCO", LatestOHLC: nil},
		{ID: "s-tcs", Symbol: "TCS", CompanyName: "Tata Consultancy", LatestOHLC: &apiclient.OHLC{Open: 3600, Close: 3550}},
	}

	got := Enrich(holdings, stocks)

	require.Len(t, got, 2, "holdings without a quote are dropped")
	assert.Equal(t, valuation.EnrichedHolding{
		ID: "h-1", StockID: "s-infy", Symbol: "INFY", CompanyName: "Infosys",
		Quantity: 10, AverageCostPerShare: 100, CurrentPrice: 120, OpenPrice: 110, LastUpdated: updated,
	}, *got[0])
	assert.Equal(t, "TCS", got[1].Symbol)
	assert.Equal(t, 3550.0, got[1].CurrentPrice)
	assert.Equal(t, 3600.0, got[1].OpenPrice)
}

func TestEnrich_Empty(t *testing.T) {
	got := Enrich(nil, []apiclient.Stock{{ID: "s-1", LatestOHLC: &apiclient.OHLC{Close: 1}}})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestEnrich_DroppedHoldingDoesNotAffectValuation(t *testing.T) {
	holdings := []apiclient.Holding{
		{ID: "h-1", StockID: "s-1", Quantity: 10, AverageCostPerShare: 100},
		{ID: "h-2", StockID: "s-missing", Quantity: 1000, AverageCostPerShare: 1000},
	}
	stocks := []apiclient.Stock{{ID: "s-1", Symbol: "A", LatestOHLC: &apiclient.OHLC{Open: 100, Close: 110}}}

	v := Compute(500, Enrich(holdings, stocks), time.Now())

	assert.InDelta(t, 1100, v.Summary.PortfolioValue, 1e-9)
	assert.InDelta(t, 100, v.Summary.TotalGainLoss, 1e-9)
	require.Len(t, v.Allocation, 1)
	assert.Equal(t, "A", v.Allocation[0].Symbol)
	require.Len(t, v.PnL, 1)
}

func TestPatchPrice(t *testing.T) {
	a := &valuation.EnrichedHolding{ID: "h-1", Symbol: "INFY", Quantity: 10, CurrentPrice: 120, OpenPrice: 110}
	b := &valuation.EnrichedHolding{ID: "h-2", Symbol: "TCS", Quantity: 2, CurrentPrice: 3550}
	c := &valuation.EnrichedHolding{ID: "h-3", Symbol: "INFY", Quantity: 5, CurrentPrice: 120}
	in := []*valuation.EnrichedHolding{a, b, c}

	out, n := PatchPrice(in, feed.PriceUpdate{Symbol: "INFY", Price: 125.5})

	assert.Equal(t, 2, n)
	require.Len(t, out, 3)
	assert.Equal(t, 125.5, out[0].CurrentPrice)
	assert.Equal(t, 125.5, out[2].CurrentPrice)
	assert.Equal(t, 110.0, out[0].OpenPrice, "other fields are untouched")
	assert.Equal(t, int64(10), out[0].Quantity)
	assert.Same(t, b, out[1], "unaffected entries keep their identity")
	assert.NotSame(t, a, out[0])

	// The input is not mutated.
	assert.Same(t, a, in[0])
	assert.Equal(t, 120.0, a.CurrentPrice)
	assert.Equal(t, 120.0, c.CurrentPrice)
}

func TestPatchPrice_NoMatch(t *testing.T) {
	in := []*valuation.EnrichedHolding{{Symbol: "INFY", CurrentPrice: 120}}

	out, n := PatchPrice(in, feed.PriceUpdate{Symbol: "WIPRO", Price: 500})

	assert.Zero(t, n)
	assert.Same(t, in[0], out[0])
}
