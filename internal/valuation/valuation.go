// Package valuation derives portfolio summary figures and chart series from
// a set of priced holdings and a cash balance.
//
// Everything here is a pure function of its inputs: no I/O, no clocks, no
// shared state. Callers pass "today" explicitly so results are reproducible.
package valuation

import (
	"sort"
	"time"
)

// TopN is the number of entries shown in the winners and losers lists.
const TopN = 5

// EnrichedHolding is a holding joined with its stock's symbol and latest
// prices. CurrentPrice is the latest close (or a newer streamed price) and
// OpenPrice is the current day's open.
type EnrichedHolding struct {
	ID                  string
	StockID             string
	Symbol              string
	CompanyName         string
	Quantity            int64
	AverageCostPerShare float64
	CurrentPrice        float64
	OpenPrice           float64
	LastUpdated         time.Time
}

// Summary holds the headline figures of a portfolio.
//
// PortfolioValue is the market value of holdings only; cash is reported
// separately as BuyingPower and is not added in.
type Summary struct {
	TodayPL              float64 `json:"today_pl"`
	TodayPLPercent       float64 `json:"today_pl_percent"`
	TotalGainLoss        float64 `json:"total_gain_loss"`
	TotalGainLossPercent float64 `json:"total_gain_loss_percent"`
	PortfolioValue       float64 `json:"portfolio_value"`
	BuyingPower          float64 `json:"buying_power"`
}

// Breakdown exposes the intermediate quantities a Summary is built from.
type Breakdown struct {
	TotalInvestment           float64
	HoldingsValue             float64
	ValueBasisForToday        float64
	CostOfSharesBoughtToday   float64
	CashAtOpen                float64
	TotalPortfolioValueAtOpen float64
}

// Summarize computes the portfolio summary for the given cash balance and
// holdings as of today.
func Summarize(cash float64, holdings []*EnrichedHolding, today time.Time) Summary {
	s, _ := Analyze(cash, holdings, today)
	return s
}

// Analyze is Summarize plus the intermediate figures.
//
// A holding whose LastUpdated falls on today's calendar day (in today's
// location) was traded today, so its day P&L is measured from its average
// cost instead of the open, and the cash spent on it is added back to the
// opening cash.
func Analyze(cash float64, holdings []*EnrichedHolding, today time.Time) (Summary, Breakdown) {
	if len(holdings) == 0 {
		return Summary{PortfolioValue: cash, BuyingPower: cash}, Breakdown{CashAtOpen: cash, TotalPortfolioValueAtOpen: cash}
	}

	var b Breakdown
	for _, h := range holdings {
		qty := float64(h.Quantity)
		cost := qty * h.AverageCostPerShare

		b.TotalInvestment += cost
		b.HoldingsValue += qty * h.CurrentPrice

		if SameDay(h.LastUpdated, today) {
			b.ValueBasisForToday += cost
			b.CostOfSharesBoughtToday += cost
		} else {
			b.ValueBasisForToday += qty * h.OpenPrice
		}
	}
	b.CashAtOpen = cash + b.CostOfSharesBoughtToday
	b.TotalPortfolioValueAtOpen = b.ValueBasisForToday + b.CashAtOpen

	s := Summary{
		TodayPL:        b.HoldingsValue - b.ValueBasisForToday,
		TotalGainLoss:  b.HoldingsValue - b.TotalInvestment,
		PortfolioValue: b.HoldingsValue,
		BuyingPower:    cash,
	}
	s.TodayPLPercent = percentOf(s.TodayPL, b.TotalPortfolioValueAtOpen)
	s.TotalGainLossPercent = percentOf(s.TotalGainLoss, b.TotalInvestment)
	return s, b
}

// SameDay reports whether t falls on the same calendar date as today,
// comparing in today's location.
func SameDay(t, today time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(today.Location()).Date()
	y2, m2, d2 := today.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// percentOf returns part/whole*100, or 0 when whole is 0.
func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// AllocationSlice is one symbol's share of the portfolio's cost basis.
type AllocationSlice struct {
	Symbol  string  `json:"symbol"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// Allocation returns each holding's cost basis (quantity x average cost),
// in input order. Market value is deliberately not used here.
func Allocation(holdings []*EnrichedHolding) []AllocationSlice {
	out := make([]AllocationSlice, 0, len(holdings))
	var total float64
	for _, h := range holdings {
		v := float64(h.Quantity) * h.AverageCostPerShare
		total += v
		out = append(out, AllocationSlice{Symbol: h.Symbol, Value: v})
	}
	for i := range out {
		out[i].Percent = percentOf(out[i].Value, total)
	}
	return out
}

// SymbolPnL is the unrealised profit or loss on one holding.
type SymbolPnL struct {
	Symbol string  `json:"symbol"`
	PnL    float64 `json:"pnl"`
}

// PerSymbolPnL returns (current - average cost) x quantity for each holding,
// in input order.
func PerSymbolPnL(holdings []*EnrichedHolding) []SymbolPnL {
	out := make([]SymbolPnL, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, SymbolPnL{
			Symbol: h.Symbol,
			PnL:    (h.CurrentPrice - h.AverageCostPerShare) * float64(h.Quantity),
		})
	}
	return out
}

// TopWinners returns up to n entries with strictly positive P&L, largest
// first. Ties keep their input order.
func TopWinners(pnl []SymbolPnL, n int) []SymbolPnL {
	out := filter(pnl, func(p SymbolPnL) bool { return p.PnL > 0 })
	sort.SliceStable(out, func(i, j int) bool { return out[i].PnL > out[j].PnL })
	return limit(out, n)
}

// TopLosers returns up to n entries with strictly negative P&L, most
// negative first. Ties keep their input order.
func TopLosers(pnl []SymbolPnL, n int) []SymbolPnL {
	out := filter(pnl, func(p SymbolPnL) bool { return p.PnL < 0 })
	sort.SliceStable(out, func(i, j int) bool { return out[i].PnL < out[j].PnL })
	return limit(out, n)
}

func filter(in []SymbolPnL, keep func(SymbolPnL) bool) []SymbolPnL {
	out := make([]SymbolPnL, 0, len(in))
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func limit(in []SymbolPnL, n int) []SymbolPnL {
	if n < 0 {
		n = 0
	}
	if len(in) > n {
		return in[:n]
	}
	return in
}
