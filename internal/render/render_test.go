package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/dashboard"
	"tradedesk/internal/valuation"
)

func TestMoney(t *testing.T) {
	r := New("usd")

	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"grouping", 1234.5, "$1,234.50"},
		{"rounds to cents", 0.005, "$0.01"},
		{"zero", 0, "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Money(tt.amount); got != tt.want {
				t.Errorf("Money(%v) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}

	if got := r.Money(-42); !strings.HasPrefix(got, "-") || !strings.Contains(got, "42.00") {
		t.Errorf("unexpected negative format %q", got)
	}
	if got := r.Signed(10); got != "+$10.00" {
		t.Errorf("Signed(10) = %q", got)
	}
	if got := r.Signed(0); got != "$0.00" {
		t.Errorf("Signed(0) = %q", got)
	}
	if got := New("INR").Money(100000); !strings.Contains(got, "100,000.00") {
		t.Errorf("unexpected INR format %q", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0.9009); got != "+0.90%" {
		t.Errorf("Percent(0.9009) = %q", got)
	}
	if got := Percent(-12.345); got != "-12.35%" {
		t.Errorf("Percent(-12.345) = %q", got)
	}
}

func exampleView() dashboard.View {
	holdings := []*valuation.EnrichedHolding{
		{ID: "h-1", Symbol: "INFY", Quantity: 10, AverageCostPerShare: 100, CurrentPrice: 120, OpenPrice: 110},
		{ID: "h-2", Symbol: "WIPRO", Quantity: 4, AverageCostPerShare: 500, CurrentPrice: 450, OpenPrice: 460},
	}
	v := dashboard.Compute(10000, holdings, time.Now())
	v.RefreshedAt = time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC)
	return v
}

func TestSummary(t *testing.T) {
	md := New("USD").Summary("Default", exampleView())

	for _, want := range []string{
		"# Default",
		"$3,000.00",  // portfolio value: 1200 + 1800
		"$10,000.00", // buying power
		"| INFY | 10 | $100.00 | $120.00 | $1,200.00 | +$200.00 |",
		"## Allocation",
		"**INFY** 33.3%",
		"## Top winners",
		"## Top losers",
		"**WIPRO**",
		"_Updated ",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Refresh failed") {
		t.Errorf("unexpected failure banner")
	}
}

func TestSummary_EmptyAndFailed(t *testing.T) {
	v := dashboard.Compute(500, nil, time.Now())
	v.Err = errors.New("fetching portfolio: unexpected status 503")

	md := New("USD").Summary("", v)

	for _, want := range []string{"# Portfolio", "_No open positions._", "Refresh failed", "503"} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}
	for _, unwanted := range []string{"## Allocation", "## Top winners", "_Updated"} {
		if strings.Contains(md, unwanted) {
			t.Errorf("summary should not contain %q:\n%s", unwanted, md)
		}
	}
}

func TestTransactions(t *testing.T) {
	r := New("USD")
	page := &apiclient.TransactionPage{
		Data: []apiclient.Transaction{
			{Symbol: "INFY", Type: "SELL", Quantity: 20, PricePerShare: 110, Total: 2200, TransactionDate: time.Now()},
		},
		Page: 1, PageSize: 20, TotalItems: 3, TotalPages: 1,
	}
	md := r.Transactions(page)
	if !strings.Contains(md, "| SELL | INFY | 20 | $110.00 | $2,200.00 |") {
		t.Errorf("unexpected transactions:\n%s", md)
	}
	if !strings.Contains(md, "Page 1 of 1 (3 trades)") {
		t.Errorf("missing pager:\n%s", md)
	}

	if md := r.Transactions(&apiclient.TransactionPage{}); !strings.Contains(md, "_No trades yet._") {
		t.Errorf("unexpected empty transactions:\n%s", md)
	}
}

func TestHistory(t *testing.T) {
	md := New("USD").History(&apiclient.StockHistory{
		Symbol:  "TCS",
		History: []apiclient.OHLC{{Date: "2024-06-14", Open: 3500, High: 3620, Low: 3490, Close: 3600, Volume: 1500}},
	})
	if !strings.Contains(md, "| 2024-06-14 | $3,500.00 | $3,620.00 | $3,490.00 | $3,600.00 | 1500 |") {
		t.Errorf("unexpected history:\n%s", md)
	}
}

func TestTrade(t *testing.T) {
	r := New("USD")

	md := r.Trade(&apiclient.TradeResult{
		Transaction: apiclient.Transaction{Symbol: "INFY", Type: "BUY", Quantity: 10, PricePerShare: 105.5, Total: 1055},
		CashBalance: 98945,
		Holding:     &apiclient.Holding{Quantity: 10, AverageCostPerShare: 105.5},
	})
	for _, want := range []string{"**BUY** 10 × INFY @ $105.50 = $1,055.00", "$98,945.00", "10 shares"} {
		if !strings.Contains(md, want) {
			t.Errorf("trade missing %q:\n%s", want, md)
		}
	}

	md = r.Trade(&apiclient.TradeResult{Transaction: apiclient.Transaction{Type: "SELL"}, CashBalance: 1})
	if !strings.Contains(md, "Position closed.") {
		t.Errorf("expected closed position:\n%s", md)
	}
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Portfolio\n\nHello **world**\n", "notty", 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Portfolio") || !strings.Contains(out, "world") {
		t.Errorf("unexpected output %q", out)
	}
}
