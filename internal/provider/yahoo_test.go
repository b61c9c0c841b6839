package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }
func n(v int64) *int64     { return &v }

// newQuoteServer serves v7 quote responses for the tickers in prices.
func newQuoteServer(t *testing.T, prices map[string]float64, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected a User-Agent header")
		}
		var resp yahooQuoteResponse
		for _, sym := range strings.Split(r.URL.Query().Get("symbols"), ",") {
			if p, ok := prices[sym]; ok {
				resp.QuoteResponse.Result = append(resp.QuoteResponse.Result, yahooQuoteResult{
					Symbol:              sym,
					LongName:            sym + " Ltd",
					Currency:            "INR",
					RegularMarketPrice:  p,
					RegularMarketOpen:   p - 1,
					RegularMarketVolume: 1000,
					RegularMarketTime:   1718352000,
				})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestYahooProvider_FetchQuotes(t *testing.T) {
	t.Run("returns quotes and per-ticker errors", func(t *testing.T) {
		srv := newQuoteServer(t, map[string]float64{"INFY.NS": 1501.5, "TCS.NS": 3842.25, "ZERO.NS": 0}, nil)
		defer srv.Close()

		p := &YahooProvider{httpClient: srv.Client(), quoteURL: srv.URL}
		quotes, errs := p.FetchQuotes(context.Background(), []string{"INFY.NS", "TCS.NS", "GONE.NS", "ZERO.NS"})

		if len(quotes) != 2 {
			t.Fatalf("expected 2 quotes, got %d", len(quotes))
		}
		if quotes[0].Ticker != "INFY.NS" || quotes[0].Price != 1501.5 || quotes[0].Open != 1500.5 {
			t.Errorf("unexpected quote: %+v", quotes[0])
		}
		if quotes[0].Name != "INFY.NS Ltd" || quotes[0].Currency != "INR" {
			t.Errorf("unexpected metadata: %+v", quotes[0])
		}
		if !quotes[0].At.Equal(time.Unix(1718352000, 0)) {
			t.Errorf("expected market time, got %v", quotes[0].At)
		}
		if len(errs) != 2 {
			t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
		}
		if errs[0].Ticker != "GONE.NS" || errs[1].Ticker != "ZERO.NS" {
			t.Errorf("unexpected error tickers: %v", errs)
		}
	})

	t.Run("batches requests by 50", func(t *testing.T) {
		var calls atomic.Int32
		prices := map[string]float64{}
		tickers := make([]string, 120)
		for i := range tickers {
			tickers[i] = fmt.Sprintf("T%d.NS", i)
			prices[tickers[i]] = float64(i + 1)
		}
		srv := newQuoteServer(t, prices, &calls)
		defer srv.Close()

		p := &YahooProvider{httpClient: srv.Client(), quoteURL: srv.URL}
		quotes, errs := p.FetchQuotes(context.Background(), tickers)

		if calls.Load() != 3 {
			t.Errorf("expected 3 batched requests, got %d", calls.Load())
		}
		if len(quotes) != 120 || len(errs) != 0 {
			t.Errorf("expected 120 quotes and no errors, got %d/%d", len(quotes), len(errs))
		}
	})

	t.Run("fails the whole batch on server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		p := &YahooProvider{httpClient: srv.Client(), quoteURL: srv.URL}
		quotes, errs := p.FetchQuotes(context.Background(), []string{"INFY.NS", "TCS.NS"})

		if len(quotes) != 0 || len(errs) != 2 {
			t.Fatalf("expected 0 quotes and 2 errors, got %d/%d", len(quotes), len(errs))
		}
		if !strings.Contains(errs[0].Error(), "429") {
			t.Errorf("expected status in error, got %v", errs[0].Error())
		}
	})

	t.Run("no tickers makes no request", func(t *testing.T) {
		p := NewYahooProvider(http.DefaultClient)
		quotes, errs := p.FetchQuotes(context.Background(), nil)
		if quotes != nil || errs != nil {
			t.Errorf("expected nil results, got %v %v", quotes, errs)
		}
	})
}

func TestYahooProvider_FetchHistory(t *testing.T) {
	t.Run("parses daily bars and skips gaps", func(t *testing.T) {
		var gotPath, gotRange string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotRange = r.URL.Query().Get("range")

			var resp yahooChartResponse
			var res yahooChartResult
			res.Meta.Symbol = "INFY.NS"
			res.Meta.Currency = "INR"
			res.Meta.LongName = "Infosys Limited"
			res.Meta.ExchangeTimezoneName = "Asia/Kolkata"
			// 2024-06-13 and 2024-06-14 09:15 IST, plus a holiday with no data.
			res.Timestamp = []int64{1718250300, 1718336700, 1718423100}
			res.Indicators.Quote = append(res.Indicators.Quote, struct {
				Open   []*float64 `json:"open"`
				High   []*float64 `json:"high"`
				Low    []*float64 `json:"low"`
				Close  []*float64 `json:"close"`
				Volume []*int64   `json:"volume"`
			}{
				Open:   []*float64{f(1490), f(1500), nil},
				High:   []*float64{f(1510), f(1520), nil},
				Low:    []*float64{f(1480), nil, nil},
				Close:  []*float64{f(1500), f(1515), nil},
				Volume: []*int64{n(100), n(200), nil},
			})
			resp.Chart.Result = []yahooChartResult{res}
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		p := &YahooProvider{httpClient: srv.Client(), chartURL: srv.URL}
		h, err := p.FetchHistory(context.Background(), "INFY.NS", "1mo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotPath != "/INFY.NS" || gotRange != "1mo" {
			t.Errorf("unexpected request: %s range=%s", gotPath, gotRange)
		}
		if h.Name != "Infosys Limited" || h.Currency != "INR" {
			t.Errorf("unexpected metadata: %+v", h)
		}
		if len(h.Bars) != 2 {
			t.Fatalf("expected 2 bars, got %d", len(h.Bars))
		}
		if got := h.Bars[0].Date.Format(time.DateOnly); got != "2024-06-13" {
			t.Errorf("expected exchange-local date 2024-06-13, got %s", got)
		}
		if h.Bars[1].Low != 1515 {
			t.Errorf("missing low should fall back to close, got %v", h.Bars[1].Low)
		}
		if h.Bars[1].Volume != 200 {
			t.Errorf("expected volume 200, got %d", h.Bars[1].Volume)
		}
	})

	t.Run("reports chart errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			var resp yahooChartResponse
			resp.Chart.Error = &yahooChartError{Code: "Not Found", Description: "No data found, symbol may be delisted"}
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		p := &YahooProvider{httpClient: srv.Client(), chartURL: srv.URL}
		_, err := p.FetchHistory(context.Background(), "GONE.NS", "")

		var fe *FetchError
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.As(err, &fe) || fe.Ticker != "GONE.NS" {
			t.Errorf("expected FetchError for GONE.NS, got %v", err)
		}
		if !strings.Contains(err.Error(), "delisted") {
			t.Errorf("expected description in error, got %v", err)
		}
	})
}
