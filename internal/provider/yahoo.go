package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	yahooQuoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"
	yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooBatchMax = 50
	yahooUA       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// yahooQuoteResponse is the v7 quote API response.
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuoteResult `json:"result"`
		Error  *json.RawMessage   `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuoteResult struct {
	Symbol               string  `json:"symbol"`
	LongName             string  `json:"longName"`
	ShortName            string  `json:"shortName"`
	Exchange             string  `json:"exchange"`
	Currency             string  `json:"currency"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	RegularMarketOpen    float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  int64   `json:"regularMarketVolume"`
	RegularMarketTime    int64   `json:"regularMarketTime"`
}

// yahooChartResponse is the v8 chart API response.
type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooChartError   `json:"error"`
	} `json:"chart"`
}

type yahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		Currency             string `json:"currency"`
		LongName             string `json:"longName"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// YahooProvider fetches data from Yahoo Finance.
type YahooProvider struct {
	httpClient *http.Client
	quoteURL   string
	chartURL   string
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	return &YahooProvider{httpClient: httpClient, quoteURL: yahooQuoteURL, chartURL: yahooChartURL}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// FetchQuotes fetches live quotes in batches of up to 50 tickers.
func (p *YahooProvider) FetchQuotes(ctx context.Context, tickers []string) ([]Quote, []FetchError) {
	if len(tickers) == 0 {
		return nil, nil
	}

	var allQuotes []Quote
	var allErrors []FetchError
	for i := 0; i < len(tickers); i += yahooBatchMax {
		end := min(i+yahooBatchMax, len(tickers))
		quotes, fetchErrors := p.fetchBatch(ctx, tickers[i:end])
		allQuotes = append(allQuotes, quotes...)
		allErrors = append(allErrors, fetchErrors...)
	}
	return allQuotes, allErrors
}

// fetchBatch fetches quotes for a single batch of tickers.
func (p *YahooProvider) fetchBatch(ctx context.Context, tickers []string) ([]Quote, []FetchError) {
	u := p.quoteURL + "?symbols=" + url.QueryEscape(strings.Join(tickers, ","))

	var quoteResp yahooQuoteResponse
	if err := p.getJSON(ctx, u, &quoteResp); err != nil {
		return nil, batchErrors(tickers, err)
	}

	bySymbol := make(map[string]yahooQuoteResult, len(quoteResp.QuoteResponse.Result))
	for _, r := range quoteResp.QuoteResponse.Result {
		bySymbol[strings.ToUpper(r.Symbol)] = r
	}

	now := time.Now().UTC()
	var quotes []Quote
	var fetchErrors []FetchError
	for _, ticker := range tickers {
		r, found := bySymbol[strings.ToUpper(ticker)]
		if !found {
			fetchErrors = append(fetchErrors, FetchError{Ticker: ticker, Err: fmt.Errorf("symbol not found in response")})
			continue
		}
		if r.RegularMarketPrice <= 0 {
			fetchErrors = append(fetchErrors, FetchError{Ticker: ticker, Err: fmt.Errorf("non-positive price %v", r.RegularMarketPrice)})
			continue
		}

		at := now
		if r.RegularMarketTime > 0 {
			at = time.Unix(r.RegularMarketTime, 0).UTC()
		}
		name := r.LongName
		if name == "" {
			name = r.ShortName
		}
		quotes = append(quotes, Quote{
			Ticker:   ticker,
			Name:     name,
			Exchange: r.Exchange,
			Currency: r.Currency,
			Price:    r.RegularMarketPrice,
			Open:     r.RegularMarketOpen,
			DayHigh:  r.RegularMarketDayHigh,
			DayLow:   r.RegularMarketDayLow,
			Volume:   r.RegularMarketVolume,
			At:       at,
		})
	}
	return quotes, fetchErrors
}

// FetchHistory fetches daily bars for one ticker. Days on which the exchange
// reported no close are skipped.
func (p *YahooProvider) FetchHistory(ctx context.Context, ticker, rng string) (*History, error) {
	if rng == "" {
		rng = "1mo"
	}
	u := fmt.Sprintf("%s/%s?range=%s&interval=1d", p.chartURL, url.PathEscape(ticker), url.QueryEscape(rng))

	var chart yahooChartResponse
	if err := p.getJSON(ctx, u, &chart); err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	if chart.Chart.Error != nil {
		return nil, &FetchError{Ticker: ticker, Err: fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)}
	}
	if len(chart.Chart.Result) == 0 {
		return nil, &FetchError{Ticker: ticker, Err: fmt.Errorf("empty chart result")}
	}

	res := chart.Chart.Result[0]
	loc := time.UTC
	if tz := res.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	h := &History{Ticker: ticker, Name: res.Meta.LongName, Currency: res.Meta.Currency}
	if len(res.Indicators.Quote) == 0 {
		return h, nil
	}
	q := res.Indicators.Quote[0]
	for i, ts := range res.Timestamp {
		c := at(q.Close, i)
		if c == nil || *c <= 0 {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).In(loc),
			Close: *c,
			Open:  valueOr(at(q.Open, i), *c),
			High:  valueOr(at(q.High, i), *c),
			Low:   valueOr(at(q.Low, i), *c),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		h.Bars = append(h.Bars, bar)
	}
	return h, nil
}

func (p *YahooProvider) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil || *v <= 0 {
		return def
	}
	return *v
}

// batchErrors creates FetchErrors for all tickers in a failed batch.
func batchErrors(tickers []string, err error) []FetchError {
	errs := make([]FetchError, len(tickers))
	for i, ticker := range tickers {
		errs[i] = FetchError{Ticker: ticker, Err: err}
	}
	return errs
}
