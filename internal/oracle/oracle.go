// Package oracle feeds market data from a provider into the tradedesk API.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/config"
	"tradedesk/internal/logger"
	"tradedesk/internal/provider"
)

// historyConcurrency bounds parallel history downloads during Seed.
const historyConcurrency = 4

// MarketClient defines the pipeline API operations needed by the oracle.
type MarketClient interface {
	UpsertStocks(ctx context.Context, stocks []apiclient.StockEntry) (int, error)
	RecordBars(ctx context.Context, bars []apiclient.BarEntry) (int, error)
	RecordTicks(ctx context.Context, ticks []apiclient.TickEntry) (int, error)
	ComputeSnapshots(ctx context.Context) (int, error)
}

// SeedResult contains the outcome of a seed.
type SeedResult struct {
	StocksUpserted int
	BarsRecorded   int
	Errors         []provider.FetchError
	Duration       time.Duration
}

// RunResult contains the outcome of one poll cycle.
type RunResult struct {
	QuotesFetched int
	TicksApplied  int
	Errors        []provider.FetchError
	Duration      time.Duration
}

// Oracle pulls quotes and history for the tracked symbols and pushes them
// through the pipeline API.
type Oracle struct {
	client   MarketClient
	provider provider.Provider
	config   *config.OracleConfig
	log      *zap.SugaredLogger
}

// NewOracle creates a new Oracle instance.
func NewOracle(client MarketClient, p provider.Provider, cfg *config.OracleConfig) *Oracle {
	return &Oracle{
		client:   client,
		provider: p,
		config:   cfg,
		log:      logger.Named("oracle"),
	}
}

// Seed registers every tracked symbol and loads its recent daily bars.
// Bars the server already holds are skipped there, so Seed is safe to repeat.
func (o *Oracle) Seed(ctx context.Context) (*SeedResult, error) {
	start := time.Now()
	result := &SeedResult{}
	tickers := o.config.TrackedSymbols

	histories := make([]*provider.History, len(tickers))
	fetchErrs := make([]error, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyConcurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			h, err := o.provider.FetchHistory(gctx, ticker, o.config.SeedRange)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fetchErrs[i] = err
				return nil
			}
			histories[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stocks := make([]apiclient.StockEntry, len(tickers))
	var bars []apiclient.BarEntry
	for i, ticker := range tickers {
		stocks[i] = apiclient.StockEntry{
			Symbol:         ticker,
			Exchange:       exchangeFor(ticker),
			ProviderSymbol: ticker,
		}
		if err := fetchErrs[i]; err != nil {
			result.Errors = append(result.Errors, asFetchError(ticker, err))
			continue
		}
		h := histories[i]
		stocks[i].CompanyName = h.Name
		for _, b := range h.Bars {
			bars = append(bars, apiclient.BarEntry{
				Symbol: ticker,
				Date:   b.Date.Format(time.DateOnly),
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
		}
	}

	upserted, err := o.client.UpsertStocks(ctx, stocks)
	if err != nil {
		return nil, err
	}
	result.StocksUpserted = upserted

	if len(bars) > 0 {
		recorded, err := o.client.RecordBars(ctx, bars)
		if err != nil {
			return nil, err
		}
		result.BarsRecorded = recorded
	}

	result.Duration = time.Since(start)
	o.log.Infow("seed completed",
		"stocks_upserted", result.StocksUpserted,
		"bars_recorded", result.BarsRecorded,
		"errors", len(result.Errors),
		"duration", result.Duration.String(),
	)
	return result, nil
}

// Run executes a single poll cycle: fetch quotes, push them as ticks.
func (o *Oracle) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	tickers := o.config.TrackedSymbols
	if len(tickers) == 0 {
		o.log.Info("no tracked symbols, nothing to do")
		result.Duration = time.Since(start)
		return result, nil
	}

	o.log.Debugw("fetching quotes", "provider", o.provider.Name(), "count", len(tickers))
	quotes, fetchErrors := o.provider.FetchQuotes(ctx, tickers)
	result.QuotesFetched = len(quotes)
	result.Errors = fetchErrors

	if len(quotes) == 0 {
		o.log.Warnw("no quotes fetched", "errors", len(fetchErrors))
		result.Duration = time.Since(start)
		return result, nil
	}

	ticks := make([]apiclient.TickEntry, len(quotes))
	for i, q := range quotes {
		at := q.At
		ticks[i] = apiclient.TickEntry{
			Symbol: q.Ticker,
			Price:  q.Price,
			Volume: q.Volume,
			At:     &at,
		}
	}

	applied, err := o.client.RecordTicks(ctx, ticks)
	if err != nil {
		return nil, err
	}
	result.TicksApplied = applied
	result.Duration = time.Since(start)

	for _, fe := range fetchErrors {
		o.log.Warnw("quote fetch failed", "symbol", fe.Ticker, "error", fe.Err)
	}
	o.log.Infow("poll completed",
		"quotes_fetched", result.QuotesFetched,
		"ticks_applied", result.TicksApplied,
		"errors", len(result.Errors),
		"duration", result.Duration.String(),
	)
	return result, nil
}

// Snapshot asks the server to value every portfolio.
func (o *Oracle) Snapshot(ctx context.Context) (int, error) {
	n, err := o.client.ComputeSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("computing snapshots: %w", err)
	}
	o.log.Infow("snapshots recorded", "count", n)
	return n, nil
}

// exchangeFor maps a Yahoo ticker suffix to its exchange code.
func exchangeFor(ticker string) string {
	switch {
	case strings.HasSuffix(ticker, ".NS"):
		return "NSE"
	case strings.HasSuffix(ticker, ".BO"):
		return "BSE"
	default:
		return ""
	}
}

func asFetchError(ticker string, err error) provider.FetchError {
	var fe *provider.FetchError
	if errors.As(err, &fe) {
		return *fe
	}
	return provider.FetchError{Ticker: ticker, Err: err}
}
