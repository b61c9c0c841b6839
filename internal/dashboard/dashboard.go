package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/feed"
	"tradedesk/internal/logger"
	"tradedesk/internal/valuation"
)

// DataSource is the subset of the API client the dashboard reads from.
type DataSource interface {
	GetPortfolio(ctx context.Context) (*apiclient.Portfolio, error)
	GetHoldings(ctx context.Context) ([]apiclient.Holding, error)
	GetStocks(ctx context.Context) ([]apiclient.Stock, error)
	PlaceOrder(ctx context.Context, order apiclient.Order) (*apiclient.TradeResult, error)
}

// PriceFeed streams price updates until closed.
type PriceFeed interface {
	Updates() <-chan feed.PriceUpdate
	Close() error
}

// View is an immutable, fully valued picture of the portfolio.
type View struct {
	Cash        float64
	Holdings    []*valuation.EnrichedHolding
	Summary     valuation.Summary
	Allocation  []valuation.AllocationSlice
	PnL         []valuation.SymbolPnL
	Winners     []valuation.SymbolPnL
	Losers      []valuation.SymbolPnL
	RefreshedAt time.Time

	// Err is set when the latest refresh failed; the other fields then
	// still describe the last good data.
	Err error
}

// Compute values holdings as of now.
func Compute(cash float64, holdings []*valuation.EnrichedHolding, now time.Time) View {
	pnl := valuation.PerSymbolPnL(holdings)
	return View{
		Cash:       cash,
		Holdings:   holdings,
		Summary:    valuation.Summarize(cash, holdings, now),
		Allocation: valuation.Allocation(holdings),
		PnL:        pnl,
		Winners:    valuation.TopWinners(pnl, valuation.TopN),
		Losers:     valuation.TopLosers(pnl, valuation.TopN),
	}
}

// snapshot is the joined result of one refresh.
type snapshot struct {
	cash     float64
	holdings []*valuation.EnrichedHolding
}

// fetch loads portfolio, holdings and stocks concurrently and joins them
// only once all three have arrived.
func fetch(ctx context.Context, src DataSource) (snapshot, error) {
	var (
		portfolio *apiclient.Portfolio
		holdings  []apiclient.Holding
		stocks    []apiclient.Stock
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		portfolio, err = src.GetPortfolio(gctx)
		return err
	})
	g.Go(func() (err error) {
		holdings, err = src.GetHoldings(gctx)
		return err
	})
	g.Go(func() (err error) {
		stocks, err = src.GetStocks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}

	return snapshot{cash: portfolio.CashBalance, holdings: Enrich(holdings, stocks)}, nil
}

// Load fetches and values the portfolio once.
func Load(ctx context.Context, src DataSource, now time.Time) (View, error) {
	snap, err := fetch(ctx, src)
	if err != nil {
		return View{}, fmt.Errorf("loading portfolio: %w", err)
	}
	v := Compute(snap.cash, snap.holdings, now)
	v.RefreshedAt = now
	return v, nil
}

type refreshResult struct {
	gen  uint64
	snap snapshot
	err  error
}

// Dashboard owns the portfolio state on a single goroutine (Run). Refreshes
// and streamed prices are applied there, and every change publishes a new
// View to the callback.
type Dashboard struct {
	source  DataSource
	feed    PriceFeed
	onView  func(View)
	now     func() time.Time
	refresh chan struct{}
	log     *zap.SugaredLogger
}

// New creates a dashboard. feed may be nil for a static view.
func New(source DataSource, pf PriceFeed, onView func(View)) *Dashboard {
	return &Dashboard{
		source:  source,
		feed:    pf,
		onView:  onView,
		now:     time.Now,
		refresh: make(chan struct{}, 1),
		log:     logger.Named("dashboard"),
	}
}

// Refresh asks the event loop to re-fetch everything. A refresh already in
// flight is cancelled and its result discarded.
func (d *Dashboard) Refresh() {
	select {
	case d.refresh <- struct{}{}:
	default:
	}
}

// Trade places an order and, on success, triggers a refresh.
func (d *Dashboard) Trade(ctx context.Context, order apiclient.Order) (*apiclient.TradeResult, error) {
	res, err := d.source.PlaceOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	d.Refresh()
	return res, nil
}

// Run loads the portfolio and then applies refreshes and streamed prices
// until ctx is cancelled. The price feed is closed on return.
func (d *Dashboard) Run(ctx context.Context) error {
	var updates <-chan feed.PriceUpdate
	if d.feed != nil {
		updates = d.feed.Updates()
		defer func() {
			if err := d.feed.Close(); err != nil {
				d.log.Warnw("closing price feed", "error", err)
			}
		}()
	}

	var state View
	var gen uint64
	inflight := context.CancelFunc(func() {})
	results := make(chan refreshResult)
	defer func() { inflight() }()

	start := func() {
		inflight()
		gen++
		rctx, cancel := context.WithCancel(ctx)
		inflight = cancel
		go d.runFetch(rctx, gen, results)
	}
	start()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-d.refresh:
			start()

		case res := <-results:
			if res.gen != gen {
				continue
			}
			if res.err != nil {
				d.log.Warnw("refresh failed", "error", res.err)
				state.Err = res.err
			} else {
				now := d.now()
				state = Compute(res.snap.cash, res.snap.holdings, now)
				state.RefreshedAt = now
			}
			d.publish(state)

		case u, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			patched, n := PatchPrice(state.Holdings, u)
			if n == 0 {
				continue
			}
			next := Compute(state.Cash, patched, d.now())
			next.RefreshedAt = state.RefreshedAt
			next.Err = state.Err
			state = next
			d.publish(state)
		}
	}
}

func (d *Dashboard) runFetch(ctx context.Context, gen uint64, out chan<- refreshResult) {
	snap, err := fetch(ctx, d.source)
	select {
	case out <- refreshResult{gen: gen, snap: snap, err: err}:
	case <-ctx.Done():
	}
}

func (d *Dashboard) publish(v View) {
	if d.onView != nil {
		d.onView(v)
	}
}
