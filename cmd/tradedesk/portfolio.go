package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/dashboard"
	"tradedesk/internal/feed"
)

const clearScreen = "\033[H\033[2J"

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio summary" }
func (*summaryCmd) Usage() string {
	return `tradedesk summary

  Displays portfolio value, buying power, today's and total P&L, holdings,
  allocation and the top movers.
`
}
func (*summaryCmd) SetFlags(_ *flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if !a.requireLogin() {
		return subcommands.ExitFailure
	}

	v, err := dashboard.Load(ctx, a.client, time.Now())
	if err != nil {
		a.fail("loading summary", err)
		return subcommands.ExitFailure
	}
	a.printMarkdown(a.renderer.Summary("", v))
	return subcommands.ExitSuccess
}

type watchCmd struct {
	refresh time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "live portfolio summary driven by the price stream" }
func (*watchCmd) Usage() string {
	return `tradedesk watch [-refresh <duration>]

  Keeps the summary on screen and revalues it on every streamed price.
  Press Ctrl-C to stop.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.refresh, "refresh", time.Minute, "Full re-fetch interval (0 disables)")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if !a.requireLogin() {
		return subcommands.ExitFailure
	}

	streamURL, err := feed.StreamURL(a.cfg.APIURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	sub := feed.NewSubscriber(streamURL, nil)
	sub.Start(ctx)

	d := dashboard.New(a.client, sub, func(v dashboard.View) {
		fmt.Print(clearScreen)
		a.printMarkdown(a.renderer.Summary("", v))
	})

	if c.refresh > 0 {
		go func() {
			t := time.NewTicker(c.refresh)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					d.Refresh()
				}
			}
		}()
	}

	if err := d.Run(ctx); err != nil {
		a.fail("watching", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type transactionsCmd struct {
	page     int
	pageSize int
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list executed trades, newest first" }
func (*transactionsCmd) Usage() string {
	return "tradedesk transactions [-page <n>] [-n <size>]\n"
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.page, "page", 1, "Page number")
	f.IntVar(&c.pageSize, "n", 20, "Trades per page")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if !a.requireLogin() {
		return subcommands.ExitFailure
	}

	page, err := a.client.GetTransactions(ctx, c.page, c.pageSize)
	if err != nil {
		a.fail("fetching transactions", err)
		return subcommands.ExitFailure
	}
	a.printMarkdown(a.renderer.Transactions(page))
	return subcommands.ExitSuccess
}

type historyCmd struct{}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show a stock's daily price history" }
func (*historyCmd) Usage() string {
	return `tradedesk history <symbol>

  Symbols match exactly or without their exchange suffix, so INFY finds
  INFY.NS.
`
}
func (*historyCmd) SetFlags(_ *flag.FlagSet) {}

func (*historyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tradedesk history <symbol>")
		return subcommands.ExitUsageError
	}
	if !a.requireLogin() {
		return subcommands.ExitFailure
	}

	stocks, err := a.client.GetStocks(ctx)
	if err != nil {
		a.fail("fetching stocks", err)
		return subcommands.ExitFailure
	}
	stock, ok := findStock(stocks, f.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown symbol %q.\n", f.Arg(0))
		return subcommands.ExitFailure
	}

	h, err := a.client.GetStockHistory(ctx, stock.ID)
	if err != nil {
		a.fail("fetching history", err)
		return subcommands.ExitFailure
	}
	a.printMarkdown(a.renderer.History(h))
	return subcommands.ExitSuccess
}

// findStock matches symbol exactly, then by the part before the exchange suffix.
func findStock(stocks []apiclient.Stock, symbol string) (apiclient.Stock, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range stocks {
		if s.Symbol == symbol {
			return s, true
		}
	}
	for _, s := range stocks {
		if base, _, ok := strings.Cut(s.Symbol, "."); ok && base == symbol {
			return s, true
		}
	}
	return apiclient.Stock{}, false
}
