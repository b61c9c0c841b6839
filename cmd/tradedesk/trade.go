package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"tradedesk/internal/apiclient"
)

// tradeCmd implements both buy and sell.
type tradeCmd struct {
	side string
}

func (c *tradeCmd) Name() string { return strings.ToLower(c.side) }

func (c *tradeCmd) Synopsis() string {
	return fmt.Sprintf("%s shares at the latest price", strings.ToLower(c.side))
}

func (c *tradeCmd) Usage() string {
	return fmt.Sprintf("tradedesk %s <symbol> <quantity>\n", c.Name())
}

func (*tradeCmd) SetFlags(_ *flag.FlagSet) {}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, "Usage: ", c.Usage())
		return subcommands.ExitUsageError
	}
	qty, err := strconv.ParseInt(f.Arg(1), 10, 64)
	if err != nil || qty <= 0 {
		fmt.Fprintf(os.Stderr, "Quantity must be a positive whole number, got %q.\n", f.Arg(1))
		return subcommands.ExitUsageError
	}
	if !a.requireLogin() {
		return subcommands.ExitFailure
	}

	symbol := f.Arg(0)
	if stocks, err := a.client.GetStocks(ctx); err == nil {
		if s, ok := findStock(stocks, symbol); ok {
			symbol = s.Symbol
		}
	}

	res, err := a.client.PlaceOrder(ctx, apiclient.Order{Symbol: symbol, Quantity: qty, Side: c.side})
	if err != nil {
		a.fail("placing order", err)
		return subcommands.ExitFailure
	}
	a.printMarkdown(a.renderer.Trade(res))
	return subcommands.ExitSuccess
}
