// Command tradedesk is a terminal dashboard for a tradedesk account.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/logger"
)

var (
	verbose = flag.Bool("v", false, "Log debug output to stderr")
	style   = flag.String("style", "auto", "Markdown style: auto, dark, light or notty")
	width   = flag.Int("width", 100, "Wrap output at this many columns")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&registerCmd{}, "account")
	commander.Register(&loginCmd{}, "account")
	commander.Register(&logoutCmd{}, "account")

	commander.Register(&summaryCmd{}, "portfolio")
	commander.Register(&watchCmd{}, "portfolio")
	commander.Register(&transactionsCmd{}, "portfolio")
	commander.Register(&historyCmd{}, "portfolio")

	commander.Register(&tradeCmd{side: apiclient.Buy}, "trading")
	commander.Register(&tradeCmd{side: apiclient.Sell}, "trading")

	flag.Parse()

	logger.Init("development")
	if !*verbose {
		logger.SetLevel("warn")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx, newApp())
	stop()
	logger.Sync()
	os.Exit(int(status))
}
