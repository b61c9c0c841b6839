// Command oracle feeds market data into the tradedesk API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/config"
	"tradedesk/internal/logger"
	"tradedesk/internal/oracle"
	"tradedesk/internal/provider"
	"tradedesk/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "Run a single poll cycle and exit")
	flag.Parse()

	cfg, err := config.LoadOracle()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("ENV"))
	logger.SetLevel(cfg.LogLevel)

	code := run(cfg, *once)
	logger.Sync()
	os.Exit(code)
}

func run(cfg *config.OracleConfig, once bool) int {
	log := logger.Named("oracle")

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	client := apiclient.NewPipelineClient(cfg.APIURL, cfg.PipelineAPIKey, httpClient)
	orc := oracle.NewOracle(client, provider.NewYahooProvider(httpClient), cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed {
		if _, err := orc.Seed(ctx); err != nil {
			log.Errorw("seed failed", "error", err)
			return 1
		}
	}

	if once {
		result, err := orc.Run(ctx)
		if err != nil {
			log.Errorw("oracle run failed", "error", err)
			return 1
		}
		if cfg.ComputeSnapshots {
			if _, err := orc.Snapshot(ctx); err != nil {
				log.Warnw("failed to compute snapshots", "error", err)
			}
		}
		if len(result.Errors) > 0 {
			return 2
		}
		return 0
	}

	jobs := scheduler.New()
	poll := scheduler.JobFunc{JobName: "poll-quotes", Fn: func(ctx context.Context) error {
		_, err := orc.Run(ctx)
		return err
	}}
	if err := jobs.AddJob(cfg.Schedule, poll); err != nil {
		log.Errorw("invalid ORACLE_SCHEDULE", "error", err)
		return 1
	}
	if cfg.ComputeSnapshots {
		snap := scheduler.JobFunc{JobName: "portfolio-snapshots", Fn: func(ctx context.Context) error {
			_, err := orc.Snapshot(ctx)
			return err
		}}
		if err := jobs.AddJob(cfg.SnapshotSchedule, snap); err != nil {
			log.Errorw("invalid SNAPSHOT_SCHEDULE", "error", err)
			return 1
		}
	}

	jobs.Start()
	log.Infow("oracle started", "symbols", len(cfg.TrackedSymbols), "schedule", cfg.Schedule)
	<-ctx.Done()
	jobs.Stop()
	return 0
}
