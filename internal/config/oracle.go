package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultTrackedSymbols is the NIFTY 50 constituent list, as Yahoo tickers.
var DefaultTrackedSymbols = []string{
	"ADANIENT.NS", "ADANIPORTS.NS", "APOLLOHOSP.NS", "ASIANPAINT.NS", "AXISBANK.NS",
	"BAJAJ-AUTO.NS", "BAJFINANCE.NS", "BAJAJFINSV.NS", "BPCL.NS", "BHARTIARTL.NS",
	"BRITANNIA.NS", "CIPLA.NS", "COALINDIA.NS", "DIVISLAB.NS", "DRREDDY.NS",
	"EICHERMOT.NS", "GRASIM.NS", "HCLTECH.NS", "HDFCBANK.NS", "HDFCLIFE.NS",
	"HEROMOTOCO.NS", "HINDALCO.NS", "HINDUNILVR.NS", "ICICIBANK.NS", "ITC.NS",
	"INDUSINDBK.NS", "INFY.NS", "JSWSTEEL.NS", "KOTAKBANK.NS", "LTIM.NS",
	"LT.NS", "M&M.NS", "MARUTI.NS", "NTPC.NS", "NESTLEIND.NS",
	"ONGC.NS", "POWERGRID.NS", "RELIANCE.NS", "SBILIFE.NS", "SBIN.NS",
	"SUNPHARMA.NS", "TATAMOTORS.NS", "TATACONSUM.NS", "TATASTEEL.NS", "TCS.NS",
	"TECHM.NS", "TITAN.NS", "ULTRACEMCO.NS", "UPL.NS", "WIPRO.NS",
}

// OracleConfig holds the market data feeder configuration.
type OracleConfig struct {
	APIURL           string
	PipelineAPIKey   string
	LogLevel         string
	RequestTimeout   time.Duration
	Schedule         string
	SnapshotSchedule string
	ComputeSnapshots bool
	Seed             bool
	SeedRange        string
	TrackedSymbols   []string
}

// LoadOracle reads the oracle configuration and validates required fields.
func LoadOracle() (*OracleConfig, error) {
	loadDotEnv()

	cfg := &OracleConfig{
		APIURL:           os.Getenv("TRADEDESK_API_URL"),
		PipelineAPIKey:   os.Getenv("PIPELINE_API_KEY"),
		Schedule:         getEnv("ORACLE_SCHEDULE", "@every 15s"),
		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 30 16 * * MON-FRI"),
		SeedRange:        getEnv("SEED_RANGE", "1mo"),
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("TRADEDESK_API_URL is required")
	}
	if cfg.PipelineAPIKey == "" {
		return nil, fmt.Errorf("PIPELINE_API_KEY is required")
	}

	level, err := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	timeout, err := parseTimeout(os.Getenv("REQUEST_TIMEOUT"))
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = timeout

	if cfg.ComputeSnapshots, err = parseBool(os.Getenv("COMPUTE_SNAPSHOTS"), true); err != nil {
		return nil, fmt.Errorf("invalid COMPUTE_SNAPSHOTS value: %w", err)
	}
	if cfg.Seed, err = parseBool(os.Getenv("ORACLE_SEED"), true); err != nil {
		return nil, fmt.Errorf("invalid ORACLE_SEED value: %w", err)
	}

	cfg.TrackedSymbols = parseSymbols(os.Getenv("TRACKED_SYMBOLS"))
	if len(cfg.TrackedSymbols) == 0 {
		cfg.TrackedSymbols = DefaultTrackedSymbols
	}

	return cfg, nil
}

func parseLogLevel(s string) (string, error) {
	if s == "" {
		return "info", nil
	}
	switch l := strings.ToLower(s); l {
	case "debug", "info", "warn", "error":
		return l, nil
	default:
		return "", fmt.Errorf("invalid LOG_LEVEL %q: must be debug, info, warn, or error", s)
	}
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", d)
	}
	return d, nil
}

// parseSymbols splits a comma-separated ticker list, dropping blanks.
func parseSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
