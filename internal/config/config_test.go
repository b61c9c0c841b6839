package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("STARTING_CASH", "")
	t.Setenv("JWT_EXPIRES_IN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.DBDriver)
	}
	if cfg.StartingCash.String() != "100000" {
		t.Errorf("expected starting cash 100000, got %s", cfg.StartingCash)
	}
	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("expected 24h expiry, got %s", cfg.JWTExpirationDur)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unsupported driver")
		}
	})

	t.Run("negative starting cash", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("STARTING_CASH", "-5")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for negative starting cash")
		}
	})

	t.Run("bad duration falls back", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("STARTING_CASH", "")
		t.Setenv("STOCK_CACHE_TTL", "soon")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.StockCacheTTL != 5*time.Second {
			t.Errorf("expected fallback TTL, got %s", cfg.StockCacheTTL)
		}
	})
}

func TestLoadOracle(t *testing.T) {
	t.Run("requires api url", func(t *testing.T) {
		t.Setenv("TRADEDESK_API_URL", "")
		t.Setenv("PIPELINE_API_KEY", "key")
		if _, err := LoadOracle(); err == nil {
			t.Fatal("expected error when TRADEDESK_API_URL is missing")
		}
	})

	t.Run("requires api key", func(t *testing.T) {
		t.Setenv("TRADEDESK_API_URL", "http://localhost:8080")
		t.Setenv("PIPELINE_API_KEY", "")
		if _, err := LoadOracle(); err == nil {
			t.Fatal("expected error when PIPELINE_API_KEY is missing")
		}
	})

	t.Run("parses tracked symbols", func(t *testing.T) {
		t.Setenv("TRADEDESK_API_URL", "http://localhost:8080")
		t.Setenv("PIPELINE_API_KEY", "key")
		t.Setenv("TRACKED_SYMBOLS", " infy.ns, ,TCS.NS ")
		cfg, err := LoadOracle()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.TrackedSymbols) != 2 || cfg.TrackedSymbols[0] != "INFY.NS" || cfg.TrackedSymbols[1] != "TCS.NS" {
			t.Errorf("unexpected symbols: %v", cfg.TrackedSymbols)
		}
	})

	t.Run("defaults to nifty 50", func(t *testing.T) {
		t.Setenv("TRADEDESK_API_URL", "http://localhost:8080")
		t.Setenv("PIPELINE_API_KEY", "key")
		t.Setenv("TRACKED_SYMBOLS", "")
		cfg, err := LoadOracle()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.TrackedSymbols) != 50 {
			t.Errorf("expected 50 default symbols, got %d", len(cfg.TrackedSymbols))
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected default timeout 30s, got %s", cfg.RequestTimeout)
		}
	})

	t.Run("rejects bad log level", func(t *testing.T) {
		t.Setenv("TRADEDESK_API_URL", "http://localhost:8080")
		t.Setenv("PIPELINE_API_KEY", "key")
		t.Setenv("LOG_LEVEL", "verbose")
		if _, err := LoadOracle(); err == nil {
			t.Fatal("expected error for invalid log level")
		}
	})
}

func TestLoadClient(t *testing.T) {
	t.Setenv("TRADEDESK_API_URL", "https://trade.example.com/")
	t.Setenv("TRADEDESK_SESSION", "/tmp/session.json")
	t.Setenv("CURRENCY", "usd")

	cfg := LoadClient()
	if cfg.APIURL != "https://trade.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.APIURL)
	}
	if cfg.SessionFile != "/tmp/session.json" {
		t.Errorf("unexpected session file %s", cfg.SessionFile)
	}
	if cfg.Currency != "USD" {
		t.Errorf("expected upper-cased currency, got %s", cfg.Currency)
	}

	t.Setenv("TRADEDESK_API_URL", "")
	t.Setenv("TRADEDESK_SESSION", "")
	t.Setenv("CURRENCY", "")
	cfg = LoadClient()
	if cfg.APIURL != "http://localhost:8080" || cfg.Currency != "INR" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionFile == "" {
		t.Error("expected a default session file")
	}
}
