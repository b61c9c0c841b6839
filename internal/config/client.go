package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ClientConfig holds settings for the terminal dashboard.
type ClientConfig struct {
	APIURL      string
	SessionFile string
	Currency    string
}

// LoadClient reads the dashboard configuration. It never fails: every value
// has a usable default.
func LoadClient() *ClientConfig {
	loadDotEnv()

	sessionFile := os.Getenv("TRADEDESK_SESSION")
	if sessionFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			sessionFile = filepath.Join(home, ".tradedesk", "session.json")
		} else {
			sessionFile = ".tradedesk-session.json"
		}
	}

	return &ClientConfig{
		APIURL:      strings.TrimRight(getEnv("TRADEDESK_API_URL", "http://localhost:8080"), "/"),
		SessionFile: sessionFile,
		Currency:    strings.ToUpper(getEnv("CURRENCY", "INR")),
	}
}
