// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tradedesk/internal/models"
)

// tickerRegex accepts exchange tickers such as "RELIANCE.NS", "M&M.NS" or "^NSEI".
var tickerRegex = regexp.MustCompile(`^\^?[A-Z0-9&\-]{1,20}(\.[A-Z]{1,4})?$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("ticker", validateTicker)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

// validateTicker is case-insensitive; services upper-case symbols before lookup.
func validateTicker(fl validator.FieldLevel) bool {
	return tickerRegex.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
}
