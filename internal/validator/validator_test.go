package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type orderForm struct {
	Symbol string `binding:"required,ticker"`
	Type   string `binding:"required,transaction_type"`
}

func TestRegister(t *testing.T) {
	Register()

	tests := []struct {
		name  string
		form  orderForm
		valid bool
	}{
		{"buy", orderForm{"RELIANCE.NS", "BUY"}, true},
		{"sell lowercase symbol", orderForm{"tcs.ns", "SELL"}, true},
		{"ampersand ticker", orderForm{"M&M.NS", "BUY"}, true},
		{"index", orderForm{"^NSEI", "BUY"}, true},
		{"lowercase type", orderForm{"TCS.NS", "buy"}, false},
		{"unknown type", orderForm{"TCS.NS", "HOLD"}, false},
		{"bad ticker", orderForm{"TCS NS", "BUY"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.form)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
