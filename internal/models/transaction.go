package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the side of a trade
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

// Valid reports whether t is BUY or SELL.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeBuy || t == TransactionTypeSell
}

// Transaction records an executed trade. Rows are append-only.
type Transaction struct {
	Base
	PortfolioID     string          `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	StockID         string          `gorm:"type:uuid;not null;index" json:"stock_id"`
	Type            TransactionType `gorm:"not null;size:4" json:"transaction_type"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	PricePerShare   decimal.Decimal `gorm:"type:numeric(15,4);not null" json:"price_per_share"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	Stock           Stock           `gorm:"foreignKey:StockID" json:"-"`
}

// Total returns quantity times price.
func (t *Transaction) Total() decimal.Decimal {
	return t.PricePerShare.Mul(decimal.NewFromInt(t.Quantity))
}
