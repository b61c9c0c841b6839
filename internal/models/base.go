// Package models holds the GORM models backing the trading API.
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradedesk/internal/uuid"
)

func init() {
	// Prices and balances travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base contains common columns for all tables
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// TradingDate truncates t to its calendar day, expressed as midnight UTC.
// Daily bars are keyed by this value.
func TradingDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// All lists every model, in dependency order, for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Portfolio{},
		&Stock{},
		&PriceBar{},
		&Holding{},
		&Transaction{},
		&PortfolioSnapshot{},
		&AuditLog{},
	}
}
