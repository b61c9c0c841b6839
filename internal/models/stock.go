package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradedesk/internal/uuid"
)

// Stock is a listed equity that can be traded.
type Stock struct {
	Base
	Symbol         string `gorm:"uniqueIndex;not null;size:32" json:"symbol"`
	CompanyName    string `gorm:"size:255" json:"company_name"`
	Sector         string `gorm:"size:100" json:"sector"`
	Exchange       string `gorm:"size:16" json:"exchange,omitempty"`
	ProviderSymbol string `gorm:"size:32" json:"provider_symbol,omitempty"`
}

// PriceBar is one daily OHLCV bar for a stock.
// This is time-series data: no soft deletes, one row per stock and day.
type PriceBar struct {
	ID      string          `gorm:"type:uuid;primaryKey" json:"id"`
	StockID string          `gorm:"type:uuid;not null;uniqueIndex:uq_price_bars_stock_date" json:"stock_id"`
	Date    time.Time       `gorm:"type:date;not null;uniqueIndex:uq_price_bars_stock_date" json:"date"`
	Open    decimal.Decimal `gorm:"type:numeric(15,4);not null" json:"open"`
	High    decimal.Decimal `gorm:"type:numeric(15,4);not null" json:"high"`
	Low     decimal.Decimal `gorm:"type:numeric(15,4);not null" json:"low"`
	Close   decimal.Decimal `gorm:"type:numeric(15,4);not null" json:"close"`
	Volume  int64           `gorm:"not null;default:0" json:"volume"`
	Stock   Stock           `gorm:"foreignKey:StockID" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PriceBar) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
