package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradedesk/internal/uuid"
)

// PortfolioSnapshot is the end-of-day valuation of a portfolio.
// This is immutable time-series data: no Base embed, no soft deletes.
type PortfolioSnapshot struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID   string          `gorm:"type:uuid;not null;uniqueIndex:uq_snapshots_portfolio_recorded" json:"portfolio_id"`
	RecordedAt    time.Time       `gorm:"not null;uniqueIndex:uq_snapshots_portfolio_recorded" json:"recorded_at"`
	CashBalance   decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"cash_balance"`
	HoldingsValue decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"holdings_value"`
	TotalValue    decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_value"`
	TodayPL       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"today_pl"`
	TotalGainLoss decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_gain_loss"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PortfolioSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
