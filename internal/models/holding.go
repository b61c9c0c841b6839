package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position in one stock inside a portfolio.
// A holding never has zero quantity; selling out deletes the row.
type Holding struct {
	Base
	PortfolioID         string          `gorm:"type:uuid;not null;uniqueIndex:uq_holdings_portfolio_stock" json:"portfolio_id"`
	StockID             string          `gorm:"type:uuid;not null;uniqueIndex:uq_holdings_portfolio_stock" json:"stock_id"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	AverageCostPerShare decimal.Decimal `gorm:"type:numeric(15,4);not null" json:"average_cost_per_share"`
	LastUpdated         time.Time       `gorm:"not null" json:"last_updated"`
	Stock               Stock           `gorm:"foreignKey:StockID" json:"-"`
}
