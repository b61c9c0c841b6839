package models

import "github.com/shopspring/decimal"

// DefaultPortfolioName is given to the portfolio opened at registration.
const DefaultPortfolioName = "Default Portfolio"

// Portfolio is a cash account plus the stock holdings bought with it.
type Portfolio struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string          `gorm:"not null;size:100" json:"portfolio_name"`
	CashBalance decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"cash_balance"`
	Holdings    []Holding       `gorm:"foreignKey:PortfolioID" json:"holdings,omitempty"`
}
