package services

import (
	"time"

	"github.com/shopspring/decimal"

	"tradedesk/internal/models"
	"tradedesk/internal/pagination"
	"tradedesk/internal/stream"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
}

// PortfolioServicer defines the read side of a user's portfolio.
type PortfolioServicer interface {
	GetPortfolio(userID string) (*models.Portfolio, error)
	ListHoldings(userID string) ([]models.Holding, error)
	ListTransactions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// TradeResult is the state left behind by an executed order.
type TradeResult struct {
	Transaction *models.Transaction
	CashBalance decimal.Decimal
	// Holding is nil when a sell closed the position.
	Holding *models.Holding
}

// TradeServicer executes market orders at the latest close.
type TradeServicer interface {
	Execute(userID, symbol string, quantity int64, txType models.TransactionType) (*TradeResult, error)
}

// StockQuote pairs a stock with its most recent daily bar, if any.
type StockQuote struct {
	Stock  models.Stock
	Latest *models.PriceBar
}

// StockInput describes a stock to create or refresh.
type StockInput struct {
	Symbol         string
	CompanyName    string
	Sector         string
	Exchange       string
	ProviderSymbol string
}

// BarInput is one daily bar to record.
type BarInput struct {
	Symbol string
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// StockServicer defines the contract for stock and price history access.
type StockServicer interface {
	ListWithLatestOHLC() ([]StockQuote, error)
	GetStockByID(id string) (*models.Stock, error)
	GetStockBySymbol(symbol string) (*models.Stock, error)
	GetHistory(stockID string) ([]models.PriceBar, error)
	LatestBars(stockIDs []string) (map[string]models.PriceBar, error)
	UpsertStocks(inputs []StockInput) (int, error)
	RecordBars(inputs []BarInput) (int, error)
	Invalidate()
}

// TickInput is a live price observation.
type TickInput struct {
	Symbol string
	Price  decimal.Decimal
	Volume int64
	At     time.Time
}

// MarketServicer folds live ticks into today's bars.
type MarketServicer interface {
	ApplyTick(tick TickInput) (bool, error)
	ApplyTicks(ticks []TickInput) (int, error)
}

// PricePublisher receives every accepted price change.
type PricePublisher interface {
	Publish(update stream.PriceUpdate)
}

// SnapshotServicer records and reads daily portfolio valuations.
type SnapshotServicer interface {
	ComputeAndRecordSnapshots(recordedAt time.Time) (int, error)
	GetSnapshots(userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
