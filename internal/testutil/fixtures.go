package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tradedesk/internal/models"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a hashed password and unique name.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Username: fmt.Sprintf("trader%d", n),
		Email:    fmt.Sprintf("trader%d@test.com", n),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPortfolio creates a portfolio for the user with the given cash.
func CreateTestPortfolio(t *testing.T, db *gorm.DB, userID string, cash float64) *models.Portfolio {
	t.Helper()

	portfolio := &models.Portfolio{
		UserID:      userID,
		Name:        models.DefaultPortfolioName,
		CashBalance: decimal.NewFromFloat(cash),
	}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return portfolio
}

// CreateTestStock creates a stock with the given symbol.
func CreateTestStock(t *testing.T, db *gorm.DB, symbol string) *models.Stock {
	t.Helper()

	stock := &models.Stock{
		Symbol:      symbol,
		CompanyName: symbol + " Ltd",
		Sector:      "Technology",
		Exchange:    "NSE",
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateTestPriceBar records a daily bar with the given open and close.
// High and low are derived from the two.
func CreateTestPriceBar(t *testing.T, db *gorm.DB, stockID string, date time.Time, open, close float64) *models.PriceBar {
	t.Helper()

	o, c := decimal.NewFromFloat(open), decimal.NewFromFloat(close)
	bar := &models.PriceBar{
		StockID: stockID,
		Date:    models.TradingDate(date),
		Open:    o,
		High:    decimal.Max(o, c),
		Low:     decimal.Min(o, c),
		Close:   c,
		Volume:  1000,
	}
	if err := db.Create(bar).Error; err != nil {
		t.Fatalf("failed to create test price bar: %v", err)
	}
	return bar
}

// CreateTestHolding creates a holding last traded at the given time.
func CreateTestHolding(t *testing.T, db *gorm.DB, portfolioID, stockID string, qty int64, avgCost float64, lastUpdated time.Time) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		PortfolioID:         portfolioID,
		StockID:             stockID,
		Quantity:            qty,
		AverageCostPerShare: decimal.NewFromFloat(avgCost),
		LastUpdated:         lastUpdated,
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}
