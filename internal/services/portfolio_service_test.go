package services

import (
	"testing"
	"time"

	"tradedesk/internal/models"
	"tradedesk/internal/pagination"
	"tradedesk/internal/testutil"
)

func TestGetPortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db)

	user := testutil.CreateTestUser(t, db)
	created := testutil.CreateTestPortfolio(t, db, user.ID, 2500.5)

	p, err := svc.GetPortfolio(user.ID)
	testutil.AssertNoError(t, err)
	if p.ID != created.ID {
		t.Errorf("expected portfolio %s, got %s", created.ID, p.ID)
	}
	testutil.AssertDecimal(t, "cash", p.CashBalance, "2500.5")

	stranger := testutil.CreateTestUser(t, db)
	_, err = svc.GetPortfolio(stranger.ID)
	testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
}

func TestListHoldings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db)

	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID, 0)
	tcs := testutil.CreateTestStock(t, db, "TCS.NS")
	infy := testutil.CreateTestStock(t, db, "INFY.NS")
	testutil.CreateTestHolding(t, db, p.ID, tcs.ID, 5, 3500, time.Now())
	testutil.CreateTestHolding(t, db, p.ID, infy.ID, 7, 1500, time.Now())

	other := testutil.CreateTestUser(t, db)
	op := testutil.CreateTestPortfolio(t, db, other.ID, 0)
	testutil.CreateTestHolding(t, db, op.ID, tcs.ID, 1, 1, time.Now())

	holdings, err := svc.ListHoldings(user.ID)
	testutil.AssertNoError(t, err)

	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[0].Stock.Symbol != "INFY.NS" || holdings[1].Stock.Symbol != "TCS.NS" {
		t.Errorf("expected holdings ordered by symbol with stock loaded, got %s, %s",
			holdings[0].Stock.Symbol, holdings[1].Stock.Symbol)
	}
}

func TestListTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db)

	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID, 0)
	stock := testutil.CreateTestStock(t, db, "TCS.NS")

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tx := &models.Transaction{
			PortfolioID:     p.ID,
			StockID:         stock.ID,
			Type:            models.TransactionTypeBuy,
			Quantity:        int64(i + 1),
			PricePerShare:   d("100"),
			TransactionDate: base.Add(time.Duration(i) * time.Hour),
		}
		if err := db.Create(tx).Error; err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	page, err := svc.ListTransactions(user.ID, pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)

	if page.TotalItems != 5 || page.TotalPages != 3 {
		t.Errorf("expected 5 items over 3 pages, got %d over %d", page.TotalItems, page.TotalPages)
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page.Data))
	}
	if page.Data[0].Quantity != 5 {
		t.Errorf("expected newest trade first, got quantity %d", page.Data[0].Quantity)
	}
	if page.Data[0].Stock.Symbol != "TCS.NS" {
		t.Errorf("expected stock preloaded, got %q", page.Data[0].Stock.Symbol)
	}

	empty, err := svc.ListTransactions(user.ID, pagination.PageRequest{Page: 9})
	testutil.AssertNoError(t, err)
	if len(empty.Data) != 0 {
		t.Errorf("expected empty page, got %d rows", len(empty.Data))
	}
}
