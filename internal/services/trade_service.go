package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/models"
)

// Scale of stored prices and average costs.
const priceScale = 4

type tradeService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTradeService creates a new TradeServicer.
func NewTradeService(db *gorm.DB) TradeServicer {
	return &tradeService{db: db, now: time.Now}
}

// Execute fills a market order for the user's portfolio at the stock's latest
// close. Cash, the holding and the transaction log change together or not at all.
func (s *tradeService) Execute(userID, symbol string, quantity int64, txType models.TransactionType) (*TradeResult, error) {
	if !txType.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if quantity <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be a positive integer")
	}

	var result *TradeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		portfolio, err := lockPortfolio(tx, userID)
		if err != nil {
			return err
		}

		stock, err := findStockBySymbol(tx, symbol)
		if err != nil {
			return err
		}

		bars, err := latestBars(tx, []string{stock.ID})
		if err != nil {
			return err
		}
		bar, ok := bars[stock.ID]
		if !ok {
			return apperrors.ErrNoPriceData
		}
		price := bar.Close
		total := price.Mul(decimal.NewFromInt(quantity)).Round(2)
		now := s.now().UTC()

		var holding models.Holding
		hasHolding := true
		if err := tx.Where("portfolio_id = ? AND stock_id = ?", portfolio.ID, stock.ID).
			First(&holding).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			hasHolding = false
		}

		cash := portfolio.CashBalance
		var remaining *models.Holding

		switch txType {
		case models.TransactionTypeBuy:
			if cash.LessThan(total) {
				return apperrors.ErrInsufficientBalance
			}
			cash = cash.Sub(total)

			if !hasHolding {
				holding = models.Holding{
					PortfolioID:         portfolio.ID,
					StockID:             stock.ID,
					Quantity:            quantity,
					AverageCostPerShare: price,
					LastUpdated:         now,
				}
				if err := tx.Create(&holding).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			} else {
				newQty := holding.Quantity + quantity
				cost := holding.AverageCostPerShare.Mul(decimal.NewFromInt(holding.Quantity)).
					Add(price.Mul(decimal.NewFromInt(quantity)))
				holding.Quantity = newQty
				holding.AverageCostPerShare = cost.DivRound(decimal.NewFromInt(newQty), priceScale)
				holding.LastUpdated = now
				if err := saveHolding(tx, &holding); err != nil {
					return err
				}
			}
			remaining = &holding

		case models.TransactionTypeSell:
			if !hasHolding || holding.Quantity < quantity {
				return apperrors.ErrInsufficientHoldings
			}
			cash = cash.Add(total)

			holding.Quantity -= quantity
			if holding.Quantity == 0 {
				// Hard delete so a later buy can reuse the (portfolio, stock) slot.
				if err := tx.Unscoped().Delete(&holding).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			} else {
				holding.LastUpdated = now
				if err := saveHolding(tx, &holding); err != nil {
					return err
				}
				remaining = &holding
			}
		}

		if err := tx.Model(portfolio).Update("cash_balance", cash).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		txn := &models.Transaction{
			PortfolioID:     portfolio.ID,
			StockID:         stock.ID,
			Type:            txType,
			Quantity:        quantity,
			PricePerShare:   price,
			TransactionDate: now,
		}
		if err := tx.Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		txn.Stock = *stock
		if remaining != nil {
			remaining.Stock = *stock
		}

		result = &TradeResult{Transaction: txn, CashBalance: cash, Holding: remaining}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return result, nil
}

// lockPortfolio loads the user's portfolio, taking a row lock where the
// database supports one. SQLite serialises writers on its own.
func lockPortfolio(tx *gorm.DB, userID string) (*models.Portfolio, error) {
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return findPortfolio(tx, userID)
}

func saveHolding(tx *gorm.DB, h *models.Holding) error {
	if err := tx.Model(h).Updates(map[string]interface{}{
		"quantity":               h.Quantity,
		"average_cost_per_share": h.AverageCostPerShare,
		"last_updated":           h.LastUpdated,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
