package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/models"
	"tradedesk/internal/pagination"
)

type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// GetPortfolio returns the user's default portfolio.
func (s *portfolioService) GetPortfolio(userID string) (*models.Portfolio, error) {
	return findPortfolio(s.db, userID)
}

// ListHoldings returns the user's open positions with their stocks loaded,
// ordered by symbol.
func (s *portfolioService) ListHoldings(userID string) ([]models.Holding, error) {
	portfolio, err := findPortfolio(s.db, userID)
	if err != nil {
		return nil, err
	}

	var holdings []models.Holding
	if err := s.db.Preload("Stock").
		Joins("JOIN stocks ON stocks.id = holdings.stock_id").
		Where("holdings.portfolio_id = ?", portfolio.ID).
		Order("stocks.symbol ASC").
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	return holdings, nil
}

// ListTransactions returns the user's trades, newest first.
func (s *portfolioService) ListTransactions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Normalize()

	portfolio, err := findPortfolio(s.db, userID)
	if err != nil {
		return nil, err
	}

	var totalItems int64
	base := s.db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolio.ID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txs []models.Transaction
	if err := base.Preload("Stock").
		Order("transaction_date DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// findPortfolio loads the user's oldest portfolio, which is the one opened at
// registration.
func findPortfolio(db *gorm.DB, userID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}
