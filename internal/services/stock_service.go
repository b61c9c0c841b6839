package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradedesk/internal/cache"
	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/logger"
	"tradedesk/internal/models"
)

type stockService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewStockService creates a new StockServicer. The stock list is cached in c,
// which may be nil to disable caching.
func NewStockService(db *gorm.DB, c *cache.Cache) StockServicer {
	return &stockService{db: db, cache: c}
}

// ListWithLatestOHLC returns every stock ordered by symbol with its newest bar.
// Callers must treat the result as read-only since it may be shared.
func (s *stockService) ListWithLatestOHLC() ([]StockQuote, error) {
	if quotes, ok := cache.GetAs[[]StockQuote](s.cache, cache.StocksLatestKey); ok {
		return quotes, nil
	}

	var stocks []models.Stock
	if err := s.db.Order("symbol ASC").Find(&stocks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ids := make([]string, 0, len(stocks))
	for i := range stocks {
		ids = append(ids, stocks[i].ID)
	}
	latest, err := s.LatestBars(ids)
	if err != nil {
		return nil, err
	}

	quotes := make([]StockQuote, 0, len(stocks))
	for i := range stocks {
		q := StockQuote{Stock: stocks[i]}
		if bar, ok := latest[stocks[i].ID]; ok {
			q.Latest = &bar
		}
		quotes = append(quotes, q)
	}

	s.cache.Set(cache.StocksLatestKey, quotes)
	return quotes, nil
}

// GetStockByID returns a stock by its ID.
func (s *stockService) GetStockByID(id string) (*models.Stock, error) {
	var stock models.Stock
	if err := s.db.Where("id = ?", id).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// GetStockBySymbol looks a stock up by ticker, case-insensitively.
func (s *stockService) GetStockBySymbol(symbol string) (*models.Stock, error) {
	return findStockBySymbol(s.db, symbol)
}

// GetHistory returns all daily bars of a stock, oldest first.
func (s *stockService) GetHistory(stockID string) ([]models.PriceBar, error) {
	if _, err := s.GetStockByID(stockID); err != nil {
		return nil, err
	}

	var bars []models.PriceBar
	if err := s.db.Where("stock_id = ?", stockID).Order("date ASC").Find(&bars).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(bars) == 0 {
		return nil, apperrors.ErrHistoryNotFound
	}
	return bars, nil
}

// LatestBars returns the newest bar for each of the given stocks. Stocks
// without bars are absent from the map.
func (s *stockService) LatestBars(stockIDs []string) (map[string]models.PriceBar, error) {
	return latestBars(s.db, stockIDs)
}

// UpsertStocks creates unknown stocks and refreshes the descriptive fields of
// known ones. It returns how many stocks were created.
func (s *stockService) UpsertStocks(inputs []StockInput) (int, error) {
	if len(inputs) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Stocks array is empty")
	}

	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, in := range inputs {
			symbol := normalizeSymbol(in.Symbol)
			if symbol == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "Stock symbol is required")
			}

			var stock models.Stock
			err := tx.Where("symbol = ?", symbol).First(&stock).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				stock = models.Stock{
					Symbol:         symbol,
					CompanyName:    in.CompanyName,
					Sector:         in.Sector,
					Exchange:       in.Exchange,
					ProviderSymbol: in.ProviderSymbol,
				}
				if err := tx.Create(&stock).Error; err != nil {
					return err
				}
				created++
			case err != nil:
				return err
			default:
				updates := map[string]interface{}{}
				if in.CompanyName != "" {
					updates["company_name"] = in.CompanyName
				}
				if in.Sector != "" {
					updates["sector"] = in.Sector
				}
				if in.Exchange != "" {
					updates["exchange"] = in.Exchange
				}
				if in.ProviderSymbol != "" {
					updates["provider_symbol"] = in.ProviderSymbol
				}
				if len(updates) > 0 {
					if err := tx.Model(&stock).Updates(updates).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.Invalidate()
	return created, nil
}

// RecordBars inserts daily bars, skipping any (stock, date) already present.
// Bars for unknown symbols are skipped and logged. It returns how many bars
// were inserted.
func (s *stockService) RecordBars(inputs []BarInput) (int, error) {
	if len(inputs) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Bars array is empty")
	}

	stockIDs := map[string]string{}
	var skipped []string
	count := 0
	for _, in := range inputs {
		symbol := normalizeSymbol(in.Symbol)
		stockID, ok := stockIDs[symbol]
		if !ok {
			stock, err := findStockBySymbol(s.db, symbol)
			if err != nil {
				if errors.Is(err, apperrors.ErrStockNotFound) {
					stockIDs[symbol] = ""
					skipped = append(skipped, symbol)
					continue
				}
				return count, err
			}
			stockID = stock.ID
			stockIDs[symbol] = stockID
		}
		if stockID == "" {
			continue
		}

		bar := models.PriceBar{
			StockID: stockID,
			Date:    models.TradingDate(in.Date),
			Open:    in.Open,
			High:    in.High,
			Low:     in.Low,
			Close:   in.Close,
			Volume:  in.Volume,
		}
		result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&bar)
		if result.Error != nil {
			return count, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		count += int(result.RowsAffected)
	}

	if len(skipped) > 0 {
		logger.Get().Warnw("skipped bars for unknown stocks", "symbols", skipped)
	}
	if count > 0 {
		s.Invalidate()
	}
	return count, nil
}

// Invalidate drops the cached stock list.
func (s *stockService) Invalidate() {
	s.cache.Del(cache.StocksLatestKey)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func findStockBySymbol(db *gorm.DB, symbol string) (*models.Stock, error) {
	var stock models.Stock
	if err := db.Where("symbol = ?", normalizeSymbol(symbol)).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrStockNotFound, "Stock not found: "+normalizeSymbol(symbol))
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// latestBars returns the newest bar per stock using a max(date) subquery join.
func latestBars(db *gorm.DB, stockIDs []string) (map[string]models.PriceBar, error) {
	result := make(map[string]models.PriceBar, len(stockIDs))
	if len(stockIDs) == 0 {
		return result, nil
	}

	var bars []models.PriceBar
	sub := db.Model(&models.PriceBar{}).
		Select("stock_id, MAX(date) AS max_date").
		Where("stock_id IN ?", stockIDs).
		Group("stock_id")
	if err := db.Model(&models.PriceBar{}).
		Joins("JOIN (?) AS latest ON latest.stock_id = price_bars.stock_id AND latest.max_date = price_bars.date", sub).
		Find(&bars).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, bar := range bars {
		result[bar.StockID] = bar
	}
	return result, nil
}
