package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/logger"
	"tradedesk/internal/models"
	"tradedesk/internal/stream"
)

type marketService struct {
	db        *gorm.DB
	stocks    StockServicer
	publisher PricePublisher
	now       func() time.Time
}

// NewMarketService creates a MarketServicer. Accepted price changes are
// published to publisher, which may be nil.
func NewMarketService(db *gorm.DB, stocks StockServicer, publisher PricePublisher) MarketServicer {
	return &marketService{db: db, stocks: stocks, publisher: publisher, now: time.Now}
}

// ApplyTick folds one live price into the stock's bar for the tick's day.
// The first tick of a day opens a new bar; later ticks move close and widen
// high and low. Ticks for unknown symbols or with a non-positive price are
// ignored. It reports whether the tick changed anything.
func (s *marketService) ApplyTick(tick TickInput) (bool, error) {
	if !tick.Price.IsPositive() {
		return false, nil
	}
	at := tick.At
	if at.IsZero() {
		at = s.now()
	}

	stock, err := findStockBySymbol(s.db, tick.Symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrStockNotFound) {
			logger.Get().Debugw("tick for unknown stock ignored", "symbol", tick.Symbol)
			return false, nil
		}
		return false, err
	}

	day := models.TradingDate(at)
	var bar models.PriceBar
	err = s.db.Where("stock_id = ? AND date = ?", stock.ID, day).First(&bar).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		bar = models.PriceBar{
			StockID: stock.ID,
			Date:    day,
			Open:    tick.Price,
			High:    tick.Price,
			Low:     tick.Price,
			Close:   tick.Price,
			Volume:  tick.Volume,
		}
		if err := s.db.Create(&bar).Error; err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		logger.Get().Infow("first tick of the day", "symbol", stock.Symbol, "price", tick.Price.String())

	case err != nil:
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)

	default:
		if bar.Close.Equal(tick.Price) {
			return false, nil
		}
		updates := map[string]interface{}{
			"close": tick.Price,
			"high":  decimal.Max(bar.High, tick.Price),
			"low":   decimal.Min(bar.Low, tick.Price),
		}
		if tick.Volume > bar.Volume {
			updates["volume"] = tick.Volume
		}
		if err := s.db.Model(&bar).Updates(updates).Error; err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	s.stocks.Invalidate()
	if s.publisher != nil {
		s.publisher.Publish(stream.PriceUpdate{Symbol: stock.Symbol, Price: tick.Price.InexactFloat64()})
	}
	return true, nil
}

// ApplyTicks applies ticks in order and returns how many changed a bar.
func (s *marketService) ApplyTicks(ticks []TickInput) (int, error) {
	if len(ticks) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Ticks array is empty")
	}

	applied := 0
	for _, t := range ticks {
		ok, err := s.ApplyTick(t)
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}
