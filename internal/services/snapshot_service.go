package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/logger"
	"tradedesk/internal/models"
	"tradedesk/internal/pagination"
	"tradedesk/internal/valuation"
)

// snapshotService records daily portfolio valuations.
type snapshotService struct {
	db *gorm.DB
}

// NewSnapshotService creates a new SnapshotServicer.
func NewSnapshotService(db *gorm.DB) SnapshotServicer {
	return &snapshotService{db: db}
}

// ComputeAndRecordSnapshots values every portfolio at its latest bars and
// stores the result under recordedAt, replacing any snapshot already taken at
// that instant. It returns the number of portfolios recorded.
func (s *snapshotService) ComputeAndRecordSnapshots(recordedAt time.Time) (int, error) {
	recordedAt = recordedAt.UTC().Truncate(time.Second)

	var portfolios []models.Portfolio
	if err := s.db.Preload("Holdings").Find(&portfolios).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	count := 0
	for i := range portfolios {
		snapshot, err := s.computeSnapshot(&portfolios[i], recordedAt)
		if err != nil {
			return count, err
		}

		if err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "portfolio_id"}, {Name: "recorded_at"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cash_balance", "holdings_value", "total_value", "today_pl", "total_gain_loss",
			}),
		}).Create(snapshot).Error; err != nil {
			return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		count++
	}

	logger.Get().Infow("portfolio snapshots recorded", "count", count, "recorded_at", recordedAt)
	return count, nil
}

// computeSnapshot runs the valuation over one portfolio. Holdings whose stock
// has no bars yet are left out.
func (s *snapshotService) computeSnapshot(p *models.Portfolio, recordedAt time.Time) (*models.PortfolioSnapshot, error) {
	ids := make([]string, 0, len(p.Holdings))
	for i := range p.Holdings {
		ids = append(ids, p.Holdings[i].StockID)
	}
	bars, err := latestBars(s.db, ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]*valuation.EnrichedHolding, 0, len(p.Holdings))
	for i := range p.Holdings {
		h := &p.Holdings[i]
		bar, ok := bars[h.StockID]
		if !ok {
			continue
		}
		enriched = append(enriched, &valuation.EnrichedHolding{
			ID:                  h.ID,
			StockID:             h.StockID,
			Quantity:            h.Quantity,
			AverageCostPerShare: h.AverageCostPerShare.InexactFloat64(),
			CurrentPrice:        bar.Close.InexactFloat64(),
			OpenPrice:           bar.Open.InexactFloat64(),
			LastUpdated:         h.LastUpdated,
		})
	}

	cash := p.CashBalance.InexactFloat64()
	summary, breakdown := valuation.Analyze(cash, enriched, recordedAt)

	holdingsValue := money(breakdown.HoldingsValue)
	return &models.PortfolioSnapshot{
		PortfolioID:   p.ID,
		RecordedAt:    recordedAt,
		CashBalance:   p.CashBalance,
		HoldingsValue: holdingsValue,
		TotalValue:    p.CashBalance.Add(holdingsValue),
		TodayPL:       money(summary.TodayPL),
		TotalGainLoss: money(summary.TotalGainLoss),
	}, nil
}

// GetSnapshots returns paginated snapshots of the user's portfolio within a
// time range, newest first.
func (s *snapshotService) GetSnapshots(
	userID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	page.Normalize()

	portfolio, err := findPortfolio(s.db, userID)
	if err != nil {
		return nil, err
	}

	var totalItems int64
	base := s.db.Model(&models.PortfolioSnapshot{}).
		Where("portfolio_id = ? AND recorded_at >= ? AND recorded_at <= ?", portfolio.ID, from.UTC(), to.UTC())
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.PortfolioSnapshot
	if err := base.Order("recorded_at DESC").Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// money rounds a float figure to cents.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
