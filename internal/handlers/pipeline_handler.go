package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/models"
	"tradedesk/internal/services"
)

// PipelineHandler serves the market data ingest routes used by the oracle.
type PipelineHandler struct {
	stockService    services.StockServicer
	marketService   services.MarketServicer
	snapshotService services.SnapshotServicer
	auditService    services.AuditServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(
	stockService services.StockServicer,
	marketService services.MarketServicer,
	snapshotService services.SnapshotServicer,
	auditService services.AuditServicer,
) *PipelineHandler {
	return &PipelineHandler{
		stockService:    stockService,
		marketService:   marketService,
		snapshotService: snapshotService,
		auditService:    auditService,
	}
}

// StockEntry describes one stock in an upsert batch.
type StockEntry struct {
	Symbol         string `json:"symbol" binding:"required,ticker"`
	CompanyName    string `json:"company_name" binding:"max=255"`
	Sector         string `json:"sector" binding:"max=100"`
	Exchange       string `json:"exchange" binding:"max=16"`
	ProviderSymbol string `json:"provider_symbol" binding:"max=32"`
}

// UpsertStocksRequest is the payload of POST /pipeline/stocks.
type UpsertStocksRequest struct {
	Stocks []StockEntry `json:"stocks" binding:"required,min=1,dive"`
}

// BarEntry is one daily bar. Date accepts YYYY-MM-DD or RFC3339.
type BarEntry struct {
	Symbol string          `json:"symbol" binding:"required"`
	Date   string          `json:"date" binding:"required"`
	Open   decimal.Decimal `json:"open" swaggertype:"number"`
	High   decimal.Decimal `json:"high" swaggertype:"number"`
	Low    decimal.Decimal `json:"low" swaggertype:"number"`
	Close  decimal.Decimal `json:"close" swaggertype:"number"`
	Volume int64           `json:"volume" binding:"min=0"`
}

// RecordBarsRequest is the payload of POST /pipeline/bars.
type RecordBarsRequest struct {
	Bars []BarEntry `json:"bars" binding:"required,min=1,dive"`
}

// TickEntry is one live price observation. At defaults to the server clock.
type TickEntry struct {
	Symbol string          `json:"symbol" binding:"required"`
	Price  decimal.Decimal `json:"price" swaggertype:"number"`
	Volume int64           `json:"volume" binding:"min=0"`
	At     *time.Time      `json:"at"`
}

// RecordTicksRequest is the payload of POST /pipeline/ticks.
type RecordTicksRequest struct {
	Ticks []TickEntry `json:"ticks" binding:"required,min=1,dive"`
}

// ComputeSnapshotsRequest is the payload of POST /pipeline/snapshots.
// RecordedAt defaults to now.
type ComputeSnapshotsRequest struct {
	RecordedAt *time.Time `json:"recorded_at"`
}

// UpsertStocks creates or refreshes tracked stocks
// @Summary     Upsert stocks
// @Description Create unknown stocks and refresh the descriptive fields of known ones (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body UpsertStocksRequest true "Stocks"
// @Success     200 {object} map[string]int "Stocks upserted count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/stocks [post]
func (h *PipelineHandler) UpsertStocks(c *gin.Context) {
	var req UpsertStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.StockInput, len(req.Stocks))
	for i, s := range req.Stocks {
		inputs[i] = services.StockInput{
			Symbol:         s.Symbol,
			CompanyName:    s.CompanyName,
			Sector:         s.Sector,
			Exchange:       s.Exchange,
			ProviderSymbol: s.ProviderSymbol,
		}
	}

	count, err := h.stockService.UpsertStocks(inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("", models.AuditUpsertStocks, models.ResourceStock, "", c.ClientIP(),
		map[string]interface{}{"count": count})

	c.JSON(http.StatusOK, gin.H{"stocks_upserted": count})
}

// RecordBars stores daily bars
// @Summary     Record daily bars
// @Description Bulk insert daily OHLCV bars; bars already stored for a stock and day are skipped (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RecordBarsRequest true "Bars"
// @Success     200 {object} map[string]int "Bars recorded count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/bars [post]
func (h *PipelineHandler) RecordBars(c *gin.Context) {
	var req RecordBarsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.BarInput, len(req.Bars))
	for i, b := range req.Bars {
		date, err := parseFlexibleTime(b.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		if !b.Close.IsPositive() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "close must be positive"))
			return
		}
		inputs[i] = services.BarInput{
			Symbol: b.Symbol,
			Date:   date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	count, err := h.stockService.RecordBars(inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bars_recorded": count})
}

// RecordTicks folds live prices into today's bars
// @Summary     Record live ticks
// @Description Apply live price ticks to today's bars and stream the changes to subscribers (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RecordTicksRequest true "Ticks"
// @Success     200 {object} map[string]int "Ticks applied count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/ticks [post]
func (h *PipelineHandler) RecordTicks(c *gin.Context) {
	var req RecordTicksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ticks := make([]services.TickInput, len(req.Ticks))
	for i, t := range req.Ticks {
		ticks[i] = services.TickInput{Symbol: t.Symbol, Price: t.Price, Volume: t.Volume}
		if t.At != nil {
			ticks[i].At = *t.At
		}
	}

	count, err := h.marketService.ApplyTicks(ticks)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticks_applied": count})
}

// ComputeSnapshots values every portfolio and records the result
// @Summary     Compute portfolio snapshots
// @Description Compute and record a valuation snapshot for every portfolio (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ComputeSnapshotsRequest false "Snapshot parameters"
// @Success     200 {object} map[string]int "Snapshots recorded count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/snapshots [post]
func (h *PipelineHandler) ComputeSnapshots(c *gin.Context) {
	var req ComputeSnapshotsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	recordedAt := time.Now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	count, err := h.snapshotService.ComputeAndRecordSnapshots(recordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots_recorded": count})
}
