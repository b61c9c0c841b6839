package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tradedesk/internal/errors"
	"tradedesk/internal/models"
	"tradedesk/internal/pagination"
	"tradedesk/internal/services"
)

// PortfolioHandler serves the authenticated user's portfolio, holdings,
// trades and valuation history.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	tradeService     services.TradeServicer
	snapshotService  services.SnapshotServicer
	auditService     services.AuditServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(
	portfolioService services.PortfolioServicer,
	tradeService services.TradeServicer,
	snapshotService services.SnapshotServicer,
	auditService services.AuditServicer,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		tradeService:     tradeService,
		snapshotService:  snapshotService,
		auditService:     auditService,
	}
}

// PortfolioResponse is the wire form of a portfolio.
type PortfolioResponse struct {
	PortfolioID   string          `json:"portfolio_id"`
	UserID        string          `json:"user_id"`
	PortfolioName string          `json:"portfolio_name"`
	CashBalance   decimal.Decimal `json:"cash_balance" swaggertype:"number"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HoldingResponse is the wire form of a holding.
type HoldingResponse struct {
	HoldingID           string          `json:"holding_id"`
	StockID             string          `json:"stock_id"`
	Symbol              string          `json:"symbol,omitempty"`
	Quantity            int64           `json:"quantity"`
	AverageCostPerShare decimal.Decimal `json:"average_cost_per_share" swaggertype:"number"`
	LastUpdated         time.Time       `json:"last_updated"`
}

// TransactionResponse is the wire form of an executed trade.
type TransactionResponse struct {
	TransactionID   string                 `json:"transaction_id"`
	StockID         string                 `json:"stock_id"`
	Symbol          string                 `json:"symbol,omitempty"`
	TransactionType models.TransactionType `json:"transaction_type" swaggertype:"string"`
	Quantity        int64                  `json:"quantity"`
	PricePerShare   decimal.Decimal        `json:"price_per_share" swaggertype:"number"`
	Total           decimal.Decimal        `json:"total" swaggertype:"number"`
	TransactionDate time.Time              `json:"transaction_date"`
}

// TradeRequest is the payload of POST /portfolio/transactions.
type TradeRequest struct {
	Symbol          string `json:"symbol" binding:"required,ticker"`
	Quantity        int64  `json:"quantity" binding:"required,gt=0"`
	TransactionType string `json:"transaction_type" binding:"required,transaction_type"`
}

// TradeResponse reports the trade and the state it left behind.
type TradeResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	CashBalance decimal.Decimal     `json:"cash_balance" swaggertype:"number"`
	Holding     *HoldingResponse    `json:"holding"`
}

func toPortfolioResponse(p *models.Portfolio) PortfolioResponse {
	return PortfolioResponse{
		PortfolioID:   p.ID,
		UserID:        p.UserID,
		PortfolioName: p.Name,
		CashBalance:   p.CashBalance,
		CreatedAt:     p.CreatedAt,
	}
}

func toHoldingResponse(h *models.Holding) HoldingResponse {
	return HoldingResponse{
		HoldingID:           h.ID,
		StockID:             h.StockID,
		Symbol:              h.Stock.Symbol,
		Quantity:            h.Quantity,
		AverageCostPerShare: h.AverageCostPerShare,
		LastUpdated:         h.LastUpdated,
	}
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.ID,
		StockID:         t.StockID,
		Symbol:          t.Stock.Symbol,
		TransactionType: t.Type,
		Quantity:        t.Quantity,
		PricePerShare:   t.PricePerShare,
		Total:           t.Total().Round(2),
		TransactionDate: t.TransactionDate,
	}
}

// GetPortfolio returns the user's portfolio
// @Summary     Get portfolio
// @Description Get the authenticated user's portfolio and cash balance
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} PortfolioResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolio/ [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPortfolioResponse(portfolio))
}

// ListHoldings returns the user's open positions
// @Summary     List holdings
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  HoldingResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/holdings [get]
func (h *PortfolioHandler) ListHoldings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdings, err := h.portfolioService.ListHoldings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]HoldingResponse, 0, len(holdings))
	for i := range holdings {
		out = append(out, toHoldingResponse(&holdings[i]))
	}
	c.JSON(http.StatusOK, out)
}

// ListTransactions returns the user's trade history
// @Summary     List transactions
// @Description Paginated trade history, newest first
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/transactions [get]
func (h *PortfolioHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.portfolioService.ListTransactions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Map(result, toTransactionResponse))
}

// CreateTransaction places a market order
// @Summary     Buy or sell a stock
// @Description Executes at the latest close. Cash and holdings are updated atomically.
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TradeRequest true "Order"
// @Success     201 {object} TradeResponse
// @Failure     400 {object} ErrorResponse "Invalid input, insufficient balance or holdings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Failure     409 {object} ErrorResponse "No price data"
// @Router      /portfolio/transactions [post]
func (h *PortfolioHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txType := models.TransactionType(req.TransactionType)
	result, err := h.tradeService.Execute(userID, strings.ToUpper(req.Symbol), req.Quantity, txType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, models.AuditTrade, models.ResourceTransaction, result.Transaction.ID, c.ClientIP(),
		map[string]interface{}{
			"symbol":           result.Transaction.Stock.Symbol,
			"transaction_type": txType,
			"quantity":         req.Quantity,
			"price_per_share":  result.Transaction.PricePerShare.String(),
		})

	resp := TradeResponse{
		Transaction: toTransactionResponse(result.Transaction),
		CashBalance: result.CashBalance,
	}
	if result.Holding != nil {
		hr := toHoldingResponse(result.Holding)
		resp.Holding = &hr
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSnapshots returns the user's daily valuation history
// @Summary     Get portfolio snapshots
// @Description Paginated end-of-day valuations within a date range, newest first
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Start (RFC3339 or YYYY-MM-DD, default 30 days ago)"
// @Param       to_date   query string false "End (RFC3339 or YYYY-MM-DD, default now)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PortfolioSnapshot]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/snapshots [get]
func (h *PortfolioHandler) GetSnapshots(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	to := time.Now()
	if s := c.Query("to_date"); s != "" {
		if to, err = parseFlexibleTime(s); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	from := to.AddDate(0, 0, -30)
	if s := c.Query("from_date"); s != "" {
		if from, err = parseFlexibleTime(s); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	if from.After(to) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date must not be after to_date"))
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.snapshotService.GetSnapshots(userID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
