package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradedesk/internal/models"
	"tradedesk/internal/services"
)

// StockHandler serves the stock universe and daily price history.
type StockHandler struct {
	stockService services.StockServicer
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockService services.StockServicer) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// OHLCResponse is one daily bar on the wire. Date is YYYY-MM-DD.
type OHLCResponse struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open" swaggertype:"number"`
	High   decimal.Decimal `json:"high" swaggertype:"number"`
	Low    decimal.Decimal `json:"low" swaggertype:"number"`
	Close  decimal.Decimal `json:"close" swaggertype:"number"`
	Volume int64           `json:"volume"`
}

// StockResponse is a stock with its latest bar, or null when it has none.
type StockResponse struct {
	StockID     string        `json:"stock_id"`
	Symbol      string        `json:"symbol"`
	CompanyName string        `json:"company_name"`
	Sector      string        `json:"sector"`
	LatestOHLC  *OHLCResponse `json:"latest_ohlc"`
}

// StockHistoryResponse is the full daily series of one stock.
type StockHistoryResponse struct {
	StockID string         `json:"stock_id"`
	Symbol  string         `json:"symbol"`
	History []OHLCResponse `json:"history"`
}

func toOHLCResponse(b *models.PriceBar) OHLCResponse {
	return OHLCResponse{
		Date:   b.Date.Format("2006-01-02"),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

// ListStocks returns every stock with its latest OHLC bar
// @Summary     List stocks
// @Description All tracked stocks with their most recent daily bar
// @Tags        stocks
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  StockResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /stocks [get]
func (h *StockHandler) ListStocks(c *gin.Context) {
	quotes, err := h.stockService.ListWithLatestOHLC()
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]StockResponse, 0, len(quotes))
	for _, q := range quotes {
		resp := StockResponse{
			StockID:     q.Stock.ID,
			Symbol:      q.Stock.Symbol,
			CompanyName: q.Stock.CompanyName,
			Sector:      q.Stock.Sector,
		}
		if q.Latest != nil {
			ohlc := toOHLCResponse(q.Latest)
			resp.LatestOHLC = &ohlc
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// GetHistory returns the daily bars of one stock
// @Summary     Stock price history
// @Description Daily OHLCV bars, oldest first
// @Tags        stocks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Stock ID"
// @Success     200 {object} StockHistoryResponse
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Stock or history not found"
// @Router      /stocks/{id}/history [get]
func (h *StockHandler) GetHistory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.stockService.GetStockByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bars, err := h.stockService.GetHistory(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	history := make([]OHLCResponse, 0, len(bars))
	for i := range bars {
		history = append(history, toOHLCResponse(&bars[i]))
	}
	c.JSON(http.StatusOK, StockHistoryResponse{
		StockID: stock.ID,
		Symbol:  stock.Symbol,
		History: history,
	})
}
