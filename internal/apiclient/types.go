package apiclient

import "time"

// Trade sides accepted by PlaceOrder.
const (
	Buy  = "BUY"
	Sell = "SELL"
)

// User is an account as returned by register and login.
type User struct {
	ID        string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// Portfolio is the user's cash account.
type Portfolio struct {
	ID          string    `json:"portfolio_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"portfolio_name"`
	CashBalance float64   `json:"cash_balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// Holding is an open position.
type Holding struct {
	ID                  string    `json:"holding_id"`
	StockID             string    `json:"stock_id"`
	Symbol              string    `json:"symbol,omitempty"`
	Quantity            int64     `json:"quantity"`
	AverageCostPerShare float64   `json:"average_cost_per_share"`
	LastUpdated         time.Time `json:"last_updated"`
}

// OHLC is one daily bar. Date is YYYY-MM-DD.
type OHLC struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Stock is a tradable symbol. LatestOHLC is nil until its first bar.
type Stock struct {
	ID          string `json:"stock_id"`
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector"`
	LatestOHLC  *OHLC  `json:"latest_ohlc"`
}

// StockHistory is a stock's daily bars, oldest first.
type StockHistory struct {
	StockID string `json:"stock_id"`
	Symbol  string `json:"symbol"`
	History []OHLC `json:"history"`
}

// Transaction is one executed trade.
type Transaction struct {
	ID              string    `json:"transaction_id"`
	StockID         string    `json:"stock_id"`
	Symbol          string    `json:"symbol,omitempty"`
	Type            string    `json:"transaction_type"`
	Quantity        int64     `json:"quantity"`
	PricePerShare   float64   `json:"price_per_share"`
	Total           float64   `json:"total"`
	TransactionDate time.Time `json:"transaction_date"`
}

// TransactionPage is one page of the trade log.
type TransactionPage struct {
	Data       []Transaction `json:"data"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalItems int64         `json:"total_items"`
	TotalPages int           `json:"total_pages"`
}

// Order is a market order request.
type Order struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
	Side     string `json:"transaction_type"`
}

// TradeResult is the outcome of an order. Holding is nil when a sell
// closed the position.
type TradeResult struct {
	Transaction Transaction `json:"transaction"`
	CashBalance float64     `json:"cash_balance"`
	Holding     *Holding    `json:"holding"`
}
