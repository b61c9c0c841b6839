// Package apiclient provides an HTTP client for the tradedesk REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// StatusError is a non-2xx response. Code and Message come from the server's
// error envelope when one was sent.
type StatusError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Code, e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// ErrNotLoggedIn is returned by user calls made without a session token.
var ErrNotLoggedIn = errors.New("not logged in")

type authMode int

const (
	authNone authMode = iota
	authBearer
	authAPIKey
)

// Client talks to the tradedesk API. User calls authenticate with the
// session's bearer token, pipeline calls with the API key.
type Client struct {
	baseURL    string
	apiKey     string
	session    *Session
	httpClient *http.Client
}

// NewClient creates a client for user endpoints.
func NewClient(baseURL string, session *Session, httpClient *http.Client) *Client {
	if session == nil {
		session = &Session{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		httpClient: httpClient,
	}
}

// NewPipelineClient creates a client for the X-API-Key pipeline endpoints.
func NewPipelineClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		session:    &Session{},
		httpClient: httpClient,
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session { return c.session }

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var user User
	if err := c.do(ctx, "registering", http.MethodPost, "/auth/register", body, &user, authNone); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and stores the token in the client's session.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{"username": username, "password": password}
	var resp loginResponse
	if err := c.do(ctx, "logging in", http.MethodPost, "/auth/login", body, &resp, authNone); err != nil {
		return nil, err
	}
	c.session.Login(resp.AccessToken, resp.User, resp.ExpiresIn)
	return &resp.User, nil
}

// GetPortfolio fetches the user's portfolio.
func (c *Client) GetPortfolio(ctx context.Context) (*Portfolio, error) {
	var p Portfolio
	if err := c.do(ctx, "fetching portfolio", http.MethodGet, "/portfolio/", nil, &p, authBearer); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetHoldings fetches the user's open positions.
func (c *Client) GetHoldings(ctx context.Context) ([]Holding, error) {
	var holdings []Holding
	if err := c.do(ctx, "fetching holdings", http.MethodGet, "/portfolio/holdings", nil, &holdings, authBearer); err != nil {
		return nil, err
	}
	return holdings, nil
}

// GetStocks fetches every stock with its latest daily bar.
func (c *Client) GetStocks(ctx context.Context) ([]Stock, error) {
	var stocks []Stock
	if err := c.do(ctx, "fetching stocks", http.MethodGet, "/stocks", nil, &stocks, authBearer); err != nil {
		return nil, err
	}
	return stocks, nil
}

// GetStockHistory fetches a stock's daily bars, oldest first.
func (c *Client) GetStockHistory(ctx context.Context, stockID string) (*StockHistory, error) {
	var h StockHistory
	path := "/stocks/" + url.PathEscape(stockID) + "/history"
	if err := c.do(ctx, "fetching stock history", http.MethodGet, path, nil, &h, authBearer); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetTransactions fetches one page of the trade log, newest first.
func (c *Client) GetTransactions(ctx context.Context, page, pageSize int) (*TransactionPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	path := "/portfolio/transactions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var p TransactionPage
	if err := c.do(ctx, "fetching transactions", http.MethodGet, path, nil, &p, authBearer); err != nil {
		return nil, err
	}
	return &p, nil
}

// PlaceOrder executes a market order at the latest close.
func (c *Client) PlaceOrder(ctx context.Context, order Order) (*TradeResult, error) {
	order.Symbol = strings.ToUpper(strings.TrimSpace(order.Symbol))
	var res TradeResult
	if err := c.do(ctx, "placing order", http.MethodPost, "/portfolio/transactions", order, &res, authBearer); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}, auth authMode) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	switch auth {
	case authBearer:
		token := c.session.Token()
		if token == "" {
			return fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case authAPIKey:
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func decodeStatusError(op string, resp *http.Response) error {
	se := &StatusError{Op: op, StatusCode: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &envelope) == nil {
		se.Code = envelope.Error.Code
		se.Message = envelope.Error.Message
	}
	return se
}
