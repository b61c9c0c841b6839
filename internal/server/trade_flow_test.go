package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestTradeFlow_BuyAverageSell(t *testing.T) {
	app := setupApp(t)
	app.seedMarket(t)
	token := app.signUp(t, "trader")

	// Step 1: Today's first tick opens a new bar that becomes the latest price
	app.tick(t, "INFY", 105.5)

	rec := app.request("GET", "/stocks", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var infy map[string]interface{}
	for _, item := range parseJSONArray(t, rec) {
		if s := item.(map[string]interface{}); s["symbol"] == "INFY" {
			infy = s
		}
	}
	if infy == nil {
		t.Fatal("INFY not listed")
	}
	ohlc := infy["latest_ohlc"].(map[string]interface{})
	if ohlc["close"] != 105.5 || ohlc["open"] != 105.5 {
		t.Errorf("expected fresh bar at 105.5, got %v", ohlc)
	}
	if ohlc["date"] != time.Now().Format(time.DateOnly) {
		t.Errorf("expected today's bar, got %v", ohlc["date"])
	}

	// Step 2: Buy 10 @ 105.5
	rec = app.request("POST", "/portfolio/transactions",
		`{"symbol":"INFY","quantity":10,"transaction_type":"BUY"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	buy := parseJSON(t, rec)
	if buy["cash_balance"] != float64(98945) {
		t.Errorf("expected cash 98945, got %v", buy["cash_balance"])
	}

	// Step 3: Price moves, buy 10 more @ 110; average cost is 107.75
	app.tick(t, "INFY", 110)
	rec = app.request("POST", "/portfolio/transactions",
		`{"symbol":"infy","quantity":10,"transaction_type":"BUY"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/portfolio/holdings", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	holdings := parseJSONArray(t, rec)
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	h := holdings[0].(map[string]interface{})
	if h["quantity"] != float64(20) {
		t.Errorf("expected quantity 20, got %v", h["quantity"])
	}
	if h["average_cost_per_share"] != 107.75 {
		t.Errorf("expected average cost 107.75, got %v", h["average_cost_per_share"])
	}
	if h["stock_id"] != app.stockID(t, token, "INFY") {
		t.Errorf("holding points at the wrong stock: %v", h["stock_id"])
	}

	// Step 4: Selling more than held fails and changes nothing
	rec = app.request("POST", "/portfolio/transactions",
		`{"symbol":"INFY","quantity":21,"transaction_type":"SELL"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := parseJSON(t, rec)["error"].(map[string]interface{})["code"]; code != "INSUFFICIENT_HOLDINGS" {
		t.Errorf("expected INSUFFICIENT_HOLDINGS, got %v", code)
	}

	// Step 5: Sell everything @ 110 closes the position
	rec = app.request("POST", "/portfolio/transactions",
		`{"symbol":"INFY","quantity":20,"transaction_type":"SELL"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	sell := parseJSON(t, rec)
	if sell["holding"] != nil {
		t.Errorf("expected null holding after selling out, got %v", sell["holding"])
	}
	// 100000 - 1055 - 1100 + 2200
	if sell["cash_balance"] != float64(100045) {
		t.Errorf("expected cash 100045, got %v", sell["cash_balance"])
	}

	rec = app.request("GET", "/portfolio/holdings", "", token)
	if len(parseJSONArray(t, rec)) != 0 {
		t.Errorf("expected no holdings, got %s", rec.Body.String())
	}

	// Step 6: Transactions are listed newest first
	rec = app.request("GET", "/portfolio/transactions?page=1&page_size=2", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := parseJSON(t, rec)
	if page["total_items"] != float64(3) || page["total_pages"] != float64(2) {
		t.Errorf("unexpected paging: %v", page)
	}
	first := page["data"].([]interface{})[0].(map[string]interface{})
	if first["transaction_type"] != "SELL" || first["symbol"] != "INFY" {
		t.Errorf("expected latest SELL INFY first, got %v", first)
	}
	if first["total"] != float64(2200) {
		t.Errorf("expected total 2200, got %v", first["total"])
	}
}

func TestTradeFlow_Rejections(t *testing.T) {
	app := setupApp(t)
	app.seedMarket(t)
	token := app.signUp(t, "cautious")

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"insufficient balance", `{"symbol":"TCS","quantity":1000,"transaction_type":"BUY"}`, http.StatusBadRequest, "INSUFFICIENT_BALANCE"},
		{"sell without holding", `{"symbol":"TCS","quantity":1,"transaction_type":"SELL"}`, http.StatusBadRequest, "INSUFFICIENT_HOLDINGS"},
		{"unknown stock", `{"symbol":"NOPE","quantity":1,"transaction_type":"BUY"}`, http.StatusNotFound, "STOCK_NOT_FOUND"},
		{"bad side", `{"symbol":"TCS","quantity":1,"transaction_type":"SHORT"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"fractional quantity", `{"symbol":"TCS","quantity":1.5,"transaction_type":"BUY"}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.request("POST", "/portfolio/transactions", tc.body, token)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if code := parseJSON(t, rec)["error"].(map[string]interface{})["code"]; code != tc.code {
				t.Errorf("expected %s, got %v", tc.code, code)
			}
		})
	}

	t.Run("stock without bars has no price", func(t *testing.T) {
		rec := app.pipelineRequest("POST", "/pipeline/stocks", `{"stocks":[{"symbol":"NEWCO"}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		rec = app.request("POST", "/portfolio/transactions",
			`{"symbol":"NEWCO","quantity":1,"transaction_type":"BUY"}`, token)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	// Cash is untouched by all of the above.
	rec := app.request("GET", "/portfolio/", "", token)
	if parseJSON(t, rec)["cash_balance"] != float64(100000) {
		t.Errorf("expected cash unchanged, got %s", rec.Body.String())
	}
}

func TestStockFlow_History(t *testing.T) {
	app := setupApp(t)
	app.seedMarket(t)
	token := app.signUp(t, "charts")

	app.tick(t, "TCS", 3600)
	id := app.stockID(t, token, "TCS")

	rec := app.request("GET", fmt.Sprintf("/stocks/%s/history", id), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	history := parseJSON(t, rec)["history"].([]interface{})
	if len(history) != 2 {
		t.Fatalf("expected yesterday and today, got %d bars", len(history))
	}
	last := history[1].(map[string]interface{})
	if last["close"] != float64(3600) {
		t.Errorf("expected today's close 3600, got %v", last["close"])
	}

	// Re-sending yesterday's bar is a no-op.
	yesterday := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	rec = app.pipelineRequest("POST", "/pipeline/bars",
		fmt.Sprintf(`{"bars":[{"symbol":"TCS","date":%q,"open":1,"high":1,"low":1,"close":1}]}`, yesterday))
	if parseJSON(t, rec)["bars_recorded"] != float64(0) {
		t.Errorf("expected duplicate bar skipped, got %s", rec.Body.String())
	}
}
