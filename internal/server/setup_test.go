package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradedesk/internal/cache"
	"tradedesk/internal/config"
	"tradedesk/internal/logger"
	"tradedesk/internal/testutil"
	"tradedesk/internal/validator"
)

const testPipelineKey = "test-pipeline-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Server *Server
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func testConfig() *config.Config {
	return &config.Config{
		Env:              "test",
		CORSOrigin:       "*",
		JWTSecret:        "integration-secret",
		JWTExpirationDur: time.Hour,
		StartingCash:     decimal.NewFromInt(100000),
		PipelineAPIKey:   testPipelineKey,
	}
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setupAppWithConfig(t, testConfig())
}

func setupAppWithConfig(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()

	config.Set(cfg)
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	stockCache, err := cache.New(1<<10, time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(stockCache.Close)

	return &testApp{DB: db, Server: New(cfg, db, stockCache)}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Server.Router.ServeHTTP(rec, req)
	return rec
}

// pipelineRequest makes a request authenticated with the pipeline API key.
func (app *testApp) pipelineRequest(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testPipelineKey)
	rec := httptest.NewRecorder()
	app.Server.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var result []interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns its ID.
func (app *testApp) registerUser(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@test.com","password":%q}`, username, username, password)
	rec := app.request("POST", "/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["user_id"].(string)
}

// loginUser logs in and returns the access token.
func (app *testApp) loginUser(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := app.request("POST", "/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["access_token"].(string)
}

// signUp registers and logs a user in, returning the bearer token.
func (app *testApp) signUp(t *testing.T, username string) string {
	t.Helper()
	app.registerUser(t, username, "password123")
	return app.loginUser(t, username, "password123")
}

// seedMarket creates INFY and TCS with a bar for yesterday.
func (app *testApp) seedMarket(t *testing.T) {
	t.Helper()

	rec := app.pipelineRequest("POST", "/pipeline/stocks", `{"stocks":[
		{"symbol":"INFY","company_name":"Infosys","sector":"IT","exchange":"NSE","provider_symbol":"INFY.NS"},
		{"symbol":"TCS","company_name":"Tata Consultancy Services","sector":"IT","exchange":"NSE","provider_symbol":"TCS.NS"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding stocks failed: %d %s", rec.Code, rec.Body.String())
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	rec = app.pipelineRequest("POST", "/pipeline/bars", fmt.Sprintf(`{"bars":[
		{"symbol":"INFY","date":%q,"open":98,"high":101,"low":97,"close":100,"volume":5000},
		{"symbol":"TCS","date":%q,"open":3500,"high":3550,"low":3480,"close":3520,"volume":2000}]}`,
		yesterday, yesterday))
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding bars failed: %d %s", rec.Code, rec.Body.String())
	}
}

// tick sends one live price through the pipeline.
func (app *testApp) tick(t *testing.T, symbol string, price float64) {
	t.Helper()
	rec := app.pipelineRequest("POST", "/pipeline/ticks",
		fmt.Sprintf(`{"ticks":[{"symbol":%q,"price":%v,"volume":100}]}`, symbol, price))
	if rec.Code != http.StatusOK {
		t.Fatalf("tick failed: %d %s", rec.Code, rec.Body.String())
	}
}

// stockID looks a stock up through the public listing.
func (app *testApp) stockID(t *testing.T, token, symbol string) string {
	t.Helper()
	rec := app.request("GET", "/stocks", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list stocks failed: %d %s", rec.Code, rec.Body.String())
	}
	for _, item := range parseJSONArray(t, rec) {
		s := item.(map[string]interface{})
		if s["symbol"] == symbol {
			return s["stock_id"].(string)
		}
	}
	t.Fatalf("stock %s not listed", symbol)
	return ""
}
