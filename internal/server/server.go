// Package server wires services and handlers into the HTTP API router.
package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"tradedesk/internal/cache"
	"tradedesk/internal/config"
	"tradedesk/internal/handlers"
	"tradedesk/internal/middleware"
	"tradedesk/internal/services"
	"tradedesk/internal/stream"
	"tradedesk/internal/validator"
)

// Server is the assembled API. Router serves every route; the remaining
// fields are exposed for background jobs run next to it.
type Server struct {
	Router    *gin.Engine
	Hub       *stream.Hub
	Stocks    services.StockServicer
	Snapshots services.SnapshotServicer
}

// New builds the services on db and registers all routes. stockCache may be
// nil, in which case stock listings are always read from the database.
func New(cfg *config.Config, db *gorm.DB, stockCache *cache.Cache) *Server {
	validator.Register()
	hub := stream.NewHub()

	// Services
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db, cfg.StartingCash)
	portfolioService := services.NewPortfolioService(db)
	stockService := services.NewStockService(db, stockCache)
	tradeService := services.NewTradeService(db)
	marketService := services.NewMarketService(db, stockService, hub)
	snapshotService := services.NewSnapshotService(db)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(userService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, tradeService, snapshotService, auditService)
	stockHandler := handlers.NewStockHandler(stockService)
	pipelineHandler := handlers.NewPipelineHandler(stockService, marketService, snapshotService, auditService)
	streamHandler := stream.NewHandler(hub, originPatterns(cfg.CORSOrigin))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSOrigin))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", healthHandler.Health)

	// Public routes
	auth := router.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	router.GET("/stocks/stream", gin.WrapH(streamHandler))

	// Protected routes
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	portfolio := protected.Group("/portfolio")
	portfolio.GET("/", portfolioHandler.GetPortfolio)
	portfolio.GET("/holdings", portfolioHandler.ListHoldings)
	portfolio.GET("/transactions", portfolioHandler.ListTransactions)
	portfolio.POST("/transactions", portfolioHandler.CreateTransaction)
	portfolio.GET("/snapshots", portfolioHandler.GetSnapshots)

	stocks := protected.Group("/stocks")
	stocks.GET("", stockHandler.ListStocks)
	stocks.GET("/:id/history", stockHandler.GetHistory)

	// Pipeline routes (oracle)
	pipeline := router.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.POST("/stocks", pipelineHandler.UpsertStocks)
	pipeline.POST("/bars", pipelineHandler.RecordBars)
	pipeline.POST("/ticks", pipelineHandler.RecordTicks)
	pipeline.POST("/snapshots", pipelineHandler.ComputeSnapshots)

	return &Server{
		Router:    router,
		Hub:       hub,
		Stocks:    stockService,
		Snapshots: snapshotService,
	}
}

// originPatterns turns the CORS origin setting into websocket origin
// patterns, which are host globs without a scheme.
func originPatterns(origin string) []string {
	switch origin {
	case "":
		return nil
	case "*":
		return []string{"*"}
	}
	var out []string
	for _, o := range strings.Split(origin, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
