// Package server assembles the TradeFlow HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"tradeflow/internal/config"
	"tradeflow/internal/handlers"
	"tradeflow/internal/metrics"
	"tradeflow/internal/middleware"
	"tradeflow/internal/performance"
	"tradeflow/internal/services"

	_ "tradeflow/internal/docs" // Import swagger docs
)

// NewRouter wires services and handlers over db and returns the API router.
// Holdings are priced through quotes.
func NewRouter(cfg config.Config, db *gorm.DB, quotes performance.QuoteFetcher) *gin.Engine {
	tokens := middleware.NewTokenManager(cfg)

	// Services
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db)
	transactionService := services.NewTransactionService(db)
	performanceService := services.NewPerformanceService(db, transactionService, performance.NewEngine(quotes))

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	performanceHandler := handlers.NewPerformanceHandler(performanceService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(metrics.Middleware())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "TradeFlow API is running"})
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.GET("/profile", authHandler.GetProfile)
	protected.DELETE("/profile", authHandler.DeleteProfile)

	portfolios := protected.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.ListPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)
	portfolios.POST("/:id/transactions", transactionHandler.CreateTransaction)
	portfolios.GET("/:id/transactions", transactionHandler.ListTransactions)
	portfolios.GET("/:id/performance", performanceHandler.GetPerformance)

	return router
}
