package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	custommiddleware "myfunds/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	FundHandler  *FundHandler
	TradeHandler *TradeHandler
	UserHandler  *UserHandler
	Logger       *zap.Logger
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(custommiddleware.RequestContext(config.Logger, "/health"))
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":    "healthy",
			"service":   "myfunds-api",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// API group
	api := e.Group("/api")

	// Account routes (public)
	users := api.Group("/users")
	{
		users.POST("/register", config.UserHandler.Register)
		users.POST("/login", config.UserHandler.Login)
		users.GET("/me", config.UserHandler.GetMe, custommiddleware.RequireUser)
		users.PUT("/me", config.UserHandler.UpdateMe, custommiddleware.RequireUser)
	}

	// Fund data routes (public)
	funds := api.Group("/funds")
	{
		funds.POST("/refresh-all", config.FundHandler.RefreshAll)
		funds.GET("/:code", config.FundHandler.GetFund)
		funds.GET("/:code/holdings", config.FundHandler.GetHoldings)
		funds.POST("/:code/refresh", config.FundHandler.Refresh)
	}

	// User routes (require a resolved user)
	user := api.Group("/user", custommiddleware.RequireUser)
	{
		user.POST("/holdings", config.TradeHandler.AddHolding)
		user.POST("/buy", config.TradeHandler.Buy)
		user.POST("/sell", config.TradeHandler.Sell)
		user.GET("/positions", config.TradeHandler.GetPositions)
		user.GET("/transactions", config.TradeHandler.GetTransactions)
		user.POST("/plans", config.TradeHandler.CreatePlan)
		user.GET("/plans", config.TradeHandler.GetPlans)
		user.POST("/plans/:id/pause", config.TradeHandler.PausePlan)
		user.POST("/plans/:id/resume", config.TradeHandler.ResumePlan)
		user.POST("/plans/:id/stop", config.TradeHandler.StopPlan)
	}
}
