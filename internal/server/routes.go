package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(apiHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/amm/config", h.Config)
	v1.POST("/amm/initialize", h.Initialize)
	v1.GET("/pools", h.Pools)
	v1.GET("/pools/:mintA/:mintB", h.Pool)
	v1.GET("/swap/quote", h.SwapQuote)
	v1.GET("/balances/:owner/:mint", h.Balance)
	v1.GET("/events/recent", h.RecentEvents)

	// State-changing endpoints share one limiter keyed by client IP
	writes := v1.Group("")
	if cfg.WriteRate > 0 {
		writes.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.WriteRate),
			Burst:     cfg.WriteBurst,
			ExpiresIn: 2 * time.Minute,
		})))
	}
	writes.POST("/liquidity/add", h.AddLiquidity)
	writes.POST("/liquidity/remove", h.RemoveLiquidity)
	writes.POST("/swap", h.Swap)

	if cfg.DevMode {
		v1.POST("/faucet", h.Faucet)
	}

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
