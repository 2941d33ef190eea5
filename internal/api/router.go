// Package api wires the HTTP session control surface.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supply-rounds/internal/api/handlers"
	"supply-rounds/internal/api/middleware"
	"supply-rounds/internal/logging"
	"supply-rounds/internal/metrics"
	"supply-rounds/internal/model"
	"supply-rounds/internal/rounds"
	"supply-rounds/internal/strategy"
)

// Pinger is implemented by dependencies the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs.
type Deps struct {
	Network      *model.Network
	NewArbiter   handlers.ArbiterFactory
	Session      rounds.Options
	AllowOrigins []string
	Logger       logging.Logger
	// Checks are pinged by /health; a failing check reports "degraded".
	Checks map[string]Pinger
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logging.Noop()
	}
	if d.Session.Logger == nil {
		d.Session.Logger = d.Logger
	}
	if d.Session.Rounds <= 0 {
		d.Session.Rounds = rounds.DefaultRounds
	}
	if d.Session.Params == (strategy.Params{}) {
		d.Session.Params = strategy.DefaultParams()
	}
	metrics.RegisterDefault()

	router := gin.New()
	router.Use(middleware.ErrorHandler(d.Logger))
	router.Use(middleware.CORS(d.AllowOrigins))
	router.Use(middleware.Logger(d.Logger))

	sessionHandler := handlers.NewSessionHandler(d.Network, d.NewArbiter, d.Session)
	networkHandler := handlers.NewNetworkHandler(d.Network, d.Session.Params, d.Session.Rounds)

	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		checks := gin.H{}
		for name, p := range d.Checks {
			if err := p.Ping(c.Request.Context()); err != nil {
				status = "degraded"
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "checks": checks})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.POST("/session/start", sessionHandler.StartSession)
		api.POST("/session/end", sessionHandler.EndSession)
		api.GET("/session", sessionHandler.Status)
		api.GET("/session/ledger", sessionHandler.Ledger)
		api.GET("/session/events", sessionHandler.Events)

		api.POST("/play/round", sessionHandler.PlayRound)
		api.POST("/solve", sessionHandler.Solve)

		api.GET("/network", networkHandler.Summary)
		api.GET("/strategies", networkHandler.ListStrategies)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
