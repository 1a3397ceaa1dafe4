// Package api wires the HTTP environment server.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"prosumer-sim/internal/api/handlers"
	"prosumer-sim/internal/api/middleware"
	"prosumer-sim/internal/scenario"
	"prosumer-sim/internal/simulation"
)

// Deps is everything the router needs. Store may be nil.
type Deps struct {
	Scenario       *scenario.Scenario
	Sessions       *handlers.SessionStore
	Store          *simulation.Store
	BatteriesDir   string
	AllowedOrigins []string
	Registry       *prometheus.Registry
	Logger         *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CORS(d.AllowedOrigins))
	router.Use(middleware.Logger(d.Logger.Named("http")))
	router.Use(middleware.Metrics(d.Registry))
	router.Use(middleware.ErrorHandler(d.Logger))

	metrics := handlers.NewMetrics(d.Registry)
	batteryHandler := handlers.NewBatteryHandler(d.BatteriesDir, d.Logger)
	envHandler := handlers.NewEnvHandler(d.Scenario, batteryHandler, d.Sessions, d.Store, metrics, d.Logger)
	evaluateHandler := handlers.NewEvaluateHandler(d.Scenario, batteryHandler, metrics, d.Logger)
	runsHandler := handlers.NewRunsHandler(d.Store)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.POST("/envs", envHandler.CreateEnv)
		api.POST("/envs/:id/reset", envHandler.ResetEnv)
		api.POST("/envs/:id/step", envHandler.Step)
		api.GET("/envs/:id/history", envHandler.GetHistory)
		api.GET("/envs/:id/ledger", envHandler.GetLedger)
		api.POST("/envs/:id/runs", envHandler.SaveRun)
		api.DELETE("/envs/:id", envHandler.DeleteEnv)

		api.POST("/evaluate", evaluateHandler.Evaluate)

		api.GET("/runs", runsHandler.ListRuns)
		api.GET("/runs/:id", runsHandler.GetRun)
		api.DELETE("/runs/:id", runsHandler.DeleteRun)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/agents", handlers.ListAgents)
		api.GET("/datasets", handlers.ListDatasets(d.Scenario))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
