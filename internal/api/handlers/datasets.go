package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/api/models"
	"prosumer-sim/internal/scenario"
)

// ListDatasets returns a handler for GET /api/v1/datasets describing the
// series the server loaded at startup.
func ListDatasets(sc *scenario.Scenario) gin.HandlerFunc {
	d := sc.Config.Data
	datasets := []models.DatasetInfo{
		{Name: "price", Path: d.Prices.Path, Column: d.Prices.Column, Rows: len(sc.Datasets.Prices)},
		{Name: "wind_speed", Path: d.Weather.Path, Column: d.Weather.WindColumn, Rows: len(sc.Datasets.WindSpeed)},
		{Name: "cloudiness", Path: d.Weather.Path, Column: d.Weather.CloudinessColumn, Rows: len(sc.Datasets.Cloudiness)},
	}
	stats := analysis.ComputePriceStats(episodePrices(sc), sc.Config.Battery.CapacityMWh, sc.Config.Battery.Efficiency)
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"start":       sc.Config.Simulation.Start,
			"end":         sc.Config.Simulation.End,
			"datasets":    datasets,
			"price_stats": stats,
		})
	}
}

// episodePrices is the slice of the price series between start and end.
func episodePrices(sc *scenario.Scenario) []float64 {
	sim := sc.Config.Simulation
	n := int(sim.End.Sub(sim.Start) / time.Hour)
	return sc.Datasets.Prices[:min(max(n, 0), len(sc.Datasets.Prices))]
}
