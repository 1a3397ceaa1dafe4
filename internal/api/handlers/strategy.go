package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prosumer-sim/internal/api/models"
)

var agents = []models.AgentInfo{
	{
		Name:        "schedule",
		Description: "Buys in a fixed night window and sells in a fixed evening window every day, gated by price thresholds.",
		Parameters: []models.ParameterInfo{
			{Name: "buy_start", Type: "string", Description: "Start of the buy window (HH:MM)", Default: "00:00"},
			{Name: "buy_end", Type: "string", Description: "End of the buy window (HH:MM)", Default: "06:00"},
			{Name: "sell_start", Type: "string", Description: "Start of the sell window (HH:MM)", Default: "17:00"},
			{Name: "sell_end", Type: "string", Description: "End of the sell window (HH:MM)", Default: "21:00"},
			{Name: "buy_amount_mwh", Type: "float", Description: "Energy bought per hour in the buy window. Defaults to capacity/6."},
			{Name: "sell_amount_mwh", Type: "float", Description: "Energy sold per hour in the sell window. Defaults to capacity/4."},
			{Name: "buy_threshold", Type: "float", Description: "Highest price a scheduled buy accepts", Default: 1e9},
			{Name: "sell_threshold", Type: "float", Description: "Lowest price a scheduled sell accepts", Default: 0.0},
		},
	},
	{
		Name:        "random",
		Description: "Samples every amount and threshold uniformly. A baseline for other agents.",
		Parameters: []models.ParameterInfo{
			{Name: "max_amount_mwh", Type: "float", Description: "Upper bound for amounts. Defaults to battery capacity."},
			{Name: "max_price", Type: "float", Description: "Upper bound for thresholds", Default: 1000.0},
			{Name: "seed", Type: "int", Description: "Sampling seed. Defaults to the episode seed."},
		},
	},
}

// ListAgents handles GET /api/v1/agents
func ListAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}
