package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/api/models"
	"prosumer-sim/internal/config"
	"prosumer-sim/internal/scenario"
	"prosumer-sim/internal/simulation"
	"prosumer-sim/internal/strategy"
)

const (
	defaultConcurrency = 4
	maxEvaluateSeeds   = 64
)

// EvaluateHandler runs built-in agents over several seeds and ranks them.
type EvaluateHandler struct {
	base      *scenario.Scenario
	batteries *BatteryHandler
	metrics   *Metrics
	log       *zap.Logger
}

func NewEvaluateHandler(base *scenario.Scenario, batteries *BatteryHandler, metrics *Metrics, log *zap.Logger) *EvaluateHandler {
	return &EvaluateHandler{base: base, batteries: batteries, metrics: metrics, log: log}
}

// Evaluate handles POST /api/v1/evaluate
func (h *EvaluateHandler) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if len(req.Seeds) > maxEvaluateSeeds {
		respondError(c, http.StatusBadRequest, "TOO_MANY_SEEDS", fmt.Sprintf("at most %d seeds per request", maxEvaluateSeeds))
		return
	}

	sc := h.base
	if req.BatteryID != "" || req.Agent != nil {
		battery := h.base.Config.Battery
		if req.BatteryID != "" {
			preset, err := h.batteries.Load(req.BatteryID)
			if errors.Is(err, ErrBatteryNotFound) {
				respondError(c, http.StatusNotFound, "BATTERY_NOT_FOUND", err.Error())
				return
			}
			if err != nil {
				respondError(c, http.StatusInternalServerError, "BATTERY_LOAD_ERROR", err.Error())
				return
			}
			battery = preset
		}
		var err error
		sc, err = h.base.With(func(cfg *config.Config) {
			cfg.Battery = battery
			if req.Agent != nil {
				cfg.Agent = *req.Agent
			}
		})
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
			return
		}
	}
	if _, err := sc.NewAgent(0); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_AGENT", err.Error())
		return
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	log := h.log.Named("evaluate")
	jobs := make([]simulation.Job, 0, len(req.Seeds))
	for _, seed := range req.Seeds {
		jobs = append(jobs, simulation.Job{
			Name:     fmt.Sprintf("seed-%d", seed),
			Seed:     seed,
			NewEnv:   func() (*simulation.Env, error) { return sc.NewEnv(log) },
			NewAgent: func() (strategy.Agent, error) { return sc.NewAgent(seed) },
		})
	}

	runs, err := simulation.Evaluate(c.Request.Context(), jobs, concurrency)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "EVALUATION_FAILED", err.Error())
		return
	}
	h.metrics.Evaluations.Inc()
	for _, r := range runs {
		h.metrics.Episodes.Inc()
		h.metrics.EpisodeReward.Observe(r.TotalReward)
	}
	c.JSON(http.StatusOK, models.EvaluateResponse{Runs: runs, MeanReward: analysis.MeanReward(runs)})
}
