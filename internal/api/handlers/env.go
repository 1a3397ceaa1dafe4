package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prosumer-sim/internal/api/models"
	"prosumer-sim/internal/config"
	"prosumer-sim/internal/model"
	"prosumer-sim/internal/scenario"
	"prosumer-sim/internal/simulation"
)

// EnvHandler exposes reset/step environments as HTTP sessions.
type EnvHandler struct {
	base      *scenario.Scenario
	batteries *BatteryHandler
	sessions  *SessionStore
	store     *simulation.Store
	metrics   *Metrics
	log       *zap.Logger
}

// NewEnvHandler creates a new env handler. store may be nil, which disables
// saving episodes.
func NewEnvHandler(base *scenario.Scenario, batteries *BatteryHandler, sessions *SessionStore, store *simulation.Store, metrics *Metrics, log *zap.Logger) *EnvHandler {
	return &EnvHandler{
		base:      base,
		batteries: batteries,
		sessions:  sessions,
		store:     store,
		metrics:   metrics,
		log:       log,
	}
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// CreateEnv handles POST /api/v1/envs
func (h *EnvHandler) CreateEnv(c *gin.Context) {
	var req models.CreateEnvRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

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
	if req.Battery != nil {
		battery = config.MergeBattery(battery, *req.Battery)
	}

	sc, err := h.base.With(func(cfg *config.Config) {
		cfg.Battery = battery
		if req.Seed != nil {
			cfg.Simulation.Seed = *req.Seed
		}
		if req.Start != nil {
			cfg.Simulation.Start = *req.Start
		}
		if req.End != nil {
			cfg.Simulation.End = *req.End
		}
		if req.SchedulingHour != nil {
			cfg.Simulation.SchedulingHour = req.SchedulingHour
		}
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	env, err := sc.NewEnv(h.log.Named("env"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	seed := sc.Config.Simulation.Seed
	obs, err := env.Reset(&seed)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "RESET_FAILED", err.Error())
		return
	}

	sess, exp, err := h.sessions.Add(env)
	if err != nil {
		respondError(c, http.StatusTooManyRequests, "TOO_MANY_SESSIONS", err.Error())
		return
	}
	h.metrics.Sessions.Set(float64(h.sessions.Len()))
	h.log.Info("session created", zap.String("id", sess.ID), zap.Uint64("seed", seed))

	c.JSON(http.StatusCreated, models.SessionResponse{
		ID:              sess.ID,
		ExpiresAt:       exp,
		ObservationSize: env.ObservationSize(),
		ActionSize:      simulation.ActionSize,
		Observation:     obs,
	})
}

func (h *EnvHandler) session(c *gin.Context) (*Session, bool) {
	sess, _, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
		return nil, false
	}
	return sess, true
}

// ResetEnv handles POST /api/v1/envs/:id/reset
func (h *EnvHandler) ResetEnv(c *gin.Context) {
	var req models.ResetRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var resp models.SessionResponse
	err := sess.Do(func(env *simulation.Env) error {
		obs, err := env.Reset(req.Seed)
		if err != nil {
			return err
		}
		resp = models.SessionResponse{
			ID:              sess.ID,
			ObservationSize: env.ObservationSize(),
			ActionSize:      simulation.ActionSize,
			Observation:     obs,
		}
		return nil
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "RESET_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Step handles POST /api/v1/envs/:id/step
func (h *EnvHandler) Step(c *gin.Context) {
	var req models.StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var resp models.StepResponse
	err := sess.Do(func(env *simulation.Env) error {
		res, err := env.Step(req.Action)
		if err != nil {
			return err
		}
		resp = models.StepResponse{StepResult: res, Steps: env.Steps(), TotalReward: env.TotalReward()}
		return nil
	})
	switch {
	case errors.Is(err, model.ErrActionSize):
		respondError(c, http.StatusBadRequest, "INVALID_ACTION", err.Error())
		return
	case errors.Is(err, simulation.ErrEpisodeDone):
		respondError(c, http.StatusConflict, "EPISODE_DONE", err.Error())
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "STEP_FAILED", err.Error())
		return
	}

	h.metrics.Steps.Inc()
	if resp.Terminated {
		h.metrics.Episodes.Inc()
		h.metrics.EpisodeReward.Observe(resp.TotalReward)
	}
	c.JSON(http.StatusOK, resp)
}

// GetHistory handles GET /api/v1/envs/:id/history
func (h *EnvHandler) GetHistory(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var resp models.HistoryResponse
	_ = sess.Do(func(env *simulation.Env) error {
		hist := env.History()
		resp = models.HistoryResponse{
			Meta:  hist.Meta(),
			Ticks: append([]simulation.TickRecord(nil), hist.Ticks()...),
			Steps: append([]simulation.StepRecord(nil), hist.Steps()...),
		}
		return nil
	})
	c.JSON(http.StatusOK, resp)
}

// GetLedger handles GET /api/v1/envs/:id/ledger and streams the tick ledger
// as CSV.
func (h *EnvHandler) GetLedger(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="ledger.csv"`)
	c.Status(http.StatusOK)
	err := sess.Do(func(env *simulation.Env) error {
		return simulation.WriteLedger(c.Writer, env.History().Ticks(), env.InitialRelCharge())
	})
	if err != nil {
		h.log.Error("write ledger", zap.String("id", sess.ID), zap.Error(err))
	}
}

// SaveRun handles POST /api/v1/envs/:id/runs and stores the session's
// episode so far.
func (h *EnvHandler) SaveRun(c *gin.Context) {
	if h.store == nil {
		respondError(c, http.StatusServiceUnavailable, "STORE_DISABLED", "no database configured")
		return
	}
	var req models.SaveRunRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var id string
	err := sess.Do(func(env *simulation.Env) error {
		sum := simulation.Summarize(env)
		sum.Name = req.Name
		sum.Agent = "external"
		sum.Seed, _ = env.Seed()
		var err error
		id, err = h.store.SaveRun(c.Request.Context(), sum, env.History())
		return err
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SAVE_FAILED", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// DeleteEnv handles DELETE /api/v1/envs/:id
func (h *EnvHandler) DeleteEnv(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
		return
	}
	h.metrics.Sessions.Set(float64(h.sessions.Len()))
	c.Status(http.StatusNoContent)
}
