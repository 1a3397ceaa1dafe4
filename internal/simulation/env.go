package simulation

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"prosumer-sim/internal/model"
)

// ActionSize is the length of the daily action vector Step expects.
const ActionSize = model.ActionSize

// StepResult is what one Step hands back to the agent.
type StepResult struct {
	Observation []float64  `json:"observation"`
	Reward      float64    `json:"reward"`
	Terminated  bool       `json:"terminated"`
	Truncated   bool       `json:"truncated"`
	Info        StepRecord `json:"info"`
}

// Env wraps an Engine as a reset/step environment where one step is one day.
type Env struct {
	engine      *Engine
	log         *zap.Logger
	totalReward float64
	steps       int
	// seed of the latest seeded Reset; nil until one happens.
	seed        *uint64
}

func NewEnv(p Params) (*Env, error) {
	e, err := New(p)
	if err != nil {
		return nil, err
	}
	return &Env{engine: e, log: e.log}, nil
}

func (e *Env) Engine() *Engine      { return e.engine }
func (e *Env) History() *History    { return e.engine.History() }
func (e *Env) TotalReward() float64 { return e.totalReward }
func (e *Env) Steps() int           { return e.steps }
func (e *Env) Done() bool           { return e.engine.Done() }

// Seed reports the seed of the latest seeded Reset. Resets without a seed
// continue the random streams, so they keep the previous value.
func (e *Env) Seed() (uint64, bool) {
	if e.seed == nil {
		return 0, false
	}
	return *e.seed, true
}

// InitialRelCharge is the relative battery charge every episode starts from.
func (e *Env) InitialRelCharge() float64 {
	p := e.engine.Params()
	return p.InitialCharge.Ratio(p.Battery.Capacity)
}

// ObservationSize is the length of every observation: the three strategy
// windows plus the current and the projected midnight battery charge.
func (e *Env) ObservationSize() int {
	p := e.engine.Params()
	return p.Market.ObservationSize() + p.Production.ObservationSize() + p.Consumption.ObservationSize() + 2
}

// Reset restores the initial state, runs to the first decision point and
// returns the first observation.
func (e *Env) Reset(seed *uint64) ([]float64, error) {
	if err := e.engine.Reset(seed); err != nil {
		return nil, err
	}
	e.totalReward = 0
	e.steps = 0
	if seed != nil {
		e.seed = lo.ToPtr(*seed)
	}
	if _, err := e.engine.AdvanceToDecisionPoint(); err != nil {
		return nil, err
	}
	return e.Observation()
}

// Step delivers the next day's plan and runs until the next decision point.
// The reward is the wallet growth between the last two commits minus the
// passive potential profit of the last full day.
func (e *Env) Step(action []float64) (StepResult, error) {
	if e.engine.Done() {
		return StepResult{}, ErrEpisodeDone
	}
	if err := e.engine.SupplyAction(action); err != nil {
		return StepResult{}, err
	}
	if _, err := e.engine.AdvanceToDecisionPoint(); err != nil {
		return StepResult{}, err
	}

	h := e.engine.History()
	rec := h.RecordStep(action, e.engine.BalanceDiff())
	reward := rec.BalanceDiff
	if rec.PotentialProfit != nil {
		reward -= *rec.PotentialProfit
	}
	h.SetReward(reward)
	rec.Reward = &reward
	e.totalReward += reward
	e.steps++

	obs, err := e.Observation()
	if err != nil {
		return StepResult{}, err
	}
	done := e.engine.Done()
	if done {
		e.log.Info("episode done",
			zap.Int("steps", e.steps),
			zap.Float64("total_reward", e.totalReward),
			zap.Float64("balance", e.engine.Prosumer().Wallet.Balance.Float()),
		)
	}
	return StepResult{Observation: obs, Reward: reward, Terminated: done, Info: rec}, nil
}

// Observation assembles market, production and consumption windows, the
// relative battery charge and its dry-run projection to midnight.
func (e *Env) Observation() ([]float64, error) {
	eng := e.engine
	p := eng.Prosumer()
	midnight, err := eng.DryRun(model.HoursPerDay - eng.Clock().SchedulingHour())
	if err != nil {
		return nil, err
	}
	obs := make([]float64, 0, e.ObservationSize())
	obs = append(obs, eng.Market().Observation()...)
	obs = append(obs, p.Production.Observation()...)
	obs = append(obs, p.Consumption.Observation()...)
	obs = append(obs, p.Battery.RelCharge(), midnight)
	return obs, nil
}
