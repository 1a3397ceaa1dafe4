// Package simulation drives the prosumer tick loop, keeps its history and
// exposes it as a reset/step environment.
package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"prosumer-sim/internal/clock"
	"prosumer-sim/internal/datastrategy"
	"prosumer-sim/internal/market"
	"prosumer-sim/internal/model"
	"prosumer-sim/internal/prosumer"
)

var (
	ErrAwaitingAction    = errors.New("engine is waiting for an action")
	ErrNotAwaitingAction = errors.New("engine is not at a decision point")
	ErrEpisodeDone       = errors.New("episode is over")
	ErrSeriesTooShort    = errors.New("data series too short for episode")
	ErrNilStrategy       = errors.New("data strategy is nil")
	ErrInvalidHours      = errors.New("invalid scheduling or replacement hour")
	ErrInvalidPeriod     = errors.New("episode end must be after start")
	ErrConsumptionSeries = errors.New("consumption strategy must be cyclic")
)

// Default hours of day at which plans are submitted and committed.
const (
	DefaultSchedulingHour  = 10
	DefaultReplacementHour = 0
)

// Params configures an Engine. Zero values for the multiplier fall back to
// market.DefaultUnscheduledMultiplier.
type Params struct {
	Production  datastrategy.Strategy
	Consumption datastrategy.Strategy
	Market      datastrategy.Strategy

	// Start is the timestamp of data index 0. The clock starts StartTick
	// hours later.
	Start time.Time
	End   time.Time

	SchedulingHour  int
	ReplacementHour int

	InitialBalance model.Cost
	Battery        model.BatteryParams
	InitialCharge  model.Energy

	// StartTick overrides the offset computed from backward window sizes.
	StartTick *int

	UnscheduledMultiplier float64
	Seed                  uint64

	Logger *zap.Logger
}

// Engine is the two-phase tick state machine. AdvanceToDecisionPoint runs
// ticks until a plan is needed; SupplyAction hands the plan in and finishes
// that tick.
type Engine struct {
	params    Params
	log       *zap.Logger
	startTick int
	startTime time.Time

	clock       *clock.Clock
	market      *market.Market
	production  *prosumer.ProductionSystem
	consumption *prosumer.ConsumptionSystem
	prosumer    *prosumer.Prosumer
	history     *History

	pcg *rand.PCG
	rng *rand.Rand

	firstActionsScheduled bool
	firstActionsSet       bool
	awaiting              bool

	// Wallet balance at the latest and at the previous plan commit.
	commitBalance     model.Cost
	prevCommitBalance model.Cost
}

func New(p Params) (*Engine, error) {
	if p.Production == nil || p.Consumption == nil || p.Market == nil {
		return nil, ErrNilStrategy
	}
	if !validHour(p.SchedulingHour) || !validHour(p.ReplacementHour) || p.SchedulingHour == p.ReplacementHour {
		return nil, fmt.Errorf("%w: scheduling %d, replacement %d", ErrInvalidHours, p.SchedulingHour, p.ReplacementHour)
	}
	if !p.End.After(p.Start) {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidPeriod, p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
	}
	if p.Consumption.Len() != 0 {
		return nil, ErrConsumptionSeries
	}
	battery, err := model.NewBattery(p.Battery, p.InitialCharge)
	if err != nil {
		return nil, err
	}
	if p.UnscheduledMultiplier <= 0 {
		p.UnscheduledMultiplier = market.DefaultUnscheduledMultiplier
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}

	startTick := StartTickOffset(p.SchedulingHour, p.Production, p.Consumption, p.Market)
	if p.StartTick != nil {
		startTick = *p.StartTick
	}
	if startTick < 0 {
		return nil, fmt.Errorf("start tick %d is negative", startTick)
	}
	if err := checkSeriesLength(p, startTick); err != nil {
		return nil, err
	}

	e := &Engine{
		params:    p,
		log:       p.Logger,
		startTick: startTick,
		startTime: p.Start.Add(time.Duration(startTick) * clock.DefaultTickDuration),
	}
	e.clock = clock.New(e.startTime, startTick, p.SchedulingHour, p.ReplacementHour)
	view := e.clock.View()
	e.market = market.New(p.Market, view, p.UnscheduledMultiplier)
	e.production = prosumer.NewProductionSystem(p.Production, view)
	e.consumption = prosumer.NewConsumptionSystem(p.Consumption, view)
	e.prosumer = prosumer.New(battery, model.NewWallet(p.InitialBalance), e.production, e.consumption, e.market, view)
	e.history = NewHistory(view, HistoryMeta{
		SchedulingHour:        p.SchedulingHour,
		UnscheduledMultiplier: p.UnscheduledMultiplier,
		BatteryCapacity:       p.Battery.Capacity.Float(),
		BatteryEfficiency:     p.Battery.Efficiency,
	})
	e.pcg = rand.NewPCG(p.Seed, p.Seed)
	e.rng = rand.New(e.pcg)

	if err := e.Reset(nil); err != nil {
		return nil, err
	}
	return e, nil
}

func validHour(h int) bool { return h >= 0 && h < model.HoursPerDay }

// StartTickOffset is the first tick at which every backward window can be
// read without going below index 0.
func StartTickOffset(schedulingHour int, strategies ...datastrategy.Strategy) int {
	size := 0
	for _, s := range strategies {
		if s.Direction() == datastrategy.Backward {
			size = max(size, s.ObservationSize())
		}
	}
	return size + schedulingHour
}

type lookAheader interface {
	LookAhead(schedulingHour int) int
}

// checkSeriesLength makes sure every tick-indexed series covers the whole
// episode plus the furthest index an observation or dry run reads past the
// end tick. Data index i is the hour Start + i.
func checkSeriesLength(p Params, startTick int) error {
	endTick := int(p.End.Sub(p.Start) / clock.DefaultTickDuration)
	if endTick <= startTick {
		return fmt.Errorf("%w: start tick %d is past the end tick %d", ErrInvalidPeriod, startTick, endTick)
	}
	dryRun := model.HoursPerDay - 1 - p.SchedulingHour
	first := firstDecisionTick(p, startTick)
	for name, s := range map[string]datastrategy.Strategy{"production": p.Production, "market": p.Market} {
		if s.Len() == 0 {
			continue
		}
		if s.Direction() == datastrategy.Backward && first-p.SchedulingHour < 0 {
			return fmt.Errorf("%w: %s window at tick %d starts before the first row", ErrSeriesTooShort, name, first)
		}
		ahead := dryRun
		if la, ok := s.(lookAheader); ok {
			ahead = max(ahead, la.LookAhead(p.SchedulingHour))
		}
		need := endTick + 1 + ahead
		if s.Len() < need {
			return fmt.Errorf("%w: %s has %d rows, need %d", ErrSeriesTooShort, name, s.Len(), need)
		}
	}
	return nil
}

// firstDecisionTick is the first tick at or after startTick that falls on
// the scheduling hour.
func firstDecisionTick(p Params, startTick int) int {
	t := p.Start.Add(time.Duration(startTick) * clock.DefaultTickDuration)
	for i := 0; i < model.HoursPerDay; i++ {
		if t.Hour() == p.SchedulingHour {
			return startTick + i
		}
		t = t.Add(clock.DefaultTickDuration)
	}
	return startTick
}

// Reset restores the initial wallet, battery, clock and plan state and clears
// the history. A non-nil seed reseeds the ordering RNG and every seedable
// strategy with the same value.
func (e *Engine) Reset(seed *uint64) error {
	if seed != nil {
		e.pcg.Seed(*seed, *seed)
		for _, s := range e.strategies() {
			if sd, ok := s.(datastrategy.Seeder); ok {
				sd.Seed(*seed)
			}
		}
	}
	for _, s := range e.strategies() {
		if err := datastrategy.ClearLastProcessed(s); err != nil {
			return err
		}
	}
	e.prosumer.Wallet.Balance = e.params.InitialBalance
	e.prosumer.Battery.SetCharge(e.params.InitialCharge)
	e.prosumer.ResetPlan()
	e.clock.Set(e.startTime, e.startTick)
	e.history.Reset()
	e.commitBalance = e.params.InitialBalance
	e.prevCommitBalance = e.params.InitialBalance
	e.firstActionsScheduled = false
	e.firstActionsSet = false
	e.awaiting = false
	return nil
}

func (e *Engine) strategies() []datastrategy.Strategy {
	return []datastrategy.Strategy{e.params.Production, e.params.Consumption, e.params.Market}
}

// AdvanceToDecisionPoint runs ticks until the clock reaches the scheduling
// hour or the episode end. It reports whether an action is now expected.
func (e *Engine) AdvanceToDecisionPoint() (bool, error) {
	if e.awaiting {
		return true, ErrAwaitingAction
	}
	for !e.Done() {
		if e.clock.IsSchedulingHour() {
			e.awaiting = true
			return true, nil
		}
		if err := e.finishTick(); err != nil {
			return false, err
		}
	}
	e.log.Debug("episode finished",
		zap.Int("tick", e.clock.CurTick()),
		zap.Float64("balance", e.prosumer.Wallet.Balance.Float()),
	)
	return false, nil
}

// SupplyAction schedules the next day's plan and completes the suspended tick.
func (e *Engine) SupplyAction(actions []float64) error {
	if !e.awaiting {
		return ErrNotAwaitingAction
	}
	if err := e.prosumer.Schedule(actions); err != nil {
		return err
	}
	e.awaiting = false
	e.firstActionsScheduled = true
	return e.finishTick()
}

// finishTick runs everything after the scheduling check: commit, trading,
// recording and the clock step.
func (e *Engine) finishTick() error {
	if e.clock.IsActionReplacementHour() && e.firstActionsScheduled {
		if err := e.prosumer.SetNewActions(); err != nil {
			return fmt.Errorf("commit plan at tick %d: %w", e.clock.CurTick(), err)
		}
		e.prevCommitBalance = e.commitBalance
		e.commitBalance = e.prosumer.Wallet.Balance
		e.firstActionsSet = true
		e.log.Debug("plan committed",
			zap.Int("tick", e.clock.CurTick()),
			zap.Time("time", e.clock.CurTime()),
			zap.Float64("balance", e.commitBalance.Float()),
		)
	}
	if e.firstActionsSet {
		e.randProduceConsume()
	}
	e.history.RecordTick(e.prosumer)
	e.clock.Tick()
	return nil
}

func (e *Engine) randProduceConsume() {
	if e.rng.IntN(2) == 0 {
		e.prosumer.Consume()
		e.prosumer.Produce()
		return
	}
	e.prosumer.Produce()
	e.prosumer.Consume()
}

// DryRun simulates `ticks` ticks of the active plan, reads the relative
// battery charge and rewinds every piece of mutable state it touched.
// Before the first commit there is no plan, so the current charge is returned.
func (e *Engine) DryRun(ticks int) (float64, error) {
	if !e.firstActionsSet {
		return e.prosumer.Battery.RelCharge(), nil
	}
	saved, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	for i := 0; i < ticks; i++ {
		e.randProduceConsume()
		e.clock.Tick()
	}
	rel := e.prosumer.Battery.RelCharge()
	if err := e.restore(saved); err != nil {
		return 0, err
	}
	return rel, nil
}

type engineState struct {
	balance    model.Cost
	charge     model.Energy
	time       time.Time
	tick       int
	rng        []byte
	strategies []datastrategy.State
	tx         prosumer.Transactions
}

func (e *Engine) snapshot() (engineState, error) {
	rng, err := e.pcg.MarshalBinary()
	if err != nil {
		return engineState{}, fmt.Errorf("save rng: %w", err)
	}
	st := engineState{
		balance: e.prosumer.Wallet.Balance,
		charge:  e.prosumer.Battery.State.Charge,
		time:    e.clock.CurTime(),
		tick:    e.clock.CurTick(),
		rng:     rng,
		tx:      e.prosumer.Transactions(),
	}
	for _, s := range e.strategies() {
		st.strategies = append(st.strategies, s.Snapshot())
	}
	return st, nil
}

func (e *Engine) restore(st engineState) error {
	if err := e.pcg.UnmarshalBinary(st.rng); err != nil {
		return fmt.Errorf("restore rng: %w", err)
	}
	for i, s := range e.strategies() {
		if err := s.Restore(st.strategies[i]); err != nil {
			return err
		}
	}
	e.prosumer.Wallet.Balance = st.balance
	e.prosumer.Battery.SetCharge(st.charge)
	e.clock.Set(st.time, st.tick)
	e.prosumer.SetTransactions(st.tx)
	return nil
}

// Done reports whether the clock has reached the episode end.
func (e *Engine) Done() bool { return !e.clock.CurTime().Before(e.params.End) }

func (e *Engine) Awaiting() bool               { return e.awaiting }
func (e *Engine) FirstActionsScheduled() bool  { return e.firstActionsScheduled }
func (e *Engine) FirstActionsSet() bool        { return e.firstActionsSet }
func (e *Engine) StartTick() int               { return e.startTick }
func (e *Engine) StartTime() time.Time         { return e.startTime }
func (e *Engine) Clock() clock.View            { return e.clock.View() }
func (e *Engine) History() *History            { return e.history }
func (e *Engine) Prosumer() *prosumer.Prosumer { return e.prosumer }
func (e *Engine) Market() *market.Market       { return e.market }
func (e *Engine) Params() Params               { return e.params }

// BalanceDiff is the wallet growth between the two most recent plan commits.
func (e *Engine) BalanceDiff() float64 {
	return e.commitBalance.Sub(e.prevCommitBalance).Float()
}
