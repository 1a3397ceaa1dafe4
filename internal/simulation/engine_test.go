package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosumer-sim/internal/datastrategy"
	"prosumer-sim/internal/model"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr error
	}{
		{"nil market", func(p *Params) { p.Market = nil }, ErrNilStrategy},
		{"equal hours", func(p *Params) { p.ReplacementHour = p.SchedulingHour }, ErrInvalidHours},
		{"hour out of range", func(p *Params) { p.SchedulingHour = 24 }, ErrInvalidHours},
		{"end before start", func(p *Params) { p.End = p.Start }, ErrInvalidPeriod},
		{"zero efficiency", func(p *Params) { p.Battery.Efficiency = 0 }, model.ErrInvalidEfficiency},
		{"overcharged", func(p *Params) { p.InitialCharge = 1 }, model.ErrInvalidInitialCharge},
		{"prices too short", func(p *Params) {
			p.Market = datastrategy.NewMarketPrice(datastrategy.NewSeries("price", make([]float64, 100)), 24)
		}, ErrSeriesTooShort},
		{"episode longer than data", func(p *Params) { p.End = p.Start.Add(10 * 24 * time.Hour) }, ErrSeriesTooShort},
		{"start tick before the first backward window", func(p *Params) {
			p.Start = testStart.Add(5 * time.Hour)
			p.End = p.Start.Add(7 * 24 * time.Hour)
			p.StartTick = intPtr(0)
		}, ErrSeriesTooShort},
		{"bounded consumption", func(p *Params) {
			p.Consumption = datastrategy.NewMarketPrice(datastrategy.NewSeries("c", make([]float64, testRows)), 24)
		}, ErrConsumptionSeries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(t, 1)
			tt.mutate(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_StartTickAfterMidnightStart(t *testing.T) {
	p := testParams(t, 1)
	p.Start = testStart.Add(5 * time.Hour)
	p.End = p.Start.Add(7 * 24 * time.Hour)
	// 15:00, so the first scheduling hour is tick 29 and its window starts at 19.
	p.StartTick = intPtr(10)

	env, err := NewEnv(p)
	require.NoError(t, err)
	seed := uint64(1)
	obs, err := env.Reset(&seed)
	require.NoError(t, err)
	assert.NotEmpty(t, obs)
	assert.Equal(t, 29, env.Engine().Clock().CurTick())
}

func TestStartTickOffset(t *testing.T) {
	p := testParams(t, 1)
	// Production looks forward, so only the 24-hour backward windows count.
	assert.Equal(t, 34, StartTickOffset(10, p.Production, p.Consumption, p.Market))

	e, err := New(p)
	require.NoError(t, err)
	assert.Equal(t, 34, e.StartTick())
	assert.Equal(t, testStart.Add(34*time.Hour), e.StartTime())
	assert.Equal(t, 10, e.StartTime().Hour())
}

func TestEngine_SchedulingHourSuspension(t *testing.T) {
	p := testParams(t, 1)
	p.StartTick = intPtr(30)
	e, err := New(p)
	require.NoError(t, err)

	assert.Equal(t, 6, e.Clock().CurTime().Hour())
	assert.ErrorIs(t, e.SupplyAction(testAction()), ErrNotAwaitingAction)
	assert.False(t, e.Prosumer().HasPending())
	assert.False(t, e.FirstActionsScheduled())

	awaiting, err := e.AdvanceToDecisionPoint()
	require.NoError(t, err)
	assert.True(t, awaiting)
	assert.Equal(t, 10, e.Clock().CurTime().Hour())
	assert.Equal(t, 4, e.History().Len())
	assert.False(t, e.Prosumer().HasPending())

	_, err = e.AdvanceToDecisionPoint()
	assert.ErrorIs(t, err, ErrAwaitingAction)

	require.NoError(t, e.SupplyAction(testAction()))
	assert.True(t, e.Prosumer().HasPending())
	assert.True(t, e.FirstActionsScheduled())
	assert.False(t, e.FirstActionsSet())
}

func intPtr(v int) *int { return &v }

func TestEngine_IdleUntilFirstCommit(t *testing.T) {
	e, err := New(testParams(t, 1))
	require.NoError(t, err)
	_, err = e.AdvanceToDecisionPoint()
	require.NoError(t, err)
	require.NoError(t, e.SupplyAction(testAction()))
	_, err = e.AdvanceToDecisionPoint()
	require.NoError(t, err)

	h := e.History()
	require.Equal(t, 24, h.Len())
	for i := 0; i < 14; i++ {
		rec, _ := h.At(i)
		assert.Zero(t, rec.Price, "tick %d", i)
		assert.Nil(t, rec.ScheduledBuy, "tick %d", i)
		assert.Equal(t, 0.5, rec.Battery)
		assert.Equal(t, 1000.0, rec.WalletBalance)
	}
	first, _ := h.At(14)
	assert.Equal(t, 0, first.Time.Hour())
	assert.NotZero(t, first.Price)
	assert.NotNil(t, first.ScheduledBuy)
	assert.True(t, e.FirstActionsSet())
	assert.Equal(t, 0.0, e.BalanceDiff())
}

func TestEngine_DryRunRestoresState(t *testing.T) {
	env := newTestEnv(t, 5)
	seed := uint64(5)
	_, err := env.Reset(&seed)
	require.NoError(t, err)
	_, err = env.Step(testAction())
	require.NoError(t, err)

	e := env.Engine()
	p := e.Prosumer()
	balance, charge := p.Wallet.Balance, p.Battery.State.Charge
	tick, now := e.Clock().CurTick(), e.Clock().CurTime()
	cons := e.Params().Consumption.Snapshot()
	tx := p.Transactions()

	rel, err := e.DryRun(14)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rel, 0.0)
	assert.LessOrEqual(t, rel, 1.0)

	assert.Equal(t, balance, p.Wallet.Balance)
	assert.Equal(t, charge, p.Battery.State.Charge)
	assert.Equal(t, tick, e.Clock().CurTick())
	assert.Equal(t, now, e.Clock().CurTime())
	assert.Equal(t, cons, e.Params().Consumption.Snapshot())
	assert.Equal(t, tx, p.Transactions())

	again, err := e.DryRun(14)
	require.NoError(t, err)
	assert.Equal(t, rel, again)
}

func TestEngine_DryRunBeforeCommitReturnsCurrentCharge(t *testing.T) {
	e, err := New(testParams(t, 1))
	require.NoError(t, err)

	rel, err := e.DryRun(14)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rel)
}
