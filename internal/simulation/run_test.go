package simulation

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosumer-sim/internal/model"
	"prosumer-sim/internal/strategy"
)

type fixedAgent struct{ action []float64 }

func (fixedAgent) Name() string                     { return "fixed" }
func (a fixedAgent) Act(strategy.Context) []float64 { return a.action }

func TestRunEpisode(t *testing.T) {
	env := newTestEnv(t, 1)

	sum, err := RunEpisode(context.Background(), env, fixedAgent{testAction()}, 7)

	require.NoError(t, err)
	assert.Equal(t, "fixed", sum.Agent)
	assert.Equal(t, uint64(7), sum.Seed)
	assert.Equal(t, 6, sum.Steps)
	assert.InDelta(t, env.TotalReward(), sum.TotalReward, 1e-9)
	assert.InDelta(t, sum.FinalBalance-1000, sum.BalanceChange, 1e-9)
	assert.GreaterOrEqual(t, sum.UnscheduledBoughtMWh, 0.0)
	assert.GreaterOrEqual(t, sum.UnscheduledSoldMWh, 0.0)
}

func TestRunEpisode_MatchesManualLoop(t *testing.T) {
	manual := newTestEnv(t, 3)
	runEpisode(t, manual, 3)

	sum, err := RunEpisode(context.Background(), newTestEnv(t, 3), fixedAgent{testAction()}, 3)

	require.NoError(t, err)
	assert.InDelta(t, manual.TotalReward(), sum.TotalReward, 1e-9)
}

func TestRunEpisode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunEpisode(ctx, newTestEnv(t, 1), fixedAgent{testAction()}, 1)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate(t *testing.T) {
	idle := make([]float64, model.ActionSize)
	job := func(name string, seed uint64, action []float64) Job {
		return Job{
			Name:     name,
			Seed:     seed,
			NewEnv:   func() (*Env, error) { return NewEnv(testParams(t, seed)) },
			NewAgent: func() (strategy.Agent, error) { return fixedAgent{action}, nil },
		}
	}
	jobs := []Job{
		job("a", 1, testAction()),
		job("b", 2, idle),
		job("c", 3, testAction()),
	}

	runs, err := Evaluate(context.Background(), jobs, 2)

	require.NoError(t, err)
	require.Len(t, runs, 3)
	names := []string{runs[0].Name, runs[1].Name, runs[2].Name}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
	for i := 1; i < len(runs); i++ {
		assert.GreaterOrEqual(t, runs[i-1].TotalReward, runs[i].TotalReward)
	}
}

func TestEvaluate_JobError(t *testing.T) {
	boom := errors.New("boom")
	jobs := []Job{{
		Name:     "broken",
		NewEnv:   func() (*Env, error) { return nil, boom },
		NewAgent: func() (strategy.Agent, error) { return fixedAgent{}, nil },
	}}

	_, err := Evaluate(context.Background(), jobs, 0)

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestWriteLedgerCSV(t *testing.T) {
	env := newTestEnv(t, 1)
	runEpisode(t, env, 1)
	path := filepath.Join(t.TempDir(), "ledger.csv")

	require.NoError(t, WriteLedgerCSV(path, env.History().Ticks(), 0.5))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, env.History().Len()+1)
	assert.Equal(t, "tick", rows[0][0])
	assert.Equal(t, "0.500000", rows[1][6])
	for _, r := range rows[1:] {
		assert.Contains(t, []string{"CHARGING", "IDLE", "DISCHARGING"}, r[3])
	}
}

func TestWriteLedger_WalletBalanceInCents(t *testing.T) {
	ticks := []TickRecord{
		{Tick: 34, WalletBalance: 12.345},
		{Tick: 35, WalletBalance: -2.005},
		{Tick: 36, WalletBalance: 1000},
	}
	var buf bytes.Buffer

	require.NoError(t, WriteLedger(&buf, ticks, 0))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	col := len(rows[0]) - 1
	assert.Equal(t, "wallet_balance", rows[0][col])
	assert.Equal(t, "12.35", rows[1][col])
	assert.Equal(t, "-2.01", rows[2][col])
	assert.Equal(t, "1000.00", rows[3][col])
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := newTestEnv(t, 5)
	sum, err := RunEpisode(ctx, env, fixedAgent{testAction()}, 1<<63+5)
	require.NoError(t, err)
	sum.Name = "first"

	id, err := store.SaveRun(ctx, sum, env.History())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	row, h, err := store.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, sum, row.Summary())
	require.Equal(t, env.History().Len(), h.Len())
	assert.Equal(t, env.History().Meta(), h.Meta())

	want, got := env.History().Ticks(), h.Ticks()
	assert.Equal(t, want[0].Tick, got[0].Tick)
	assert.True(t, want[0].Time.Equal(got[0].Time))
	assert.Equal(t, want[len(want)-1].ScheduledBuy, got[len(got)-1].ScheduledBuy)
	assert.Nil(t, got[0].ScheduledBuy)

	require.Len(t, h.Steps(), len(env.History().Steps()))
	last := h.Steps()[len(h.Steps())-1]
	assert.Equal(t, testAction(), last.Action)
	require.NotNil(t, last.Reward)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)

	require.NoError(t, store.DeleteRun(ctx, id))
	_, _, err = store.LoadRun(ctx, id)
	assert.Error(t, err)
	assert.Error(t, store.DeleteRun(ctx, id))
}

func TestStore_KeepsClockZone(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p := testParams(t, 3)
	p.Start = time.Date(2016, 1, 1, 0, 0, 0, 0, time.FixedZone("", 2*3600))
	p.End = p.Start.Add(7 * 24 * time.Hour)
	env, err := NewEnv(p)
	require.NoError(t, err)
	sum, err := RunEpisode(ctx, env, fixedAgent{testAction()}, 3)
	require.NoError(t, err)

	id, err := store.SaveRun(ctx, sum, env.History())
	require.NoError(t, err)
	_, h, err := store.LoadRun(ctx, id)
	require.NoError(t, err)

	want := env.History().Ticks()
	require.Len(t, h.Ticks(), len(want))
	for i, got := range h.Ticks() {
		assert.True(t, want[i].Time.Equal(got.Time), "tick %d", i)
		assert.Equal(t, want[i].Time.Hour(), got.Time.Hour(), "tick %d", i)
	}
	wantSteps := env.History().Steps()
	require.Len(t, h.Steps(), len(wantSteps))
	for i, st := range h.Steps() {
		assert.Equal(t, wantSteps[i].Time.Hour(), st.Time.Hour(), "step %d", i)
	}
	assert.Equal(t, p.SchedulingHour, h.Steps()[0].Time.Hour())
	assert.Equal(t, env.Engine().Clock().CurTime().Hour(), h.view.CurTime().Hour())
}
