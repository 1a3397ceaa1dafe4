package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"prosumer-sim/internal/datastrategy"
	"prosumer-sim/internal/model"
)

var testStart = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

const testRows = 240

func testParams(t *testing.T, seed uint64) Params {
	t.Helper()
	prices := make([]float64, testRows)
	speeds := make([]float64, testRows)
	clouds := make([]float64, testRows)
	for i := range prices {
		h := i % 24
		prices[i] = 300 + 10*float64(h)
		speeds[i] = float64(i % 12)
		clouds[i] = float64(i % 10)
	}
	wind := datastrategy.NewWindPower(datastrategy.NewSeries("wind", speeds), 24, 0.01, 10)
	solar := datastrategy.NewSolarPower(datastrategy.NewSeries("cloud", clouds), 24, 0.01, 0.9)
	production, err := datastrategy.NewProduction(wind, solar)
	require.NoError(t, err)

	return Params{
		Production:      production,
		Consumption:     datastrategy.NewHouseholdConsumption(20, 24, seed),
		Market:          datastrategy.NewMarketPrice(datastrategy.NewSeries("price", prices), 24),
		Start:           testStart,
		End:             testStart.Add(7 * 24 * time.Hour),
		SchedulingHour:  DefaultSchedulingHour,
		ReplacementHour: DefaultReplacementHour,
		InitialBalance:  1000,
		Battery:         model.BatteryParams{Capacity: 0.1, Efficiency: 0.9},
		InitialCharge:   0.05,
		Seed:            seed,
		Logger:          zaptest.NewLogger(t),
	}
}

func testAction() []float64 {
	a := make([]float64, model.ActionSize)
	for h := 0; h < 7; h++ {
		a[h] = 0.002
		a[2*model.HoursPerDay+h] = 1000
	}
	for h := 16; h < 21; h++ {
		a[model.HoursPerDay+h] = 0.002
		a[3*model.HoursPerDay+h] = 0
	}
	return a
}

func newTestEnv(t *testing.T, seed uint64) *Env {
	t.Helper()
	env, err := NewEnv(testParams(t, seed))
	require.NoError(t, err)
	return env
}

func runEpisode(t *testing.T, env *Env, seed uint64) []StepResult {
	t.Helper()
	_, err := env.Reset(&seed)
	require.NoError(t, err)
	var out []StepResult
	for !env.Done() {
		res, err := env.Step(testAction())
		require.NoError(t, err)
		out = append(out, res)
	}
	return out
}
