package simulation

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosumer-sim/internal/clock"
	"prosumer-sim/internal/model"
)

func syntheticHistory(n int) *History {
	h := NewHistory(clock.Static{Sched: 10}, HistoryMeta{
		SchedulingHour:        10,
		UnscheduledMultiplier: 2,
		BatteryCapacity:       0.1,
		BatteryEfficiency:     1,
	})
	for i := 0; i < n; i++ {
		h.ticks = append(h.ticks, TickRecord{
			Tick:     34 + i,
			Time:     testStart.Add(time.Duration(34+i) * time.Hour),
			Price:    100,
			Produced: 10,
			Consumed: 2,
		})
	}
	return h
}

func TestLastDaySummary_PotentialProfit(t *testing.T) {
	h := syntheticHistory(72)

	s, ok := h.LastDaySummary(10)

	require.True(t, ok)
	assert.InDelta(t, 19200, s.PotentialProfit, 1e-9)
	assert.InDelta(t, 100, s.AvgPrice, 1e-12)
	assert.Zero(t, s.UnscheduledBuyLoss)
	assert.Zero(t, s.UnscheduledSellProfit)
	assert.Zero(t, s.PriceDiffProfit)
}

func TestLastDaySummary_GatedUntilFullDay(t *testing.T) {
	_, ok := syntheticHistory(61).LastDaySummary(10)
	assert.False(t, ok)

	_, ok = syntheticHistory(62).LastDaySummary(10)
	assert.True(t, ok)
}

func TestLastDaySummary_WindowAnchoring(t *testing.T) {
	h := syntheticHistory(72)
	// The window is rows [72-10-24, 72-10) = [38, 62).
	h.ticks[37].Produced = 1000
	h.ticks[62].Produced = 1000
	h.ticks[38].UnscheduledSell = model.Transaction{Amount: 1, OK: true}
	h.ticks[39].UnscheduledSell = model.Transaction{Amount: 5, OK: false}
	h.ticks[61].UnscheduledBuy = model.Transaction{Amount: 0.5, OK: true}
	h.ticks[40].Price = 50
	h.ticks[50].Price = 250

	s, ok := h.LastDaySummary(10)

	require.True(t, ok)
	avg := (22*100 + 50 + 250) / 24.0
	assert.InDelta(t, avg, s.AvgPrice, 1e-9)
	assert.InDelta(t, 8*24*avg, s.PotentialProfit, 1e-9)
	assert.InDelta(t, 1*avg/2, s.UnscheduledSellProfit, 1e-9)
	assert.InDelta(t, 0.5*avg*2, s.UnscheduledBuyLoss, 1e-9)
	// Prices are rows 38..61: cheapest night hour is 50, dearest day hour 250.
	assert.InDelta(t, (250-50)*0.1, s.PriceDiffProfit, 1e-9)
}

func TestHistory_TradedPrices(t *testing.T) {
	h := syntheticHistory(5)
	h.ticks[0].Price = 0
	h.ticks[1].Price = 0
	for i := 2; i < 5; i++ {
		h.ticks[i].Price = float64(100 * i)
		h.ticks[i].ScheduledBuy = &model.Transaction{}
	}

	assert.Equal(t, []float64{200, 300, 400}, h.TradedPrices())
	assert.Empty(t, syntheticHistory(3).TradedPrices())
}

func TestHistory_SaveLoadRoundTrip(t *testing.T) {
	env := newTestEnv(t, 21)
	runEpisode(t, env, 21)
	path := filepath.Join(t.TempDir(), "history.json")

	require.NoError(t, env.History().Save(path))
	loaded, err := LoadHistory(path, nil)
	require.NoError(t, err)

	orig := env.History()
	assert.Equal(t, orig.Meta(), loaded.Meta())
	require.Equal(t, orig.Len(), loaded.Len())
	for i, want := range orig.Ticks() {
		got := loaded.Ticks()[i]
		assert.True(t, want.Time.Equal(got.Time), "tick %d time", i)
		got.Time = want.Time
		assert.Equal(t, want, got, "tick %d", i)
	}
	assert.Equal(t, len(orig.Steps()), len(loaded.Steps()))
	for i, want := range orig.Steps() {
		got := loaded.Steps()[i]
		assert.True(t, want.Time.Equal(got.Time))
		got.Time = want.Time
		assert.Equal(t, want, got)
	}

	last := orig.Ticks()[orig.Len()-1]
	assert.Equal(t, last.Tick+1, loaded.view.CurTick())
	assert.Equal(t, 10, loaded.view.SchedulingHour())
}

func TestLoadHistory_MissingFile(t *testing.T) {
	_, err := LoadHistory(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Error(t, err)
}
