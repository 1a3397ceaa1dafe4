package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosumer-sim/internal/model"
)

func TestScheduleAgent_Windows(t *testing.T) {
	a, err := NewScheduleAgent(ScheduleParams{
		BuyStart:      "22:00",
		BuyEnd:        "04:00",
		SellStart:     "17:00",
		SellEnd:       "20:00",
		BuyAmountMWh:  0.01,
		SellAmountMWh: 0.02,
		BuyThreshold:  300,
		SellThreshold: 450,
	})
	require.NoError(t, err)

	plan, err := model.SplitActions(a.Act(Context{}))
	require.NoError(t, err)

	for h := 0; h < model.HoursPerDay; h++ {
		buying := h >= 22 || h < 4
		selling := h >= 17 && h < 20
		if buying {
			assert.Equal(t, model.Energy(0.01), plan.BuyAmounts[h], "hour %d", h)
			assert.Equal(t, model.Cost(300), plan.BuyThresholds[h], "hour %d", h)
		} else {
			assert.Zero(t, plan.BuyAmounts[h], "hour %d", h)
		}
		if selling {
			assert.Equal(t, model.Energy(0.02), plan.SellAmounts[h], "hour %d", h)
			assert.Equal(t, model.Cost(450), plan.SellThresholds[h], "hour %d", h)
		} else {
			assert.Zero(t, plan.SellAmounts[h], "hour %d", h)
		}
	}
	assert.Equal(t, "schedule", a.Name())
}

func TestNewScheduleAgent_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    ScheduleParams
	}{
		{"bad buy start", ScheduleParams{BuyStart: "25:00", SellStart: "17:00"}},
		{"missing sell start", ScheduleParams{BuyStart: "01:00"}},
		{"bad buy end", ScheduleParams{BuyStart: "01:00", BuyEnd: "x", SellStart: "17:00"}},
		{"negative amount", ScheduleParams{BuyStart: "01:00", SellStart: "17:00", BuyAmountMWh: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheduleAgent(tt.p)
			assert.Error(t, err)
		})
	}
}

func TestInWindow(t *testing.T) {
	assert.False(t, inWindow(60, 60, 60))
	assert.True(t, inWindow(60, 0, 120))
	assert.False(t, inWindow(120, 0, 120))
	assert.True(t, inWindow(23*60, 22*60, 60))
	assert.True(t, inWindow(0, 22*60, 60))
	assert.False(t, inWindow(12*60, 22*60, 60))
}

func TestRandomAgent(t *testing.T) {
	p := RandomParams{MaxAmountMWh: 0.01, MaxPrice: 500, Seed: 42}
	a, b := NewRandomAgent(p), NewRandomAgent(p)

	first := a.Act(Context{})
	require.Len(t, first, model.ActionSize)
	assert.Equal(t, first, b.Act(Context{}))
	assert.NotEqual(t, first, a.Act(Context{}))

	for i, v := range first {
		bound := 0.01
		if i >= 48 {
			bound = 500
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, bound)
	}
}
