package datastrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestWindow_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		w         Window
		idx       int
		sched     int
		wantStart int
		wantEnd   int
	}{
		{"backward at scheduling hour", Window{Size: 24, Dir: Backward}, 34, 10, 24, 48},
		{"backward short", Window{Size: 5, Dir: Backward}, 10, 10, 0, 5},
		{"forward looks at next day", Window{Size: 24, Dir: Forward}, 34, 10, 48, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.w.Bounds(tt.idx, tt.sched)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestWindow_LookAhead(t *testing.T) {
	assert.Equal(t, 13, Window{Size: 24, Dir: Backward}.LookAhead(10))
	assert.Equal(t, 0, Window{Size: 5, Dir: Backward}.LookAhead(10))
	assert.Equal(t, 37, Window{Size: 24, Dir: Forward}.LookAhead(10))
}

func TestMarketPrice(t *testing.T) {
	m := NewMarketPrice(NewSeries("price", ramp(100)), 24)

	_, ok := m.LastProcessed()
	assert.False(t, ok)

	assert.Equal(t, 42.0, m.Process(42))
	last, ok := m.LastProcessed()
	assert.True(t, ok)
	assert.Equal(t, 42.0, last)

	obs := m.Observation(34, 10)
	require.Len(t, obs, 24)
	assert.Equal(t, 24.0, obs[0])
	assert.Equal(t, 47.0, obs[23])
	assert.Equal(t, Backward, m.Direction())
	assert.Equal(t, 100, m.Len())
}

func TestSeries_IsImmutable(t *testing.T) {
	values := []float64{1, 2, 3}
	s := NewSeries("x", values)
	values[0] = 99

	assert.Equal(t, 1.0, s.At(0))

	out := s.Slice(0, 2)
	out[0] = 42
	assert.Equal(t, 1.0, s.At(0))
	assert.Panics(t, func() { s.At(3) })
}

func TestWindPowerValue(t *testing.T) {
	tests := []struct {
		speed float64
		want  float64
	}{
		{-1, 0},
		{0, 0},
		{5, 0.5},
		{10, 1},
		{10.5, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, WindPowerValue(tt.speed, 10, 1), 1e-12, "speed %v", tt.speed)
	}
}

func TestSolarPowerValue(t *testing.T) {
	assert.InDelta(t, 0.9, SolarPowerValue(0, 1, 0.9), 1e-12)
	assert.InDelta(t, 0.45, SolarPowerValue(4, 1, 0.9), 1e-12)
	assert.InDelta(t, 0, SolarPowerValue(8, 1, 0.9), 1e-12)
	assert.InDelta(t, 0, SolarPowerValue(9, 1, 0.9), 1e-12)
}

func TestProduction_Composite(t *testing.T) {
	speeds := NewSeries("wind", []float64{5, 5, 5, 5, 20, 5, 5, 5})
	clouds := NewSeries("cloud", []float64{0, 4, 8, 9, 0, 0, 0, 0})
	wind := NewWindPower(speeds, 2, 1, 10)
	solar := NewSolarPower(clouds, 2, 2, 1)
	p, err := NewProduction(wind, solar)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, p.Process(0), 1e-12)
	assert.InDelta(t, 1.5, p.Process(1), 1e-12)
	assert.InDelta(t, 2.0, p.Process(4), 1e-12)

	w, _ := wind.LastProcessed()
	s, _ := solar.LastProcessed()
	assert.InDelta(t, 0, w, 1e-12)
	assert.InDelta(t, 2, s, 1e-12)

	assert.Equal(t, 4, p.ObservationSize())
	obs := p.Observation(0, 23)
	assert.Equal(t, []float64{5, 5, 4, 8}, obs)
	assert.Equal(t, 8, p.Len())
}

func TestNewProduction_RejectsMixedDirections(t *testing.T) {
	wind := NewWindPower(NewSeries("w", ramp(4)), 1, 1, 10)
	solar := NewSolarPower(NewSeries("c", ramp(4)), 1, 1, 1)
	solar.Dir = Backward

	_, err := NewProduction(wind, solar)
	assert.Error(t, err)
}

func TestProduction_SnapshotRestore(t *testing.T) {
	wind := NewWindPower(NewSeries("w", []float64{1, 2}), 1, 1, 10)
	solar := NewSolarPower(NewSeries("c", []float64{0, 8}), 1, 1, 1)
	p, err := NewProduction(wind, solar)
	require.NoError(t, err)

	p.Process(0)
	saved := p.Snapshot()
	p.Process(1)

	require.NoError(t, p.Restore(saved))
	last, _ := p.LastProcessed()
	assert.InDelta(t, 1.1, last, 1e-12)
	w, _ := wind.LastProcessed()
	assert.InDelta(t, 0.1, w, 1e-12)

	assert.ErrorIs(t, p.Restore(State{}), ErrStateMismatch)
}

func TestConstant(t *testing.T) {
	c := NewConstant(0.01, 3)
	assert.Equal(t, 0.01, c.Process(12345))
	assert.Equal(t, []float64{0.01, 0.01, 0.01}, c.Observation(0, 10))
	assert.Equal(t, 0, c.Len())
}
