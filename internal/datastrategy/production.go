package datastrategy

import "fmt"

// WindPower converts wind speed (m/s) into power with a linear curve up to
// MaxSpeed. Speeds outside [0, MaxSpeed] produce nothing.
type WindPower struct {
	cache
	Window
	speeds   *Series
	MaxPower float64
	MaxSpeed float64
}

func NewWindPower(speeds *Series, windowSize int, maxPower, maxSpeed float64) *WindPower {
	return &WindPower{
		Window:   Window{Size: windowSize, Dir: Forward},
		speeds:   speeds,
		MaxPower: maxPower,
		MaxSpeed: maxSpeed,
	}
}

func WindPowerValue(speed, maxSpeed, maxPower float64) float64 {
	if speed < 0 || speed > maxSpeed {
		return 0
	}
	return speed * maxPower / maxSpeed
}

func (w *WindPower) Process(idx int) float64 {
	return w.set(WindPowerValue(w.speeds.At(idx), w.MaxSpeed, w.MaxPower))
}

// Observation returns raw wind speeds.
func (w *WindPower) Observation(idx, schedulingHour int) []float64 {
	return w.speeds.Slice(w.Bounds(idx, schedulingHour))
}

func (w *WindPower) Len() int { return w.speeds.Len() }

func (w *WindPower) Snapshot() State { return w.snapshot() }

func (w *WindPower) Restore(s State) error {
	w.restore(s)
	return nil
}

// SolarPower converts cloudiness in oktas into power.
type SolarPower struct {
	cache
	Window
	cloudiness *Series
	MaxPower   float64
	Efficiency float64
}

func NewSolarPower(cloudiness *Series, windowSize int, maxPower, efficiency float64) *SolarPower {
	return &SolarPower{
		Window:     Window{Size: windowSize, Dir: Forward},
		cloudiness: cloudiness,
		MaxPower:   maxPower,
		Efficiency: efficiency,
	}
}

// SolarPowerValue treats 9 (sky obscured) as 8 (overcast).
func SolarPowerValue(cloudiness, maxPower, efficiency float64) float64 {
	if cloudiness == 9 {
		cloudiness = 8
	}
	return maxPower * (1 - cloudiness/8) * efficiency
}

func (s *SolarPower) Process(idx int) float64 {
	return s.set(SolarPowerValue(s.cloudiness.At(idx), s.MaxPower, s.Efficiency))
}

// Observation returns raw cloudiness values.
func (s *SolarPower) Observation(idx, schedulingHour int) []float64 {
	return s.cloudiness.Slice(s.Bounds(idx, schedulingHour))
}

func (s *SolarPower) Len() int { return s.cloudiness.Len() }

func (s *SolarPower) Snapshot() State { return s.snapshot() }

func (s *SolarPower) Restore(st State) error {
	s.restore(st)
	return nil
}

// Production sums a wind and a solar source. Its observation is the wind
// window followed by the solar window.
type Production struct {
	cache
	Wind  *WindPower
	Solar *SolarPower
}

func NewProduction(wind *WindPower, solar *SolarPower) (*Production, error) {
	if wind == nil || solar == nil {
		return nil, fmt.Errorf("production needs both wind and solar sources")
	}
	if wind.Dir != solar.Dir {
		return nil, fmt.Errorf("production sources disagree on window direction: %s vs %s", wind.Dir, solar.Dir)
	}
	return &Production{Wind: wind, Solar: solar}, nil
}

func (p *Production) Process(idx int) float64 {
	return p.set(p.Solar.Process(idx) + p.Wind.Process(idx))
}

func (p *Production) Observation(idx, schedulingHour int) []float64 {
	out := p.Wind.Observation(idx, schedulingHour)
	return append(out, p.Solar.Observation(idx, schedulingHour)...)
}

func (p *Production) ObservationSize() int { return p.Wind.ObservationSize() + p.Solar.ObservationSize() }
func (p *Production) Direction() Direction { return p.Wind.Direction() }

// LookAhead covers the wider of the two child windows.
func (p *Production) LookAhead(schedulingHour int) int {
	return max(p.Wind.LookAhead(schedulingHour), p.Solar.LookAhead(schedulingHour))
}

func (p *Production) Len() int { return min(p.Wind.Len(), p.Solar.Len()) }

func (p *Production) Snapshot() State {
	s := p.snapshot()
	s.Children = []State{p.Wind.Snapshot(), p.Solar.Snapshot()}
	return s
}

func (p *Production) Restore(s State) error {
	if len(s.Children) != 2 {
		return fmt.Errorf("%w: production wants 2 children, got %d", ErrStateMismatch, len(s.Children))
	}
	p.restore(s)
	if err := p.Wind.Restore(s.Children[0]); err != nil {
		return err
	}
	return p.Solar.Restore(s.Children[1])
}
