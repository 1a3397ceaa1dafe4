package strategy

import (
	"fmt"
	"strings"

	"prosumer-sim/internal/model"
)

// ScheduleParams describes a fixed daily plan:
// - Buy BuyAmountMWh each hour in [BuyStart, BuyEnd) if the price is at most BuyThreshold
// - Sell SellAmountMWh each hour in [SellStart, SellEnd) if the price is at least SellThreshold
// - Otherwise trade nothing
//
// Windows are "HH:MM" on the simulation clock; an hour belongs to a window
// when its start minute does.
type ScheduleParams struct {
	BuyStart      string  `yaml:"buy_start" json:"buy_start"`
	BuyEnd        string  `yaml:"buy_end" json:"buy_end"`   // optional; default = SellStart
	SellStart     string  `yaml:"sell_start" json:"sell_start"`
	SellEnd       string  `yaml:"sell_end" json:"sell_end"` // optional; default = SellStart => zero-length
	BuyAmountMWh  float64 `yaml:"buy_amount_mwh" json:"buy_amount_mwh"`
	SellAmountMWh float64 `yaml:"sell_amount_mwh" json:"sell_amount_mwh"`
	BuyThreshold  float64 `yaml:"buy_threshold" json:"buy_threshold"`
	SellThreshold float64 `yaml:"sell_threshold" json:"sell_threshold"`
}

type ScheduleAgent struct {
	Params ScheduleParams
	plan   model.Plan
}

func NewScheduleAgent(p ScheduleParams) (*ScheduleAgent, error) {
	bs, err := parseHHMM(p.BuyStart)
	if err != nil {
		return nil, fmt.Errorf("buy_start: %w", err)
	}
	ss, err := parseHHMM(p.SellStart)
	if err != nil {
		return nil, fmt.Errorf("sell_start: %w", err)
	}
	be := ss
	if strings.TrimSpace(p.BuyEnd) != "" {
		if be, err = parseHHMM(p.BuyEnd); err != nil {
			return nil, fmt.Errorf("buy_end: %w", err)
		}
	}
	se := ss
	if strings.TrimSpace(p.SellEnd) != "" {
		if se, err = parseHHMM(p.SellEnd); err != nil {
			return nil, fmt.Errorf("sell_end: %w", err)
		}
	}
	if p.BuyAmountMWh < 0 || p.SellAmountMWh < 0 {
		return nil, fmt.Errorf("trade amounts must be >= 0")
	}

	a := &ScheduleAgent{Params: p}
	for h := 0; h < model.HoursPerDay; h++ {
		mins := h * 60
		if inWindow(mins, bs, be) {
			a.plan.BuyAmounts[h] = model.Energy(p.BuyAmountMWh)
			a.plan.BuyThresholds[h] = model.Cost(p.BuyThreshold)
		}
		if inWindow(mins, ss, se) {
			a.plan.SellAmounts[h] = model.Energy(p.SellAmountMWh)
			a.plan.SellThresholds[h] = model.Cost(p.SellThreshold)
		}
	}
	return a, nil
}

func (s *ScheduleAgent) Name() string { return "schedule" }

// Act returns the same plan every day.
func (s *ScheduleAgent) Act(Context) []float64 { return s.plan.Flatten() }

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// If start == end, the window is empty (always false).
// If start > end, it wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	return tMins >= start || tMins < end
}
