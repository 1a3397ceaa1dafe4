package model

import (
	"errors"
	"fmt"
)

const (
	HoursPerDay = 24
	// ActionSize is the length of a daily action vector:
	// 24 buy amounts, 24 sell amounts, 24 buy thresholds, 24 sell thresholds.
	ActionSize = 4 * HoursPerDay
)

var ErrActionSize = errors.New("action vector has wrong length")

// Plan is a day of scheduled trades indexed by hour of day.
type Plan struct {
	BuyAmounts     [HoursPerDay]Energy
	SellAmounts    [HoursPerDay]Energy
	BuyThresholds  [HoursPerDay]Cost
	SellThresholds [HoursPerDay]Cost
}

// SplitActions builds a Plan from a flat action vector laid out as
// [buy amounts | sell amounts | buy thresholds | sell thresholds].
func SplitActions(actions []float64) (Plan, error) {
	if len(actions) != ActionSize {
		return Plan{}, fmt.Errorf("%w: got %d, want %d", ErrActionSize, len(actions), ActionSize)
	}
	var p Plan
	for h := 0; h < HoursPerDay; h++ {
		p.BuyAmounts[h] = Energy(actions[h])
		p.SellAmounts[h] = Energy(actions[HoursPerDay+h])
		p.BuyThresholds[h] = Cost(actions[2*HoursPerDay+h])
		p.SellThresholds[h] = Cost(actions[3*HoursPerDay+h])
	}
	return p, nil
}

// Flatten is the inverse of SplitActions.
func (p Plan) Flatten() []float64 {
	out := make([]float64, ActionSize)
	for h := 0; h < HoursPerDay; h++ {
		out[h] = float64(p.BuyAmounts[h])
		out[HoursPerDay+h] = float64(p.SellAmounts[h])
		out[2*HoursPerDay+h] = float64(p.BuyThresholds[h])
		out[3*HoursPerDay+h] = float64(p.SellThresholds[h])
	}
	return out
}

// Transaction is the outcome of one buy or sell attempt.
// For scheduled trades OK reports whether the price gate admitted it;
// for forced trades it reports whether a trade happened at all.
type Transaction struct {
	Amount float64 `json:"amount"`
	OK     bool    `json:"ok"`
}
