package model

import (
	"errors"
	"math"
)

// BatteryParams defines the physical parameters of the battery.
// Units:
// - Capacity: MWh
// - Efficiency: factor applied to energy on charge only (> 0)
type BatteryParams struct {
	Capacity   Energy
	Efficiency float64
}

// BatteryState captures mutable state.
type BatteryState struct {
	// Charge is the stored energy, always within [0, Capacity].
	Charge Energy
}

// Battery is a convenience wrapper bundling params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

var (
	ErrInvalidCapacity      = errors.New("battery capacity must be > 0")
	ErrInvalidEfficiency    = errors.New("battery efficiency must be > 0")
	ErrInvalidInitialCharge = errors.New("battery initial charge must be within [0, capacity]")
)

func NewBattery(params BatteryParams, initialCharge Energy) (*Battery, error) {
	b := &Battery{
		Params: params,
		State:  BatteryState{Charge: initialCharge},
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Battery) Validate() error {
	p := b.Params
	if math.IsNaN(float64(p.Capacity)) || p.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if math.IsNaN(p.Efficiency) || p.Efficiency <= 0 {
		return ErrInvalidEfficiency
	}
	if math.IsNaN(float64(b.State.Charge)) || b.State.Charge < 0 || b.State.Charge > p.Capacity {
		return ErrInvalidInitialCharge
	}
	return nil
}

// RelCharge is the state of charge as a fraction of capacity.
func (b *Battery) RelCharge() float64 {
	return b.State.Charge.Ratio(b.Params.Capacity)
}

// Charge stores amount*Efficiency if it fits and reports the whole amount as accepted.
// Otherwise the battery is filled to capacity and the returned value is the input energy
// that would have produced exactly that fill.
func (b *Battery) Charge(amount Energy) Energy {
	headroom := b.Params.Capacity - b.State.Charge
	stored := amount.Scale(b.Params.Efficiency)
	if stored <= headroom {
		b.State.Charge = b.clamp(b.State.Charge + stored)
		return amount
	}
	b.State.Charge = b.Params.Capacity
	return headroom.Div(b.Params.Efficiency)
}

// Discharge withdraws up to amount and returns what was actually withdrawn.
// There is no loss on discharge.
func (b *Battery) Discharge(amount Energy) Energy {
	discharged := amount
	if discharged > b.State.Charge {
		discharged = b.State.Charge
	}
	if discharged < 0 {
		discharged = 0
	}
	b.State.Charge = b.clamp(b.State.Charge - discharged)
	return discharged
}

// SetCharge overwrites the stored energy, clamped to [0, Capacity].
// Used by environment reset and dry-run restore.
func (b *Battery) SetCharge(charge Energy) {
	b.State.Charge = b.clamp(charge)
}

// clamp absorbs float drift at the bounds.
func (b *Battery) clamp(x Energy) Energy {
	if x < 0 {
		return 0
	}
	if x > b.Params.Capacity {
		return b.Params.Capacity
	}
	return x
}
