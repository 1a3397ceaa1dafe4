package model

// Action is a human-friendly battery operating mode for a tick.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromChargeDelta labels a tick by the change in relative battery charge.
func ActionFromChargeDelta(delta float64) Action {
	const eps = 1e-12
	switch {
	case delta > eps:
		return ActionCharging
	case delta < -eps:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
