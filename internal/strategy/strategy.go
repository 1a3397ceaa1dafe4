package strategy

import "time"

// Context is what an agent sees at a decision point.
type Context struct {
	Step        int
	Time        time.Time
	Observation []float64
	// RelCharge is the battery's relative state of charge.
	RelCharge float64
}

// Agent produces the next day's 96-value action vector.
type Agent interface {
	Name() string
	Act(ctx Context) []float64
}
