package models

import (
	"time"

	"prosumer-sim/internal/config"
)

// CreateEnvRequest is the body of POST /api/v1/envs. Every field is optional;
// omitted ones keep the server's base scenario.
type CreateEnvRequest struct {
	Seed           *uint64               `json:"seed,omitempty"`
	BatteryID      string                `json:"battery_id,omitempty"` // preset file name without .yaml
	Battery        *config.BatteryConfig `json:"battery,omitempty"`    // overrides on top of the preset
	Start          *time.Time            `json:"start,omitempty"`
	End            *time.Time            `json:"end,omitempty"`
	SchedulingHour *int                  `json:"scheduling_hour,omitempty"`
}

// ResetRequest is the optional body of POST /api/v1/envs/:id/reset.
type ResetRequest struct {
	Seed *uint64 `json:"seed,omitempty"`
}

// StepRequest carries the next day's action vector.
type StepRequest struct {
	Action []float64 `json:"action" binding:"required"`
}

// SaveRunRequest names a finished session episode before it is stored.
type SaveRunRequest struct {
	Name string `json:"name,omitempty"`
}

// EvaluateRequest runs one episode per seed with a built-in agent.
type EvaluateRequest struct {
	Seeds       []uint64            `json:"seeds" binding:"required,min=1"`
	Agent       *config.AgentConfig `json:"agent,omitempty"` // default: the scenario's agent
	BatteryID   string              `json:"battery_id,omitempty"`
	Concurrency int                 `json:"concurrency,omitempty"` // default: 4
}
