package models

import (
	"time"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/simulation"
)

// SessionResponse describes a live environment session.
type SessionResponse struct {
	ID              string    `json:"id"`
	ExpiresAt       time.Time `json:"expires_at"`
	ObservationSize int       `json:"observation_size"`
	ActionSize      int       `json:"action_size"`
	Observation     []float64 `json:"observation"`
}

// StepResponse is one environment step plus running totals.
type StepResponse struct {
	simulation.StepResult
	Steps       int     `json:"steps"`
	TotalReward float64 `json:"total_reward"`
}

type HistoryResponse struct {
	Meta  simulation.HistoryMeta  `json:"meta"`
	Ticks []simulation.TickRecord `json:"ticks"`
	Steps []simulation.StepRecord `json:"steps"`
}

type EvaluateResponse struct {
	Runs       []analysis.RunSummary `json:"runs"`
	MeanReward map[string]float64    `json:"mean_reward"`
}

// StoredRun is a run saved to the database.
type StoredRun struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Summary   analysis.RunSummary `json:"summary"`
}

type StoredRunResponse struct {
	StoredRun
	History HistoryResponse `json:"history"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	CapacityMWh      float64 `json:"capacity_mwh"`
	Efficiency       float64 `json:"efficiency"`
	InitialChargeMWh float64 `json:"initial_charge_mwh"`
}

// AgentInfo describes a built-in agent
type AgentInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes an agent parameter
type ParameterInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "float", "int", "string"
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// DatasetInfo describes one series loaded by the server
type DatasetInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Column string `json:"column"`
	Rows   int    `json:"rows"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
