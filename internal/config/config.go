package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prosumer-sim/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string        `yaml:"battery_file"`
	Battery     BatteryConfig `yaml:"battery"`
	Data        DataConfig    `yaml:"data"`
	Agent       AgentConfig   `yaml:"agent"`
}

type SimulationConfig struct {
	Start                 time.Time `yaml:"start"`
	End                   time.Time `yaml:"end"`
	SchedulingHour        *int      `yaml:"scheduling_hour"`
	ReplacementHour       *int      `yaml:"action_replacement_hour"`
	StartTick             *int      `yaml:"start_tick"`
	Seed                  uint64    `yaml:"seed"`
	UnscheduledMultiplier float64   `yaml:"unscheduled_multiplier"`
	InitialBalance        float64   `yaml:"initial_balance"`
}

type BatteryConfig struct {
	Name             string  `yaml:"name" json:"name"`
	CapacityMWh      float64 `yaml:"capacity_mwh" json:"capacity_mwh"`
	Efficiency       float64 `yaml:"efficiency" json:"efficiency"`
	InitialChargeMWh float64 `yaml:"initial_charge_mwh" json:"initial_charge_mwh"`
}

type DataConfig struct {
	Prices      PricesConfig      `yaml:"prices"`
	Weather     WeatherConfig     `yaml:"weather"`
	Consumption ConsumptionConfig `yaml:"consumption"`
}

// PricesConfig points at an hourly price file. CSV files are read by column
// name; JSON files use the {"market", "data": [...]} shape.
type PricesConfig struct {
	Path   string `yaml:"path"`
	Column string `yaml:"column"`
	Window int    `yaml:"window"`
}

type WeatherConfig struct {
	Path             string  `yaml:"path"`
	WindColumn       string  `yaml:"wind_column"`
	CloudinessColumn string  `yaml:"cloudiness_column"`
	Window           int     `yaml:"window"`
	MaxWindPowerMW   float64 `yaml:"max_wind_power_mw"`
	MaxWindSpeed     float64 `yaml:"max_wind_speed"`
	MaxSolarPowerMW  float64 `yaml:"max_solar_power_mw"`
	SolarEfficiency  float64 `yaml:"solar_efficiency"`
}

type ConsumptionConfig struct {
	Households int `yaml:"households"`
	Window     int `yaml:"window"`
}

type AgentConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// Defaults used when a field is left out.
const (
	DefaultSchedulingHour  = 10
	DefaultReplacementHour = 0
	DefaultWindow          = 24
	DefaultInitialBalance  = 10_000

	DefaultMaxWindPowerMW  = 0.01
	DefaultMaxWindSpeed    = 11
	DefaultMaxSolarPowerMW = 0.001
	DefaultSolarEfficiency = 0.2
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		loaded, err := loadBatteryFile(resolve(base, c.BatteryFile))
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	c.Data.Prices.Path = resolve(base, c.Data.Prices.Path)
	c.Data.Weather.Path = resolve(base, c.Data.Weather.Path)
	return c, nil
}

// Parse decodes YAML without touching the filesystem.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// resolve prefers interpreting relative paths as relative to the config file
// directory, but falls back to the provided path (relative to cwd) if that
// doesn't exist.
func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(base, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

func (c *Config) ApplyDefaults() {
	s := &c.Simulation
	if s.SchedulingHour == nil {
		s.SchedulingHour = intPtr(DefaultSchedulingHour)
	}
	if s.ReplacementHour == nil {
		s.ReplacementHour = intPtr(DefaultReplacementHour)
	}
	if s.InitialBalance == 0 {
		s.InitialBalance = DefaultInitialBalance
	}
	for _, w := range []*int{&c.Data.Prices.Window, &c.Data.Weather.Window, &c.Data.Consumption.Window} {
		if *w == 0 {
			*w = DefaultWindow
		}
	}
	if c.Data.Consumption.Households == 0 {
		c.Data.Consumption.Households = 1
	}
	w := &c.Data.Weather
	for _, d := range []struct {
		field *float64
		def   float64
	}{
		{&w.MaxWindPowerMW, DefaultMaxWindPowerMW},
		{&w.MaxWindSpeed, DefaultMaxWindSpeed},
		{&w.MaxSolarPowerMW, DefaultMaxSolarPowerMW},
		{&w.SolarEfficiency, DefaultSolarEfficiency},
	} {
		if *d.field == 0 {
			*d.field = d.def
		}
	}
	if c.Data.Weather.WindColumn == "" {
		c.Data.Weather.WindColumn = "wind_speed"
	}
	if c.Data.Weather.CloudinessColumn == "" {
		c.Data.Weather.CloudinessColumn = "cloudiness"
	}
}

func intPtr(v int) *int { return &v }

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Agent.Name == "" {
		return errors.New("agent.name is required")
	}
	s := c.Simulation
	if s.Start.IsZero() || s.End.IsZero() {
		return errors.New("simulation.start and simulation.end are required")
	}
	if !s.End.After(s.Start) {
		return errors.New("simulation.end must be after simulation.start")
	}
	if s.SchedulingHour != nil && s.ReplacementHour != nil && *s.SchedulingHour == *s.ReplacementHour {
		return errors.New("scheduling_hour and action_replacement_hour must differ")
	}
	if c.Data.Prices.Path == "" {
		return errors.New("data.prices.path is required")
	}
	if c.Data.Weather.Path == "" {
		return errors.New("data.weather.path is required")
	}
	if c.Data.Prices.Column == "" && !strings.EqualFold(filepath.Ext(c.Data.Prices.Path), ".json") {
		return errors.New("data.prices.column is required for csv prices")
	}
	// Validate battery params by constructing a model.Battery.
	if _, err := model.NewBattery(c.Battery.ToModelParams(), model.Energy(c.Battery.InitialChargeMWh)); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	return nil
}

func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		Capacity:   model.Energy(b.CapacityMWh),
		Efficiency: b.Efficiency,
	}
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

func loadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	return ParseBattery(raw)
}

// ParseBattery decodes a battery preset document.
func ParseBattery(raw []byte) (BatteryConfig, error) {
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, err
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityMWh != 0 {
		out.CapacityMWh = override.CapacityMWh
	}
	if override.Efficiency != 0 {
		out.Efficiency = override.Efficiency
	}
	// An empty battery is a valid start, but presets never ask for one explicitly.
	if override.InitialChargeMWh != 0 {
		out.InitialChargeMWh = override.InitialChargeMWh
	}
	return out
}
