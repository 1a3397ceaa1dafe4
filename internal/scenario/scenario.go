// Package scenario turns a loaded config into ready-to-run environments and
// agents.
package scenario

import (
	"fmt"
	"maps"
	"strings"

	"go.uber.org/zap"

	"prosumer-sim/internal/config"
	"prosumer-sim/internal/data"
	"prosumer-sim/internal/datastrategy"
	"prosumer-sim/internal/model"
	"prosumer-sim/internal/simulation"
	"prosumer-sim/internal/strategy"
)

// Datasets are the raw hourly series a scenario reads. Index 0 is the hour
// at simulation.start.
type Datasets struct {
	Prices     []float64
	WindSpeed  []float64
	Cloudiness []float64
}

func LoadDatasets(dc config.DataConfig) (Datasets, error) {
	prices, err := data.LoadPrices(dc.Prices.Path, dc.Prices.Column)
	if err != nil {
		return Datasets{}, fmt.Errorf("load prices: %w", err)
	}
	w := dc.Weather
	cols, err := data.LoadCSVColumns(w.Path, w.WindColumn, w.CloudinessColumn)
	if err != nil {
		return Datasets{}, fmt.Errorf("load weather: %w", err)
	}
	return Datasets{
		Prices:     prices,
		WindSpeed:  cols[w.WindColumn],
		Cloudiness: cols[w.CloudinessColumn],
	}, nil
}

// Scenario holds a validated config with its data already in memory, so any
// number of independent environments can be built from it.
type Scenario struct {
	Config   *config.Config
	Datasets Datasets
}

func New(cfg *config.Config) (*Scenario, error) {
	ds, err := LoadDatasets(cfg.Data)
	if err != nil {
		return nil, err
	}
	return &Scenario{Config: cfg, Datasets: ds}, nil
}

// Load reads the config at path and its datasets.
func Load(path string) (*Scenario, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// With returns a scenario sharing s's datasets whose config is a copy of s's
// with edit applied. The edited config is validated.
func (s *Scenario) With(edit func(c *config.Config)) (*Scenario, error) {
	c := *s.Config
	c.Agent.Params = maps.Clone(s.Config.Agent.Params)
	edit(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Scenario{Config: &c, Datasets: s.Datasets}, nil
}

// Params builds fresh data strategies and engine parameters.
func (s *Scenario) Params(log *zap.Logger) (simulation.Params, error) {
	c := s.Config
	d := c.Data
	wind := datastrategy.NewWindPower(
		datastrategy.NewSeries(d.Weather.WindColumn, s.Datasets.WindSpeed),
		d.Weather.Window, d.Weather.MaxWindPowerMW, d.Weather.MaxWindSpeed,
	)
	solar := datastrategy.NewSolarPower(
		datastrategy.NewSeries(d.Weather.CloudinessColumn, s.Datasets.Cloudiness),
		d.Weather.Window, d.Weather.MaxSolarPowerMW, d.Weather.SolarEfficiency,
	)
	production, err := datastrategy.NewProduction(wind, solar)
	if err != nil {
		return simulation.Params{}, err
	}

	sim := c.Simulation
	return simulation.Params{
		Production:            production,
		Consumption:           datastrategy.NewHouseholdConsumption(d.Consumption.Households, d.Consumption.Window, sim.Seed),
		Market:                datastrategy.NewMarketPrice(datastrategy.NewSeries("price", s.Datasets.Prices), d.Prices.Window),
		Start:                 sim.Start,
		End:                   sim.End,
		SchedulingHour:        intOr(sim.SchedulingHour, simulation.DefaultSchedulingHour),
		ReplacementHour:       intOr(sim.ReplacementHour, simulation.DefaultReplacementHour),
		InitialBalance:        model.Cost(sim.InitialBalance),
		Battery:               c.Battery.ToModelParams(),
		InitialCharge:         model.Energy(c.Battery.InitialChargeMWh),
		StartTick:             sim.StartTick,
		UnscheduledMultiplier: sim.UnscheduledMultiplier,
		Seed:                  sim.Seed,
		Logger:                log,
	}, nil
}

func (s *Scenario) NewEnv(log *zap.Logger) (*simulation.Env, error) {
	p, err := s.Params(log)
	if err != nil {
		return nil, err
	}
	return simulation.NewEnv(p)
}

// NewAgent builds the configured agent. seed only affects agents that sample.
func (s *Scenario) NewAgent(seed uint64) (strategy.Agent, error) {
	return NewAgent(s.Config.Agent, s.Config.Battery, seed)
}

// NewAgent builds an agent by name from loosely typed params. Amount defaults
// are derived from the battery so an empty params block still trades.
func NewAgent(ac config.AgentConfig, battery config.BatteryConfig, seed uint64) (strategy.Agent, error) {
	p := ac.Params
	switch strings.ToLower(ac.Name) {
	case "schedule":
		return strategy.NewScheduleAgent(strategy.ScheduleParams{
			BuyStart:      mustStr(p, "buy_start", "00:00"),
			BuyEnd:        mustStr(p, "buy_end", "06:00"),
			SellStart:     mustStr(p, "sell_start", "17:00"),
			SellEnd:       mustStr(p, "sell_end", "21:00"),
			BuyAmountMWh:  mustNum(p, "buy_amount_mwh", battery.CapacityMWh/6),
			SellAmountMWh: mustNum(p, "sell_amount_mwh", battery.CapacityMWh/4),
			BuyThreshold:  mustNum(p, "buy_threshold", 1e9),
			SellThreshold: mustNum(p, "sell_threshold", 0),
		})
	case "random":
		return strategy.NewRandomAgent(strategy.RandomParams{
			MaxAmountMWh: mustNum(p, "max_amount_mwh", battery.CapacityMWh),
			MaxPrice:     mustNum(p, "max_price", 1000),
			Seed:         uint64(mustNum(p, "seed", float64(seed))),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported agent: %q", ac.Name)
	}
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

func mustStr(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}
