package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosumer-sim/internal/model"
)

func TestLoad(t *testing.T) {
	c, err := Load("testdata/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), c.Simulation.Start.UTC())
	assert.Equal(t, 9, *c.Simulation.SchedulingHour)
	assert.Equal(t, DefaultReplacementHour, *c.Simulation.ReplacementHour)
	assert.Equal(t, uint64(7), c.Simulation.Seed)
	assert.Equal(t, float64(DefaultInitialBalance), c.Simulation.InitialBalance)

	// battery_file merged with the inline override
	assert.Equal(t, "small", c.Battery.Name)
	assert.Equal(t, 0.2, c.Battery.CapacityMWh)
	assert.Equal(t, 0.95, c.Battery.Efficiency)
	assert.Equal(t, 0.1, c.Battery.InitialChargeMWh)

	assert.Equal(t, filepath.Join("testdata", "prices.csv"), c.Data.Prices.Path)
	assert.Equal(t, filepath.Join("testdata", "weather.csv"), c.Data.Weather.Path)
	assert.Equal(t, DefaultWindow, c.Data.Prices.Window)
	assert.Equal(t, "wind_speed", c.Data.Weather.WindColumn)
	assert.Equal(t, DefaultMaxWindSpeed, c.Data.Weather.MaxWindSpeed)
	assert.Equal(t, 1, c.Data.Consumption.Households)

	assert.Equal(t, "random", c.Agent.Name)
	assert.Equal(t, 500, c.Agent.Params["max_price"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func validConfig() *Config {
	c := &Config{
		Simulation: SimulationConfig{
			Start: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2016, 1, 8, 0, 0, 0, 0, time.UTC),
		},
		Battery: BatteryConfig{CapacityMWh: 0.1, Efficiency: 0.9, InitialChargeMWh: 0.05},
		Data: DataConfig{
			Prices:  PricesConfig{Path: "prices.csv", Column: "price"},
			Weather: WeatherConfig{Path: "weather.csv"},
		},
		Agent: AgentConfig{Name: "schedule"},
	}
	c.ApplyDefaults()
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		msg     string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no agent", mutate: func(c *Config) { c.Agent.Name = "" }, msg: "agent.name"},
		{name: "no start", mutate: func(c *Config) { c.Simulation.Start = time.Time{} }, msg: "simulation.start"},
		{name: "end before start", mutate: func(c *Config) { c.Simulation.End = c.Simulation.Start }, msg: "after"},
		{name: "same hours", mutate: func(c *Config) { *c.Simulation.ReplacementHour = *c.Simulation.SchedulingHour }, msg: "differ"},
		{name: "no prices", mutate: func(c *Config) { c.Data.Prices.Path = "" }, msg: "data.prices.path"},
		{name: "no weather", mutate: func(c *Config) { c.Data.Weather.Path = "" }, msg: "data.weather.path"},
		{name: "csv without column", mutate: func(c *Config) { c.Data.Prices.Column = "" }, msg: "column"},
		{name: "json without column", mutate: func(c *Config) { c.Data.Prices = PricesConfig{Path: "p.JSON"} }},
		{name: "zero capacity", mutate: func(c *Config) { c.Battery.CapacityMWh = 0 }, wantErr: model.ErrInvalidCapacity},
		{name: "overfull", mutate: func(c *Config) { c.Battery.InitialChargeMWh = 1 }, wantErr: model.ErrInvalidInitialCharge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.msg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.msg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeBattery(t *testing.T) {
	base := BatteryConfig{Name: "a", CapacityMWh: 1, Efficiency: 0.9, InitialChargeMWh: 0.5}

	got := MergeBattery(base, BatteryConfig{CapacityMWh: 2})

	assert.Equal(t, BatteryConfig{Name: "a", CapacityMWh: 2, Efficiency: 0.9, InitialChargeMWh: 0.5}, got)
	assert.Equal(t, base, MergeBattery(base, BatteryConfig{}))
}

func TestParseBattery(t *testing.T) {
	b, err := ParseBattery([]byte("battery:\n  name: x\n  capacity_mwh: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", b.Name)
	assert.Equal(t, 3.0, b.CapacityMWh)

	_, err = ParseBattery([]byte("battery: [1, 2"))
	assert.Error(t, err)
}

func TestLoadServerSettings(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	s, err := LoadServerSettings()

	require.NoError(t, err)
	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, 5*time.Minute, s.SessionTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, s.AllowedOrigins)
	assert.Equal(t, 64, s.MaxSessions)
	assert.False(t, s.Production())
}
