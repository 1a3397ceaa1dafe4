package prosumer

import (
	"prosumer-sim/internal/clock"
	"prosumer-sim/internal/datastrategy"
	"prosumer-sim/internal/model"
)

// EnergySource yields the energy for the current tick and its observation window.
type EnergySource interface {
	Energy() model.Energy
	Observation() []float64
	Strategy() datastrategy.Strategy
}

// ProductionSystem reads power from its strategy at the absolute tick.
type ProductionSystem struct {
	ds    datastrategy.Strategy
	clock clock.View
}

func NewProductionSystem(ds datastrategy.Strategy, view clock.View) *ProductionSystem {
	return &ProductionSystem{ds: ds, clock: view}
}

func (s *ProductionSystem) Power() model.Power {
	return model.Power(s.ds.Process(s.clock.CurTick()))
}

func (s *ProductionSystem) Energy() model.Energy { return s.Power().ToEnergy() }

func (s *ProductionSystem) Observation() []float64 {
	return s.ds.Observation(s.clock.CurTick(), s.clock.SchedulingHour())
}

func (s *ProductionSystem) Strategy() datastrategy.Strategy { return s.ds }

// ConsumptionSystem reads energy from its strategy at the hour of day, since
// consumption profiles repeat daily.
type ConsumptionSystem struct {
	ds    datastrategy.Strategy
	clock clock.View
}

func NewConsumptionSystem(ds datastrategy.Strategy, view clock.View) *ConsumptionSystem {
	return &ConsumptionSystem{ds: ds, clock: view}
}

func (s *ConsumptionSystem) Energy() model.Energy {
	return model.Energy(s.ds.Process(s.clock.CurTime().Hour()))
}

func (s *ConsumptionSystem) Observation() []float64 {
	return s.ds.Observation(s.clock.CurTime().Hour(), s.clock.SchedulingHour())
}

func (s *ConsumptionSystem) Strategy() datastrategy.Strategy { return s.ds }
