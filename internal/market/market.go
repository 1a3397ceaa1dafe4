// Package market settles energy trades against an exogenous price series.
package market

import (
	"prosumer-sim/internal/clock"
	"prosumer-sim/internal/datastrategy"
	"prosumer-sim/internal/model"
)

// DefaultUnscheduledMultiplier penalizes trades outside the day-ahead plan:
// forced buys pay price*multiplier, forced sells earn price/multiplier.
const DefaultUnscheduledMultiplier = 2.0

// Market prices every trade at the current tick's market price.
// Buy and sell prices are the same series; there is no spread.
type Market struct {
	ds         datastrategy.Strategy
	clock      clock.View
	multiplier float64
}

func New(ds datastrategy.Strategy, view clock.View, multiplier float64) *Market {
	if multiplier <= 0 {
		multiplier = DefaultUnscheduledMultiplier
	}
	return &Market{ds: ds, clock: view, multiplier: multiplier}
}

func (m *Market) Strategy() datastrategy.Strategy { return m.ds }
func (m *Market) Multiplier() float64             { return m.multiplier }

func (m *Market) BuyPrice() model.Cost  { return model.Cost(m.ds.Process(m.clock.CurTick())) }
func (m *Market) SellPrice() model.Cost { return model.Cost(m.ds.Process(m.clock.CurTick())) }

func (m *Market) BuyPriceUnscheduled() model.Cost  { return m.BuyPrice().Scale(m.multiplier) }
func (m *Market) SellPriceUnscheduled() model.Cost { return m.SellPrice().Div(m.multiplier) }

// Buy adds amount to the energy balance and charges the wallet.
// A scheduled buy is rejected with no side effects when the price is above
// threshold. Unscheduled buys always go through at the penalty price.
func (m *Market) Buy(amount model.Energy, threshold model.Cost, w *model.Wallet, b *model.EnergyBalance, scheduled bool) bool {
	price := m.BuyPrice()
	if scheduled && price.Greater(threshold) {
		return false
	}
	if !scheduled {
		price = m.BuyPriceUnscheduled()
	}
	b.Add(amount)
	w.Withdraw(amount.ToCost(price))
	return true
}

// Sell mirrors Buy: scheduled sells need price >= threshold, unscheduled
// sells always go through at the reduced price.
func (m *Market) Sell(amount model.Energy, threshold model.Cost, w *model.Wallet, b *model.EnergyBalance, scheduled bool) bool {
	price := m.SellPrice()
	if scheduled && price.Less(threshold) {
		return false
	}
	if !scheduled {
		price = m.SellPriceUnscheduled()
	}
	b.Sub(amount)
	w.Deposit(amount.ToCost(price))
	return true
}

func (m *Market) Observation() []float64 {
	return m.ds.Observation(m.clock.CurTick(), m.clock.SchedulingHour())
}
