// Package prosumer resolves one tick of consumption and production for a
// single prosumer: scheduled trades first, then battery buffering, then forced
// settlement of whatever the battery cannot absorb.
package prosumer

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"prosumer-sim/internal/clock"
	"prosumer-sim/internal/market"
	"prosumer-sim/internal/model"
)

var ErrNoPendingActions = errors.New("no pending actions to commit")

// Transactions are the most recent trade outcomes, read by the history ledger.
type Transactions struct {
	ScheduledBuy    *model.Transaction
	ScheduledSell   *model.Transaction
	UnscheduledBuy  *model.Transaction
	UnscheduledSell *model.Transaction
}

type Prosumer struct {
	Battery     *model.Battery
	Wallet      *model.Wallet
	Production  EnergySource
	Consumption EnergySource
	Market      *market.Market

	clock   clock.View
	balance model.EnergyBalance
	plan    model.Plan
	pending []float64
	tx      Transactions
}

func New(battery *model.Battery, wallet *model.Wallet, production, consumption EnergySource, m *market.Market, view clock.View) *Prosumer {
	return &Prosumer{
		Battery:     battery,
		Wallet:      wallet,
		Production:  production,
		Consumption: consumption,
		Market:      m,
		clock:       view,
	}
}

// Schedule stores the next day's action vector until SetNewActions commits it.
func (p *Prosumer) Schedule(actions []float64) error {
	if len(actions) != model.ActionSize {
		return fmt.Errorf("%w: got %d, want %d", model.ErrActionSize, len(actions), model.ActionSize)
	}
	p.pending = slices.Clone(actions)
	return nil
}

func (p *Prosumer) HasPending() bool { return p.pending != nil }

// SetNewActions promotes the pending vector to the active plan.
func (p *Prosumer) SetNewActions() error {
	if p.pending == nil {
		return ErrNoPendingActions
	}
	plan, err := model.SplitActions(p.pending)
	if err != nil {
		return err
	}
	p.plan = plan
	p.pending = nil
	return nil
}

func (p *Prosumer) Plan() model.Plan { return p.plan }

// Consume takes this tick's consumption out of the balance, runs the scheduled
// buy for the hour and settles the remainder.
func (p *Prosumer) Consume() {
	p.balance.Sub(p.Consumption.Energy())
	h := p.clock.CurTime().Hour()
	p.buy(p.plan.BuyAmounts[h], p.plan.BuyThresholds[h], true)
	p.restoreEnergyBalance()
}

// Produce is the mirror of Consume for production and the scheduled sell.
func (p *Prosumer) Produce() {
	p.balance.Add(p.Production.Energy())
	h := p.clock.CurTime().Hour()
	p.sell(p.plan.SellAmounts[h], p.plan.SellThresholds[h], true)
	p.restoreEnergyBalance()
}

func (p *Prosumer) buy(amount model.Energy, threshold model.Cost, scheduled bool) {
	ok := p.Market.Buy(amount, threshold, p.Wallet, &p.balance, scheduled)
	tx := &model.Transaction{Amount: amount.Float(), OK: ok}
	if scheduled {
		p.tx.ScheduledBuy = tx
		return
	}
	p.tx.UnscheduledBuy = tx
}

func (p *Prosumer) sell(amount model.Energy, threshold model.Cost, scheduled bool) {
	ok := p.Market.Sell(amount, threshold, p.Wallet, &p.balance, scheduled)
	tx := &model.Transaction{Amount: amount.Float(), OK: ok}
	if scheduled {
		p.tx.ScheduledSell = tx
		return
	}
	p.tx.UnscheduledSell = tx
}

// restoreEnergyBalance buffers the imbalance through the battery and forces
// the residual onto the market. The balance is zero afterwards.
func (p *Prosumer) restoreEnergyBalance() {
	switch {
	case p.balance.Value < 0:
		p.balance.Add(p.Battery.Discharge(p.balance.Value.Abs()))
	case p.balance.Value > 0:
		p.balance.Sub(p.Battery.Charge(p.balance.Value))
	}

	switch {
	case p.balance.Value > 0:
		p.sell(p.balance.Value, model.Cost(math.Inf(-1)), false)
	case p.balance.Value < 0:
		p.buy(p.balance.Value.Abs(), model.Cost(math.Inf(1)), false)
	}
}

func (p *Prosumer) EnergyBalance() model.Energy { return p.balance.Value }

func (p *Prosumer) LastScheduledBuy() *model.Transaction    { return p.tx.ScheduledBuy }
func (p *Prosumer) LastScheduledSell() *model.Transaction   { return p.tx.ScheduledSell }
func (p *Prosumer) LastUnscheduledBuy() *model.Transaction  { return p.tx.UnscheduledBuy }
func (p *Prosumer) LastUnscheduledSell() *model.Transaction { return p.tx.UnscheduledSell }

// ClearUnscheduled drops the forced-trade outcomes once they are recorded.
func (p *Prosumer) ClearUnscheduled() {
	p.tx.UnscheduledBuy = nil
	p.tx.UnscheduledSell = nil
}

func (p *Prosumer) Transactions() Transactions     { return p.tx }
func (p *Prosumer) SetTransactions(t Transactions) { p.tx = t }

// ResetPlan forgets the active plan, the pending vector and all trade outcomes.
func (p *Prosumer) ResetPlan() {
	p.plan = model.Plan{}
	p.pending = nil
	p.tx = Transactions{}
	p.balance = model.EnergyBalance{}
}
