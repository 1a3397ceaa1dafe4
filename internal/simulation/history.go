package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/clock"
	"prosumer-sim/internal/model"
	"prosumer-sim/internal/prosumer"
)

// TickRecord is one row of the per-tick ledger.
type TickRecord struct {
	Tick int       `json:"tick"`
	Time time.Time `json:"datetime"`

	Price    float64 `json:"price"`
	Produced float64 `json:"energy_produced"`
	Consumed float64 `json:"energy_consumed"`

	// Battery is the relative state of charge after the tick resolved.
	Battery       float64 `json:"battery"`
	WalletBalance float64 `json:"wallet_balance"`

	// Scheduled trades are nil until the first plan is active.
	ScheduledBuy    *model.Transaction `json:"scheduled_buy"`
	ScheduledSell   *model.Transaction `json:"scheduled_sell"`
	UnscheduledBuy  model.Transaction  `json:"unscheduled_buy"`
	UnscheduledSell model.Transaction  `json:"unscheduled_sell"`
}

// StepRecord is written once per agent decision. Summary fields stay nil
// until a full realized day exists; Reward is nil until it is computed.
type StepRecord struct {
	Tick int       `json:"step_tick"`
	Time time.Time `json:"step_datetime"`

	BalanceDiff           float64   `json:"balance_diff"`
	PotentialProfit       *float64  `json:"potential_profit"`
	PriceDiffProfit       *float64  `json:"price_diff_profit"`
	UnscheduledSellProfit *float64  `json:"unscheduled_sell_actions_profit"`
	UnscheduledBuyLoss    *float64  `json:"unscheduled_buy_actions_loss"`
	Action                []float64 `json:"action"`
	Reward                *float64  `json:"reward"`
}

// HistoryMeta carries what summaries need besides the records.
type HistoryMeta struct {
	SchedulingHour        int     `json:"scheduling_hour"`
	UnscheduledMultiplier float64 `json:"unscheduled_multiplier"`
	BatteryCapacity       float64 `json:"battery_capacity"`
	BatteryEfficiency     float64 `json:"battery_efficiency"`
}

// DaySummary aggregates one realized day of ticks.
type DaySummary struct {
	AvgPrice              float64
	PotentialProfit       float64
	PriceDiffProfit       float64
	UnscheduledSellProfit float64
	UnscheduledBuyLoss    float64
}

// History is the append-only ledger of a simulation episode.
type History struct {
	view  clock.View
	meta  HistoryMeta
	ticks []TickRecord
	steps []StepRecord
}

func NewHistory(view clock.View, meta HistoryMeta) *History {
	return &History{view: view, meta: meta}
}

func (h *History) Meta() HistoryMeta   { return h.meta }
func (h *History) Len() int            { return len(h.ticks) }
func (h *History) Ticks() []TickRecord { return h.ticks }
func (h *History) Steps() []StepRecord { return h.steps }

// At returns the tick record `offset` ticks after the first one.
func (h *History) At(offset int) (TickRecord, bool) {
	if offset < 0 || offset >= len(h.ticks) {
		return TickRecord{}, false
	}
	return h.ticks[offset], true
}

func (h *History) Reset() {
	h.ticks = nil
	h.steps = nil
}

// RecordTick appends the current tick and clears the prosumer's forced-trade
// outcomes so the next tick starts clean.
func (h *History) RecordTick(p *prosumer.Prosumer) {
	last := func(src prosumer.EnergySource) float64 {
		v, _ := src.Strategy().LastProcessed()
		return v
	}
	price, _ := p.Market.Strategy().LastProcessed()
	rec := TickRecord{
		Tick:          h.view.CurTick(),
		Time:          h.view.CurTime(),
		Price:         price,
		Produced:      last(p.Production),
		Consumed:      last(p.Consumption),
		Battery:       p.Battery.RelCharge(),
		WalletBalance: p.Wallet.Balance.Float(),
		ScheduledBuy:  p.LastScheduledBuy(),
		ScheduledSell: p.LastScheduledSell(),
	}
	if tx := p.LastUnscheduledBuy(); tx != nil {
		rec.UnscheduledBuy = *tx
	}
	if tx := p.LastUnscheduledSell(); tx != nil {
		rec.UnscheduledSell = *tx
	}
	h.ticks = append(h.ticks, rec)
	p.ClearUnscheduled()
}

// RecordStep appends a step record with the last-day summary at the current
// clock position. The reward is filled in later by SetReward.
func (h *History) RecordStep(action []float64, balanceDiff float64) StepRecord {
	rec := StepRecord{
		Tick:        h.view.CurTick(),
		Time:        h.view.CurTime(),
		BalanceDiff: balanceDiff,
		Action:      append([]float64(nil), action...),
	}
	if s, ok := h.LastDaySummary(h.view.CurTime().Hour()); ok {
		rec.PotentialProfit = lo.ToPtr(s.PotentialProfit)
		rec.PriceDiffProfit = lo.ToPtr(s.PriceDiffProfit)
		rec.UnscheduledSellProfit = lo.ToPtr(s.UnscheduledSellProfit)
		rec.UnscheduledBuyLoss = lo.ToPtr(s.UnscheduledBuyLoss)
	}
	h.steps = append(h.steps, rec)
	return rec
}

func (h *History) SetReward(reward float64) {
	if len(h.steps) == 0 {
		return
	}
	h.steps[len(h.steps)-1].Reward = lo.ToPtr(reward)
}

// LastDaySummary summarizes the 24 ticks that end curHour ticks before the
// newest record. Called at the scheduling hour this is the last full day.
// It reports false until 72 - schedulingHour ticks exist, which is the
// earliest point at which that day was traded under an active plan.
func (h *History) LastDaySummary(curHour int) (DaySummary, bool) {
	n := len(h.ticks)
	if n < 72-h.meta.SchedulingHour {
		return DaySummary{}, false
	}
	start, end := n-curHour-model.HoursPerDay, n-curHour
	if start < 0 || end > n {
		return DaySummary{}, false
	}
	day := h.ticks[start:end]

	prices := lo.Map(day, func(r TickRecord, _ int) float64 { return r.Price })
	produced := lo.Map(day, func(r TickRecord, _ int) float64 { return r.Produced })
	consumed := lo.Map(day, func(r TickRecord, _ int) float64 { return r.Consumed })
	avg := lo.Sum(prices) / model.HoursPerDay

	sold := lo.SumBy(day, func(r TickRecord) float64 { return occurred(r.UnscheduledSell) })
	bought := lo.SumBy(day, func(r TickRecord) float64 { return occurred(r.UnscheduledBuy) })
	mult := h.meta.UnscheduledMultiplier

	return DaySummary{
		AvgPrice:              avg,
		PotentialProfit:       analysis.PotentialProfit(prices, produced, consumed),
		PriceDiffProfit:       analysis.PriceDiffProfit(prices, h.meta.BatteryCapacity, h.meta.BatteryEfficiency),
		UnscheduledSellProfit: sold * avg / mult,
		UnscheduledBuyLoss:    bought * avg * mult,
	}, true
}

func occurred(tx model.Transaction) float64 {
	if !tx.OK {
		return 0
	}
	return tx.Amount
}

// TradedPrices returns the prices of ticks recorded while a plan was active.
// Ticks before the first commit carry no price.
func (h *History) TradedPrices() []float64 {
	traded := lo.Filter(h.ticks, func(r TickRecord, _ int) bool { return r.ScheduledBuy != nil })
	return lo.Map(traded, func(r TickRecord, _ int) float64 { return r.Price })
}

type historyFile struct {
	Meta  HistoryMeta  `json:"meta"`
	Ticks []TickRecord `json:"ticks"`
	Steps []StepRecord `json:"steps"`
}

// Save writes the history as indented JSON.
func (h *History) Save(path string) error {
	b, err := json.MarshalIndent(historyFile{Meta: h.meta, Ticks: h.ticks, Steps: h.steps}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadHistory reads a file written by Save. When view is nil the history is
// bound to a static view positioned just after its last tick.
func LoadHistory(path string, view clock.View) (*History, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f historyFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	if view == nil {
		view = staticViewAfter(f.Meta.SchedulingHour, f.Ticks)
	}
	return &History{view: view, meta: f.Meta, ticks: f.Ticks, steps: f.Steps}, nil
}

func staticViewAfter(sched int, ticks []TickRecord) clock.Static {
	v := clock.Static{Sched: sched}
	if n := len(ticks); n > 0 {
		v.Tick = ticks[n-1].Tick + 1
		v.Time = ticks[n-1].Time.Add(clock.DefaultTickDuration)
	}
	return v
}
