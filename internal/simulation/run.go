package simulation

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"prosumer-sim/internal/analysis"
	"prosumer-sim/internal/strategy"
)

// RunEpisode resets env with seed and lets agent act at every decision point
// until the episode ends. The context is checked between steps.
func RunEpisode(ctx context.Context, env *Env, agent strategy.Agent, seed uint64) (analysis.RunSummary, error) {
	obs, err := env.Reset(&seed)
	if err != nil {
		return analysis.RunSummary{}, err
	}
	eng := env.Engine()
	for step := 0; !env.Done(); step++ {
		if err := ctx.Err(); err != nil {
			return analysis.RunSummary{}, err
		}
		res, err := env.Step(agent.Act(strategy.Context{
			Step:        step,
			Time:        eng.Clock().CurTime(),
			Observation: obs,
			RelCharge:   eng.Prosumer().Battery.RelCharge(),
		}))
		if err != nil {
			return analysis.RunSummary{}, err
		}
		obs = res.Observation
	}

	sum := Summarize(env)
	sum.Agent = agent.Name()
	sum.Seed = seed
	env.log.Debug("episode summarized",
		zap.String("agent", sum.Agent),
		zap.Uint64("seed", seed),
		zap.Float64("total_reward", sum.TotalReward),
	)
	return sum, nil
}

// Summarize aggregates the env's current history.
func Summarize(env *Env) analysis.RunSummary {
	h := env.History()
	final := env.Engine().Prosumer().Wallet.Balance.Float()
	steps := h.Steps()
	ticks := h.Ticks()
	return analysis.RunSummary{
		Steps:                env.Steps(),
		TotalReward:          env.TotalReward(),
		FinalBalance:         final,
		BalanceChange:        final - env.Engine().Params().InitialBalance.Float(),
		PotentialProfit:      lo.SumBy(steps, func(s StepRecord) float64 { return lo.FromPtr(s.PotentialProfit) }),
		PriceDiffProfit:      lo.SumBy(steps, func(s StepRecord) float64 { return lo.FromPtr(s.PriceDiffProfit) }),
		UnscheduledBoughtMWh: lo.SumBy(ticks, func(r TickRecord) float64 { return occurred(r.UnscheduledBuy) }),
		UnscheduledSoldMWh:   lo.SumBy(ticks, func(r TickRecord) float64 { return occurred(r.UnscheduledSell) }),
	}
}
