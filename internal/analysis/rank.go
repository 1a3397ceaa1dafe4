package analysis

import (
	"sort"

	"github.com/samber/lo"
)

// RunSummary is the outcome of one simulated episode.
type RunSummary struct {
	Name  string `json:"name"`
	Agent string `json:"agent"`
	Seed  uint64 `json:"seed"`
	Steps int    `json:"steps"`

	TotalReward     float64 `json:"total_reward"`
	FinalBalance    float64 `json:"final_balance"`
	BalanceChange   float64 `json:"balance_change"`
	PotentialProfit float64 `json:"potential_profit"`
	PriceDiffProfit float64 `json:"price_diff_profit"`

	UnscheduledBoughtMWh float64 `json:"unscheduled_bought_mwh"`
	UnscheduledSoldMWh   float64 `json:"unscheduled_sold_mwh"`
}

// RankRuns sorts runs by total reward, best first. Ties keep input order.
func RankRuns(runs []RunSummary) []RunSummary {
	out := make([]RunSummary, len(runs))
	copy(out, runs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalReward > out[j].TotalReward
	})
	return out
}

// MeanReward averages total reward per agent.
func MeanReward(runs []RunSummary) map[string]float64 {
	byAgent := lo.GroupBy(runs, func(r RunSummary) string { return r.Agent })
	return lo.MapValues(byAgent, func(rs []RunSummary, _ string) float64 {
		return lo.SumBy(rs, func(r RunSummary) float64 { return r.TotalReward }) / float64(len(rs))
	})
}
