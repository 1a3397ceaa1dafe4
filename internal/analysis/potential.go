package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PriceDiffSplit separates the night hours a battery charges in from the day
// hours it discharges in when estimating the arbitrage bound.
const PriceDiffSplit = 10

// PotentialProfit is the passive baseline for one day: the net of production
// over consumption valued at the day's average price.
func PotentialProfit(prices, produced, consumed []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	return (floats.Sum(produced) - floats.Sum(consumed)) * stat.Mean(prices, nil)
}

// PriceDiffProfit is the profit of charging a full battery at the cheapest
// price before PriceDiffSplit and selling it at the dearest price after.
// It is an upper-bound reference, never negative.
func PriceDiffProfit(prices []float64, capacity, efficiency float64) float64 {
	if len(prices) <= PriceDiffSplit {
		return 0
	}
	night, day := prices[:PriceDiffSplit], prices[PriceDiffSplit:]
	return math.Max(0, (floats.Max(day)*efficiency-floats.Min(night))*capacity)
}

// PriceStats summarizes a price series for ranking and reporting.
type PriceStats struct {
	Count int `json:"count"`

	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// OracleProfit is the best achievable profit of the given battery trading
	// alone at these prices, see OracleProfit.
	OracleProfit float64 `json:"oracle_profit"`
}

func ComputePriceStats(prices []float64, capacity, efficiency float64) PriceStats {
	p := PriceStats{Count: len(prices)}
	if len(prices) == 0 {
		return p
	}
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	p.Min = sorted[0]
	p.Max = sorted[len(sorted)-1]
	p.Mean, p.Std = stat.MeanStdDev(prices, nil)
	p.P05 = stat.Quantile(0.05, stat.LinInterp, sorted, nil)
	p.P95 = stat.Quantile(0.95, stat.LinInterp, sorted, nil)
	p.SpreadP95P05 = p.P95 - p.P05
	p.OracleProfit = OracleProfit(prices, capacity, efficiency, oracleSteps)
	return p
}

const oracleSteps = 10

// OracleProfit runs a DP over a charge grid of `steps` levels. Each hour the
// battery may idle or move one level; charging a level of capacity/steps costs
// level/efficiency of energy, discharging sells the level. The battery starts
// half full and may end anywhere.
func OracleProfit(prices []float64, capacity, efficiency float64, steps int) float64 {
	if len(prices) == 0 || capacity <= 0 || efficiency <= 0 {
		return 0
	}
	if steps < 1 {
		steps = 1
	}
	level := capacity / float64(steps)
	negInf := math.Inf(-1)

	dp := make([]float64, steps+1)
	next := make([]float64, steps+1)
	for i := range dp {
		dp[i] = negInf
	}
	dp[int(math.Round(0.5*float64(steps)))] = 0

	for _, price := range prices {
		for i := range next {
			next[i] = negInf
		}
		for s := 0; s <= steps; s++ {
			if math.IsInf(dp[s], -1) {
				continue
			}
			next[s] = math.Max(next[s], dp[s])
			if s < steps {
				next[s+1] = math.Max(next[s+1], dp[s]-level/efficiency*price)
			}
			if s > 0 {
				next[s-1] = math.Max(next[s-1], dp[s]+level*price)
			}
		}
		dp, next = next, dp
	}
	return floats.Max(dp)
}
