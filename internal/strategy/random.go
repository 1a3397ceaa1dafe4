package strategy

import (
	"math/rand/v2"

	"prosumer-sim/internal/model"
)

// RandomParams bounds the uniformly sampled actions.
type RandomParams struct {
	MaxAmountMWh float64 `yaml:"max_amount_mwh" json:"max_amount_mwh"`
	MaxPrice     float64 `yaml:"max_price" json:"max_price"`
	Seed         uint64  `yaml:"seed" json:"seed"`
}

// RandomAgent samples every amount from [0, MaxAmountMWh) and every threshold
// from [0, MaxPrice). It is a baseline for comparing other agents.
type RandomAgent struct {
	Params RandomParams
	rng    *rand.Rand
}

func NewRandomAgent(p RandomParams) *RandomAgent {
	return &RandomAgent{Params: p, rng: rand.New(rand.NewPCG(p.Seed, p.Seed))}
}

func (r *RandomAgent) Name() string { return "random" }

func (r *RandomAgent) Act(Context) []float64 {
	out := make([]float64, model.ActionSize)
	for i := range out {
		bound := r.Params.MaxAmountMWh
		if i >= 2*model.HoursPerDay {
			bound = r.Params.MaxPrice
		}
		out[i] = r.rng.Float64() * bound
	}
	return out
}
