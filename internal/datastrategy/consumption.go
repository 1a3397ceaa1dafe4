package datastrategy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat/distuv"
)

// HouseholdProfile is the average consumption of one household in MWh for
// each hour of the day.
var HouseholdProfile = [24]float64{
	0.000189, 0.000184, 0.000181, 0.000181, 0.000182, 0.000185,
	0.000194, 0.000222, 0.000238, 0.000246, 0.000246, 0.000246,
	0.000248, 0.000249, 0.000246, 0.000244, 0.000244, 0.000244,
	0.000243, 0.000246, 0.000246, 0.000242, 0.000225, 0.000208,
}

// ConsumptionNoiseStd is the standard deviation of the multiplicative noise.
const ConsumptionNoiseStd = 0.03

// HouseholdConsumption scales HouseholdProfile by a household count and
// perturbs every draw by |1 + N(0, ConsumptionNoiseStd)|. It is indexed by
// hour of day; the profile wraps around so any window size is valid.
type HouseholdConsumption struct {
	cache
	Window
	households int
	src        *noiseSource
	noise      distuv.Normal
}

func NewHouseholdConsumption(households, windowSize int, seed uint64) *HouseholdConsumption {
	src := newNoiseSource(seed)
	return &HouseholdConsumption{
		Window:     Window{Size: windowSize, Dir: Backward},
		households: households,
		src:        src,
		noise:      distuv.Normal{Mu: 0, Sigma: ConsumptionNoiseStd, Src: src},
	}
}

func (h *HouseholdConsumption) Households() int { return h.households }

func (h *HouseholdConsumption) Seed(seed uint64) { h.src.Seed(seed) }

// ConsumptionValue is the noisy consumption for one hour of day.
func ConsumptionValue(hour, households int, noise float64) float64 {
	return HouseholdProfile[hour%24] * float64(households) * math.Abs(1+noise)
}

func (h *HouseholdConsumption) Process(idx int) float64 {
	return h.set(ConsumptionValue(idx%24, h.households, h.noise.Rand()))
}

// Observation returns the noiseless profile starting at the scheduling
// boundary of the day containing hour idx.
func (h *HouseholdConsumption) Observation(idx, schedulingHour int) []float64 {
	start := idx%24 - schedulingHour
	return lo.Times(h.Size, func(i int) float64 {
		hour := ((start+i)%24 + 24) % 24
		return HouseholdProfile[hour] * float64(h.households)
	})
}

func (h *HouseholdConsumption) Len() int { return 0 }

func (h *HouseholdConsumption) Snapshot() State {
	s := h.snapshot()
	s.RNG = h.src.state()
	return s
}

func (h *HouseholdConsumption) Restore(s State) error {
	if err := h.src.setState(s.RNG); err != nil {
		return fmt.Errorf("restore consumption rng: %w", err)
	}
	h.restore(s)
	return nil
}

// noiseSource adapts a PCG generator to the source interface gonum's
// distributions draw from.
type noiseSource struct {
	pcg *rand.PCG
}

func newNoiseSource(seed uint64) *noiseSource {
	s := &noiseSource{pcg: rand.NewPCG(0, 0)}
	s.Seed(seed)
	return s
}

func (s *noiseSource) Uint64() uint64 { return s.pcg.Uint64() }

func (s *noiseSource) Seed(seed uint64) { s.pcg.Seed(seed, seed^0x9e3779b97f4a7c15) }

func (s *noiseSource) state() []byte {
	b, _ := s.pcg.MarshalBinary()
	return b
}

func (s *noiseSource) setState(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return s.pcg.UnmarshalBinary(b)
}
