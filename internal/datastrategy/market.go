package datastrategy

// MarketPrice passes one price column through unchanged.
type MarketPrice struct {
	cache
	Window
	prices *Series
}

func NewMarketPrice(prices *Series, windowSize int) *MarketPrice {
	return &MarketPrice{
		Window: Window{Size: windowSize, Dir: Backward},
		prices: prices,
	}
}

func (m *MarketPrice) Process(idx int) float64 { return m.set(m.prices.At(idx)) }

func (m *MarketPrice) Observation(idx, schedulingHour int) []float64 {
	return m.prices.Slice(m.Bounds(idx, schedulingHour))
}

func (m *MarketPrice) Len() int { return m.prices.Len() }

func (m *MarketPrice) Snapshot() State { return m.snapshot() }

func (m *MarketPrice) Restore(s State) error {
	m.restore(s)
	return nil
}

// Constant returns the same value at every index.
type Constant struct {
	cache
	Window
	value float64
}

func NewConstant(value float64, windowSize int) *Constant {
	return &Constant{Window: Window{Size: windowSize, Dir: Backward}, value: value}
}

func (c *Constant) Process(int) float64 { return c.set(c.value) }

func (c *Constant) Observation(int, int) []float64 {
	out := make([]float64, c.Size)
	for i := range out {
		out[i] = c.value
	}
	return out
}

func (c *Constant) Len() int { return 0 }

func (c *Constant) Snapshot() State { return c.snapshot() }

func (c *Constant) Restore(s State) error {
	c.restore(s)
	return nil
}
