package model

import "time"

// PriceSeriesResponse is the JSON shape accepted for hourly market prices.
//
// Example:
// {
//   "market": "TGE",
//   "data": [ {"interval_start_utc": "...", "interval_end_utc": "...", "price": 412.5}, ... ]
// }
type PriceSeriesResponse struct {
	Market string          `json:"market"`
	Data   []PriceInterval `json:"data"`
}

// PriceInterval represents one hourly row of a day-ahead price series.
// Timestamps are RFC3339 strings in the JSON.
type PriceInterval struct {
	IntervalStartUTC time.Time `json:"interval_start_utc"`
	IntervalEndUTC   time.Time `json:"interval_end_utc"`

	// Price in currency per MWh.
	Price float64 `json:"price"`
}

// Prices returns the price column in row order.
func (r *PriceSeriesResponse) Prices() []float64 {
	out := make([]float64, len(r.Data))
	for i, it := range r.Data {
		out[i] = it.Price
	}
	return out
}
