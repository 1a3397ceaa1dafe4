package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prosumer-sim/internal/model"
)

func LoadPriceJSON(path string) (*model.PriceSeriesResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp model.PriceSeriesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &resp, nil
}

// LoadPrices reads an hourly price column from either a JSON price series or
// a CSV file, chosen by extension.
func LoadPrices(path, column string) ([]float64, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		resp, err := LoadPriceJSON(path)
		if err != nil {
			return nil, err
		}
		return resp.Prices(), nil
	}
	cols, err := LoadCSVColumns(path, column)
	if err != nil {
		return nil, err
	}
	return cols[column], nil
}
