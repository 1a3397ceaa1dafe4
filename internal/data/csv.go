package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var ErrMissingColumn = errors.New("column not found")

// Columns holds named float columns of equal length.
type Columns map[string][]float64

// Len is the row count, taken from any column.
func (c Columns) Len() int {
	for _, v := range c {
		return len(v)
	}
	return 0
}

// LoadCSVColumns reads the named columns from a CSV file with a header row.
// Header matching ignores case and surrounding space.
func LoadCSVColumns(path string, columns ...string) (Columns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cols, err := ReadCSVColumns(f, columns...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cols, nil
}

func ReadCSVColumns(r io.Reader, columns ...string) (Columns, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("empty csv")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	headerMap := make(map[string]int, len(headers))
	for i, h := range headers {
		headerMap[normalize(h)] = i
	}
	idx := make([]int, len(columns))
	for i, name := range columns {
		j, ok := headerMap[normalize(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		idx[i] = j
	}

	out := make(Columns, len(columns))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for i, name := range columns {
			if idx[i] >= len(record) {
				return nil, fmt.Errorf("line %d: missing value for %q", line, name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx[i]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: %w", line, name, err)
			}
			out[name] = append(out[name], v)
		}
	}
	return out, nil
}

func normalize(h string) string { return strings.ToLower(strings.TrimSpace(h)) }
