package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
)

// The bundled synthetic survey extract. One row per surveyed individual;
// minors were not asked the citizenship and benefit questions, so those
// fields are empty for every respondent under 16.
//
//go:embed data/survey.csv
var surveyCSV []byte

// Schema of the bundled table. hhsize arrives as a leveled category whose
// labels happen to print as integers; it stays categorical until the
// cleaning stage coerces it explicitly.
var (
	numericColumns     = map[string]bool{"id": true, "year": true, "age": true, "benefits": true}
	categoricalColumns = map[string]bool{"region": true, "gender": true, "citizenship": true, "hhsize": true}
)

// Load parses the embedded survey table into a raw frame.
func Load() (*Frame, error) {
	return parseCSV(surveyCSV)
}

func parseCSV(data []byte) (*Frame, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading survey table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("survey table has no data rows")
	}
	header := records[0]
	body := records[1:]

	cols := make([]Column, len(header))
	for j, name := range header {
		switch {
		case numericColumns[name]:
			nums := make([]float64, len(body))
			for i, rec := range body {
				if rec[j] == "" {
					nums[i] = math.NaN()
					continue
				}
				v, err := strconv.ParseFloat(rec[j], 64)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
				}
				nums[i] = v
			}
			cols[j] = Column{Name: name, Kind: Numeric, Nums: nums}
		case categoricalColumns[name]:
			labels := make([]string, len(body))
			seen := map[string]bool{}
			var levels []string
			for i, rec := range body {
				labels[i] = rec[j]
				if rec[j] != "" && !seen[rec[j]] {
					seen[rec[j]] = true
					levels = append(levels, rec[j])
				}
			}
			cols[j] = Column{Name: name, Kind: Categorical, Labels: labels, Levels: levels}
		default:
			return nil, fmt.Errorf("unexpected column %q in survey table", name)
		}
	}
	return NewFrame(cols...)
}
