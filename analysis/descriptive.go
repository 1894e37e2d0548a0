// Package analysis implements the statistical machinery of the survey
// report: descriptive summaries, variance and mean-comparison tests, linear
// model fitting and AIC-driven model selection.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary is the five-number summary plus mean of an observed sample.
type Summary struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

// Describe computes the summary of values, ignoring NaN entries.
func Describe(values []float64) Summary {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Summary{}
	}
	sort.Float64s(finite)
	s := Summary{
		N:      len(finite),
		Min:    finite[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, finite, nil),
		Median: stat.Quantile(0.5, stat.Empirical, finite, nil),
		Mean:   stat.Mean(finite, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, finite, nil),
		Max:    finite[len(finite)-1],
	}
	if len(finite) > 1 {
		s.StdDev = math.Sqrt(stat.Variance(finite, nil))
	}
	return s
}

// LevelCount is the frequency of one level of a categorical variable.
type LevelCount struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

// Frequencies tabulates label counts in level order. Labels not present in
// levels are ignored (missing values have the empty label).
func Frequencies(labels []string, levels []string) []LevelCount {
	counts := make(map[string]int, len(levels))
	for _, l := range labels {
		counts[l]++
	}
	out := make([]LevelCount, len(levels))
	for i, lv := range levels {
		out[i] = LevelCount{Level: lv, Count: counts[lv]}
	}
	return out
}

// GroupSummary is the summary of a numeric variable within one level of a
// grouping factor. Degenerate marks groups too small for a variance
// estimate; such groups must not enter variance-based tests.
type GroupSummary struct {
	Level      string  `json:"level"`
	Summary    Summary `json:"summary"`
	Degenerate bool    `json:"degenerate"`
}

// GroupDescribe splits values by the parallel factor labels and summarises
// each level. Levels fixes the output order.
func GroupDescribe(values []float64, factor []string, levels []string) ([]GroupSummary, error) {
	if len(values) != len(factor) {
		return nil, fmt.Errorf("group describe: %d values but %d factor labels", len(values), len(factor))
	}
	grouped := splitByLevel(values, factor, levels)
	out := make([]GroupSummary, len(levels))
	for i, lv := range levels {
		s := Describe(grouped[i])
		out[i] = GroupSummary{Level: lv, Summary: s, Degenerate: s.N < 2}
	}
	return out, nil
}

func splitByLevel(values []float64, factor []string, levels []string) [][]float64 {
	index := make(map[string]int, len(levels))
	for i, lv := range levels {
		index[lv] = i
	}
	out := make([][]float64, len(levels))
	for i, v := range values {
		j, ok := index[factor[i]]
		if !ok || math.IsNaN(v) {
			continue
		}
		out[j] = append(out[j], v)
	}
	return out
}
