package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// QQPoint pairs a theoretical normal quantile with an observed residual
// quantile.
type QQPoint struct {
	Theoretical float64 `json:"theoretical"`
	Observed    float64 `json:"observed"`
}

// Diagnostics summarises the residual behaviour of a fitted model.
type Diagnostics struct {
	QQ []QQPoint `json:"qq"`
	// Correlation of the QQ points (the probability-plot correlation);
	// values near 1 mean the residuals track the reference distribution.
	QQCorrelation float64 `json:"qqCorrelation"`
	// FlaggedRows are observations whose residual magnitude exceeds the
	// inspection threshold, by row index into the fitting frame.
	FlaggedRows []int   `json:"flaggedRows"`
	Threshold   float64 `json:"threshold"`
}

// Diagnose computes the QQ comparison of the model's studentized residuals
// against the standard normal and flags rows whose raw (Pearson-scale)
// residual magnitude exceeds threshold.
func Diagnose(m *Model, threshold float64) Diagnostics {
	n := len(m.Studentized)
	sorted := make([]float64, n)
	copy(sorted, m.Studentized)
	sort.Float64s(sorted)

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	qq := make([]QQPoint, n)
	theo := make([]float64, n)
	for i := 0; i < n; i++ {
		// Blom plotting positions
		p := (float64(i+1) - 0.375) / (float64(n) + 0.25)
		theo[i] = norm.Quantile(p)
		qq[i] = QQPoint{Theoretical: theo[i], Observed: sorted[i]}
	}

	var flagged []int
	for i, r := range m.Residuals {
		if math.Abs(r) > threshold {
			flagged = append(flagged, i)
		}
	}

	return Diagnostics{
		QQ:            qq,
		QQCorrelation: stat.Correlation(theo, sorted, nil),
		FlaggedRows:   flagged,
		Threshold:     threshold,
	}
}
