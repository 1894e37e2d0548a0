package analysis

import (
	"fmt"
	"math"

	"github.com/AntonyShaps/regression-project-stc/pkg/dataset"
)

// BoxCox applies the power transform with parameter lambda to v, on the
// shifted value v+1 so that zero observations stay in the domain.
func BoxCox(v, lambda float64) float64 {
	if lambda == 0 {
		return math.Log1p(v)
	}
	return (math.Pow(v+1, lambda) - 1) / lambda
}

// BoxCoxInverse undoes BoxCox for the same lambda.
func BoxCoxInverse(t, lambda float64) float64 {
	if lambda == 0 {
		return math.Expm1(t)
	}
	return math.Pow(t*lambda+1, 1/lambda) - 1
}

// LambdaEstimate is the outcome of a Box-Cox profile likelihood search.
// AtBoundary marks an estimate landing on the edge of the search grid,
// which means the grid truncated the optimum and the report should say so.
type LambdaEstimate struct {
	Lambda     float64 `json:"lambda"`
	LogLik     float64 `json:"logLik"`
	AtBoundary bool    `json:"atBoundary"`
}

// EstimateLambda searches the grid [min, max] in the given step for the
// lambda maximising the profile log-likelihood of the linear model
// boxcox(outcome, lambda) ~ terms over the frame.
func EstimateLambda(frame *dataset.Frame, outcome string, terms []Term, min, max, step float64) (LambdaEstimate, error) {
	raw, err := frame.Numeric(outcome)
	if err != nil {
		return LambdaEstimate{}, fmt.Errorf("box-cox search: %w", err)
	}
	logShift := 0.0
	for _, v := range raw {
		if v < 0 {
			return LambdaEstimate{}, fmt.Errorf("box-cox search: negative value %g in %q", v, outcome)
		}
		logShift += math.Log1p(v)
	}

	best := LambdaEstimate{LogLik: math.Inf(-1)}
	n := float64(len(raw))
	for lambda := min; lambda <= max+step/2; lambda += step {
		lambda = math.Round(lambda/step) * step
		f := Formula{Outcome: outcome, Transform: Transform{Kind: BoxCoxTransform, Lambda: lambda}, Terms: terms}
		m, err := Fit(frame, f)
		if err != nil {
			continue
		}
		ll := -n/2*math.Log(m.RSS/n) + (lambda-1)*logShift
		if ll > best.LogLik {
			best = LambdaEstimate{Lambda: lambda, LogLik: ll}
		}
	}
	if math.IsInf(best.LogLik, -1) {
		return LambdaEstimate{}, fmt.Errorf("box-cox search: no candidate model could be fit")
	}
	if best.Lambda <= min+step/2 || best.Lambda >= max-step/2 {
		best.AtBoundary = true
	}
	return best, nil
}
