package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonyShaps/regression-project-stc/pkg/dataset"
)

func TestBoxCoxRoundTrip(t *testing.T) {
	for _, lambda := range []float64{-1.3, -0.5, 0.25, 0.5, 2} {
		for _, v := range []float64{0, 0.1, 1, 100, 3184.3} {
			tr := BoxCox(v, lambda)
			back := BoxCoxInverse(tr, lambda)
			assert.InDelta(t, v, back, 1e-8*(1+v), "lambda=%g v=%g", lambda, v)
		}
	}
}

func TestBoxCoxLambdaZeroIsLog1p(t *testing.T) {
	assert.Equal(t, math.Log1p(5), BoxCox(5, 0))
	assert.InDelta(t, 5, BoxCoxInverse(BoxCox(5, 0), 0), 1e-12)
}

func TestBoxCoxContinuousInLambda(t *testing.T) {
	// the power branch must approach the log branch as lambda -> 0
	assert.InDelta(t, BoxCox(42, 0), BoxCox(42, 1e-9), 1e-6)
}

func TestEstimateLambdaOnLognormalData(t *testing.T) {
	vals := make([]float64, 300)
	for i, z := range normalScores(len(vals), 8, 0.8) {
		vals[i] = math.Exp(z)
	}
	frame, err := dataset.NewFrame(dataset.Column{Name: "y", Kind: dataset.Numeric, Nums: vals})
	require.NoError(t, err)

	est, err := EstimateLambda(frame, "y", nil, -2, 2, 0.05)
	require.NoError(t, err)
	// lognormal data wants the log transform
	assert.InDelta(t, 0, est.Lambda, 0.25)
	assert.False(t, est.AtBoundary)
}

func TestEstimateLambdaFlagsBoundary(t *testing.T) {
	vals := make([]float64, 200)
	for i, z := range normalScores(len(vals), 8, 0.8) {
		vals[i] = math.Exp(z)
	}
	frame, err := dataset.NewFrame(dataset.Column{Name: "y", Kind: dataset.Numeric, Nums: vals})
	require.NoError(t, err)

	// a grid stopping well short of the optimum must report the boundary
	est, err := EstimateLambda(frame, "y", nil, 1, 2, 0.05)
	require.NoError(t, err)
	assert.True(t, est.AtBoundary)
}

func TestEstimateLambdaRejectsNegativeValues(t *testing.T) {
	frame, err := dataset.NewFrame(dataset.Column{Name: "y", Kind: dataset.Numeric, Nums: []float64{1, -2, 3}})
	require.NoError(t, err)
	_, err = EstimateLambda(frame, "y", nil, -2, 2, 0.05)
	assert.Error(t, err)
}
