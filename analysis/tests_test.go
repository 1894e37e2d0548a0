package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalScores returns a deterministic normal sample: the n quantiles of
// N(mean, sd²) at evenly spaced probabilities.
func normalScores(n int, mean, sd float64) []float64 {
	dist := distuv.Normal{Mu: mean, Sigma: sd}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Quantile((float64(i) + 0.5) / float64(n))
	}
	return out
}

func twoGroups(sdA, sdB float64, n int) (values []float64, factor []string, levels []string) {
	for _, v := range normalScores(n, 0, sdA) {
		values = append(values, v)
		factor = append(factor, "a")
	}
	for _, v := range normalScores(n, 0, sdB) {
		values = append(values, v)
		factor = append(factor, "b")
	}
	return values, factor, []string{"a", "b"}
}

func threeGroups(sds [3]float64, shift [3]float64, n int) (values []float64, factor []string, levels []string) {
	levels = []string{"a", "b", "c"}
	for g := 0; g < 3; g++ {
		for _, v := range normalScores(n, shift[g], sds[g]) {
			values = append(values, v)
			factor = append(factor, levels[g])
		}
	}
	return values, factor, levels
}

func TestBartlettDetectsUnequalVariances(t *testing.T) {
	// group B has 25x the variance of group A
	values, factor, levels := twoGroups(1, 5, 60)
	res, err := Bartlett(values, factor, levels)
	require.NoError(t, err)
	assert.Less(t, res.PValue, 0.05)
	assert.Empty(t, res.Excluded)
}

func TestBartlettAcceptsEqualVariances(t *testing.T) {
	values, factor, levels := twoGroups(1, 1, 60)
	res, err := Bartlett(values, factor, levels)
	require.NoError(t, err)
	assert.Greater(t, res.PValue, 0.05)
}

func TestBartlettExcludesDegenerateGroups(t *testing.T) {
	values, factor, levels := twoGroups(1, 1, 30)
	values = append(values, 7)
	factor = append(factor, "c")
	levels = append(levels, "c")

	res, err := Bartlett(values, factor, levels)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, res.Excluded)
	assert.Equal(t, 1.0, res.DF1)
}

func TestBartlettNeedsTwoUsableGroups(t *testing.T) {
	_, err := Bartlett([]float64{1, 2, 3, 4}, []string{"a", "a", "a", "b"}, []string{"a", "b"})
	assert.Error(t, err)
}

func TestCompareMeansSelectsWelchUnderUnequalVariances(t *testing.T) {
	// the homogeneity gate must route the comparison to the
	// variance-robust test
	values, factor, levels := twoGroups(1, 5, 60)
	cmp, err := CompareMeans(values, factor, levels, 0.05)
	require.NoError(t, err)

	assert.False(t, cmp.EqualVariances)
	assert.Equal(t, "Welch two-sample t", cmp.MeanTest.Name)
	// Welch df is fractional and well below the pooled 2n-2
	assert.Less(t, cmp.MeanTest.DF1, float64(118))
}

func TestCompareMeansSelectsPooledUnderEqualVariances(t *testing.T) {
	values, factor, levels := twoGroups(1, 1, 60)
	cmp, err := CompareMeans(values, factor, levels, 0.05)
	require.NoError(t, err)

	assert.True(t, cmp.EqualVariances)
	assert.Equal(t, "pooled two-sample t", cmp.MeanTest.Name)
	assert.Equal(t, float64(118), cmp.MeanTest.DF1)
}

func TestTwoSampleTTestDetectsShift(t *testing.T) {
	a := normalScores(80, 0, 1)
	b := normalScores(80, 2, 1)
	res, err := TwoSampleTTest(a, b, true)
	require.NoError(t, err)
	assert.Less(t, res.PValue, 0.001)
}

func TestOneWayANOVADetectsShift(t *testing.T) {
	values, factor, levels := threeGroups([3]float64{1, 1, 1}, [3]float64{0, 0, 2}, 50)
	res, err := OneWayANOVA(values, factor, levels)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.DF1)
	assert.Equal(t, 147.0, res.DF2)
	assert.Less(t, res.PValue, 0.001)
}

func TestWelchANOVAHasFractionalDF(t *testing.T) {
	values, factor, levels := threeGroups([3]float64{1, 3, 6}, [3]float64{0, 0, 5}, 40)
	res, err := WelchANOVA(values, factor, levels)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.DF1)
	assert.NotEqual(t, res.DF2, float64(int(res.DF2)), "Welch denominator df should be fractional")
	assert.Less(t, res.PValue, 0.05)
}

func TestCompareMeansThreeGroupsGatesToWelchANOVA(t *testing.T) {
	values, factor, levels := threeGroups([3]float64{1, 4, 8}, [3]float64{0, 0, 0}, 40)
	cmp, err := CompareMeans(values, factor, levels, 0.05)
	require.NoError(t, err)
	assert.False(t, cmp.EqualVariances)
	assert.Equal(t, "Welch ANOVA", cmp.MeanTest.Name)
}
