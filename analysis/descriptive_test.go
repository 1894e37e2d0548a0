package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s := Describe([]float64{9, 1, 5, 3, 7, 2, 8, 4, 6})
	assert.Equal(t, 9, s.N)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 5.0, s.Median)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.Equal(t, 3.0, s.Q1)
	assert.Equal(t, 7.0, s.Q3)
}

func TestDescribeIgnoresNaN(t *testing.T) {
	s := Describe([]float64{1, math.NaN(), 3})
	assert.Equal(t, 2, s.N)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
}

func TestDescribeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Describe(nil))
}

func TestFrequencies(t *testing.T) {
	freqs := Frequencies(
		[]string{"b", "a", "b", "b", ""},
		[]string{"a", "b"},
	)
	assert.Equal(t, []LevelCount{{Level: "a", Count: 1}, {Level: "b", Count: 3}}, freqs)
}

func TestGroupDescribeFlagsDegenerateGroups(t *testing.T) {
	values := []float64{1, 2, 3, 10}
	factor := []string{"a", "a", "a", "b"}
	groups, err := GroupDescribe(values, factor, []string{"a", "b"})
	require.NoError(t, err)

	assert.False(t, groups[0].Degenerate)
	assert.Equal(t, 3, groups[0].Summary.N)
	// a single observation has no variance; the group must be flagged,
	// never treated as zero-variance
	assert.True(t, groups[1].Degenerate)
}

func TestGroupDescribeLengthMismatch(t *testing.T) {
	_, err := GroupDescribe([]float64{1}, []string{"a", "b"}, []string{"a"})
	assert.Error(t, err)
}
