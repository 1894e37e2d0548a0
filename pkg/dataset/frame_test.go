package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		Column{Name: "x", Kind: Numeric, Nums: []float64{1, 2, 3, 4}},
		Column{Name: "g", Kind: Categorical, Labels: []string{"a", "b", "a", "b"}, Levels: []string{"a", "b"}},
	)
	require.NoError(t, err)
	return f
}

func TestNewFrameRejectsRaggedColumns(t *testing.T) {
	_, err := NewFrame(
		Column{Name: "x", Kind: Numeric, Nums: []float64{1, 2}},
		Column{Name: "y", Kind: Numeric, Nums: []float64{1}},
	)
	assert.Error(t, err)
}

func TestFilterDoesNotMutateSource(t *testing.T) {
	f := testFrame(t)
	sub := f.Filter(func(i int) bool { return i%2 == 0 })
	assert.Equal(t, 2, sub.NumRows())
	assert.Equal(t, 4, f.NumRows())

	nums, err := sub.Numeric("x")
	require.NoError(t, err)
	nums[0] = 99
	orig, err := f.Numeric("x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, orig[0])
}

func TestSelectAndRename(t *testing.T) {
	f := testFrame(t)
	sel, err := f.Select("g")
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, sel.Names())

	_, err = f.Select("missing")
	assert.Error(t, err)

	renamed, err := f.Rename("x", "value")
	require.NoError(t, err)
	assert.Equal(t, []string{"value", "g"}, renamed.Names())
	assert.Equal(t, []string{"x", "g"}, f.Names())
}

func TestMissingRows(t *testing.T) {
	f, err := NewFrame(
		Column{Name: "x", Kind: Numeric, Nums: []float64{1, math.NaN(), 3}},
		Column{Name: "g", Kind: Categorical, Labels: []string{"a", "b", ""}, Levels: []string{"a", "b"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, f.MissingRows())
}

func TestCoerceLevelLabelsParsesTheLabel(t *testing.T) {
	// levels deliberately out of numeric order: a coercion that used the
	// level index instead of the label would produce the wrong values
	f, err := NewFrame(Column{
		Name:   "hh",
		Kind:   Categorical,
		Labels: []string{"4", "1", "9", "4"},
		Levels: []string{"4", "1", "9"},
	})
	require.NoError(t, err)

	coerced, err := f.CoerceLevelLabels("hh")
	require.NoError(t, err)
	nums, err := coerced.Numeric("hh")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1, 9, 4}, nums)
}

func TestCoerceLevelLabelsRejectsNonNumericLabel(t *testing.T) {
	f, err := NewFrame(Column{
		Name:   "hh",
		Kind:   Categorical,
		Labels: []string{"one"},
		Levels: []string{"one"},
	})
	require.NoError(t, err)
	_, err = f.CoerceLevelLabels("hh")
	assert.Error(t, err)
}

func TestWithColumnReplacesInPosition(t *testing.T) {
	f := testFrame(t)

	replaced, err := f.WithColumn(Column{Name: "x", Kind: Numeric, Nums: []float64{10, 20, 30, 40}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "g"}, replaced.Names(), "replacing a column must not move it")
	nums, err := replaced.Numeric("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 40}, nums)

	extended, err := f.WithColumn(Column{Name: "y", Kind: Numeric, Nums: []float64{5, 6, 7, 8}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "g", "y"}, extended.Names())
}

func TestCoerceLevelLabelsKeepsColumnOrder(t *testing.T) {
	f, err := NewFrame(
		Column{Name: "a", Kind: Numeric, Nums: []float64{1, 2}},
		Column{Name: "hh", Kind: Categorical, Labels: []string{"3", "5"}, Levels: []string{"3", "5"}},
		Column{Name: "z", Kind: Numeric, Nums: []float64{9, 9}},
	)
	require.NoError(t, err)

	coerced, err := f.CoerceLevelLabels("hh")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "hh", "z"}, coerced.Names())
}
