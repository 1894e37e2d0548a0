package charts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	vals := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5, 9}
	require.NoError(t, Histogram(vals, 5, "values", "v", path, nil))
	assertPNG(t, path)
}

func TestGroupedBoxSharedScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.png")
	groups := [][]float64{{1, 2, 3, 4}, {2, 4, 6, 8}, {}}
	scale := &Scale{Min: 0, Max: 10, Ticks: []float64{0, 5, 10}}
	require.NoError(t, GroupedBox(groups, []string{"a", "b", "c"}, "by group", "v", path, scale))
	assertPNG(t, path)
}

func TestGroupedBoxRejectsMismatchedLevels(t *testing.T) {
	err := GroupedBox([][]float64{{1}}, []string{"a", "b"}, "t", "v", "unused.png", nil)
	assert.Error(t, err)
}

func TestBarChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.png")
	require.NoError(t, BarChart([]float64{10, 4, 2}, []string{"a", "b", "c"}, "counts", "n", path))
	assertPNG(t, path)
}

func TestScatterTrend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scatter.png")
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2.1, 3.9, 6.2, 8.0, 9.8}
	require.NoError(t, ScatterTrend(x, y, 0, 2, "trend", "x", "y", path))
	assertPNG(t, path)

	assert.Error(t, ScatterTrend(x, y[:3], 0, 2, "bad", "x", "y", path))
}

func TestQQPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qq.png")
	theo := []float64{-1.2, -0.5, 0, 0.5, 1.2}
	obs := []float64{-1.1, -0.6, 0.1, 0.4, 1.3}
	require.NoError(t, QQPlot(theo, obs, "qq", path))
	assertPNG(t, path)
}

func TestFacetedBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facets.png")
	facets := []Facet{
		{Title: "p1", Groups: [][]float64{{1, 2, 3}, {4, 5, 6}}, Levels: []string{"a", "b"}},
		{Title: "p2", Groups: [][]float64{{2, 3, 4}, {5, 6, 7}}, Levels: []string{"a", "b"}},
	}
	require.NoError(t, FacetedBox(facets, 1, 2, "v", path, &Scale{Min: 0, Max: 8}))
	assertPNG(t, path)

	assert.Error(t, FacetedBox(facets, 1, 1, "v", path, nil))
}
