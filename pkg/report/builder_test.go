package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AntonyShaps/regression-project-stc/analysis"
	"github.com/AntonyShaps/regression-project-stc/pkg/dataset"
)

func TestBuilderEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()

	rep, err := NewBuilder(cfg, zaptest.NewLogger(t)).Run()
	require.NoError(t, err)

	assert.Equal(t, 556, rep.CleanRows)
	assert.Equal(t, 250, rep.NonZeroRows)
	require.Len(t, rep.Sections, 5)
	require.NotNil(t, rep.Terminal)
	assert.Equal(t, 250, rep.Terminal.N)

	for _, name := range []string{"report.md", "tables.xlsx"} {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		assert.NoError(t, err, name)
	}
	entries, err := os.ReadDir(filepath.Join(cfg.OutputDir, "charts"))
	require.NoError(t, err)
	assert.Greater(t, len(entries), 10, "every stage renders charts")

	doc, err := os.ReadFile(filepath.Join(cfg.OutputDir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "## Regression models")
	assert.Contains(t, string(doc), "Model comparison")
	// the models are scoped to recipients and the narrative must say so
	assert.Contains(t, string(doc), "fit on the 250 benefit recipients")
}

func TestBenefitSummaryMatchesPublishedFigures(t *testing.T) {
	raw, err := dataset.Load()
	require.NoError(t, err)
	clean, err := dataset.NewCleaner(zaptest.NewLogger(t), DefaultConfig().Regions).Clean(raw)
	require.NoError(t, err)
	nz, err := dataset.NonZeroBenefits(clean)
	require.NoError(t, err)

	benefits, err := nz.Numeric(dataset.BenefitsColumn)
	require.NoError(t, err)
	s := analysis.Describe(benefits)

	assert.Equal(t, 250, s.N)
	assert.InDelta(t, 579.47, s.Min, 0.01)
	assert.InDelta(t, 3145.07, s.Median, 0.01)
	assert.InDelta(t, 3939.68, s.Mean, 0.01)
	assert.InDelta(t, 27198.13, s.Max, 0.01)
}

func TestSheetNameTrimsAndDeduplicates(t *testing.T) {
	used := map[string]bool{}
	a := sheetName("Benefit by citizenship: full decomposition table", used)
	b := sheetName("Benefit by citizenship: full decomposition table", used)
	assert.LessOrEqual(t, len(a), 31)
	assert.LessOrEqual(t, len(b), 31)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, ":")
}

func TestSharedScaleHandlesDegenerateSpans(t *testing.T) {
	s := sharedScale([]float64{100, 250, 400, 1200})
	require.NotNil(t, s)
	assert.Less(t, s.Min, 100.0)
	assert.Greater(t, s.Max, 1200.0)
	assert.NotEmpty(t, s.Ticks)
	assert.LessOrEqual(t, len(s.Ticks), 8)

	// constant and empty samples have no range to pin
	assert.Nil(t, sharedScale([]float64{7, 7, 7}))
	assert.Nil(t, sharedScale(nil))
}
