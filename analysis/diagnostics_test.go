package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnoseQQTracksWellBehavedResiduals(t *testing.T) {
	frame := synthFrame(t, 400, 0.3)
	m, err := Fit(frame, Formula{Outcome: "y", Terms: []Term{
		MainEffect("x1"), MainEffect("x2"), MainEffect("g"), Interaction("x1", "x2")}})
	require.NoError(t, err)

	d := Diagnose(m, 0.2)
	require.Len(t, d.QQ, m.N)
	// QQ points must be sorted in both coordinates
	for i := 1; i < len(d.QQ); i++ {
		assert.LessOrEqual(t, d.QQ[i-1].Theoretical, d.QQ[i].Theoretical)
		assert.LessOrEqual(t, d.QQ[i-1].Observed, d.QQ[i].Observed)
	}
	// uniform noise is not normal but symmetric and light-tailed; the
	// probability-plot correlation still sits close to 1
	assert.Greater(t, d.QQCorrelation, 0.95)
	assert.LessOrEqual(t, d.QQCorrelation, 1.0)
}

func TestDiagnoseFlagsLargeResiduals(t *testing.T) {
	frame := synthFrame(t, 400, 0.3)
	m, err := Fit(frame, Formula{Outcome: "y", Terms: []Term{
		MainEffect("x1"), MainEffect("x2"), MainEffect("g"), Interaction("x1", "x2")}})
	require.NoError(t, err)

	d := Diagnose(m, 0.2)
	want := 0
	for _, r := range m.Residuals {
		if math.Abs(r) > 0.2 {
			want++
		}
	}
	assert.Len(t, d.FlaggedRows, want)
	for _, i := range d.FlaggedRows {
		assert.Greater(t, math.Abs(m.Residuals[i]), 0.2)
	}
	assert.Equal(t, 0.2, d.Threshold)

	// a generous threshold flags nothing
	assert.Empty(t, Diagnose(m, 100).FlaggedRows)
}
