package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepwiseAllDirectionsConverge(t *testing.T) {
	frame := synthFrame(t, 400, 0.3)
	full := Formula{Outcome: "y", Terms: FullTwoWay([]string{"x1", "x2", "g"})}

	models, converged, err := StepwiseAllDirections(frame, full)
	require.NoError(t, err)
	assert.True(t, converged, "forward, backward and bidirectional must agree on this dataset")

	// the generating model: x1, x2, g main effects and the x1:x2 interaction
	want := Formula{Outcome: "y", Terms: []Term{
		MainEffect("x1"), MainEffect("x2"), MainEffect("g"), Interaction("x1", "x2"),
	}}.TermSet()
	for dir, m := range models {
		assert.Equal(t, want, m.Formula.TermSet(), dir)
	}
}

func TestStepwiseBackwardDropsNoise(t *testing.T) {
	frame := synthFrame(t, 400, 0.3)
	full := Formula{Outcome: "y", Terms: FullTwoWay([]string{"x1", "x2", "g"})}

	m, trail, err := Stepwise(frame, full, full.Terms, Backward)
	require.NoError(t, err)
	assert.NotEmpty(t, trail)
	for _, s := range trail {
		assert.Equal(t, "drop", s.Action)
	}
	// true interaction survives
	assert.True(t, m.Formula.HasTerm(Interaction("x1", "x2")))
	assert.False(t, m.Formula.HasTerm(Interaction("x1", "g")))
	assert.False(t, m.Formula.HasTerm(Interaction("x2", "g")))
}

func TestStepwiseRespectsMarginality(t *testing.T) {
	terms := []Term{MainEffect("x1"), MainEffect("x2"), Interaction("x1", "x2")}
	drops := droppable(terms)
	require.Len(t, drops, 1)
	assert.True(t, drops[0].Equal(Interaction("x1", "x2")))

	f := Formula{Outcome: "y", Terms: []Term{MainEffect("x1")}}
	adds := addable(f, terms)
	// x1:x2 cannot enter before x2
	require.Len(t, adds, 1)
	assert.True(t, adds[0].Equal(MainEffect("x2")))
}

func TestStepwiseForwardFindsTheModel(t *testing.T) {
	frame := synthFrame(t, 400, 0.3)
	scope := FullTwoWay([]string{"x1", "x2", "g"})

	m, trail, err := Stepwise(frame, Formula{Outcome: "y"}, scope, Forward)
	require.NoError(t, err)
	for _, s := range trail {
		assert.Equal(t, "add", s.Action)
	}
	assert.True(t, m.Formula.HasTerm(MainEffect("x1")))
	assert.True(t, m.Formula.HasTerm(MainEffect("x2")))
	assert.True(t, m.Formula.HasTerm(Interaction("x1", "x2")))
}
