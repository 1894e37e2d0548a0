package analysis

import (
	"fmt"

	"github.com/AntonyShaps/regression-project-stc/pkg/dataset"
)

// Direction selects the moves a stepwise search may take.
type Direction int

const (
	Backward Direction = iota
	Forward
	Bidirectional
)

func (d Direction) String() string {
	switch d {
	case Backward:
		return "backward"
	case Forward:
		return "forward"
	default:
		return "bidirectional"
	}
}

// Step records one accepted move of a stepwise search.
type Step struct {
	Action string  `json:"action"` // "drop" or "add"
	Term   Term    `json:"term"`
	AIC    float64 `json:"aic"`
}

// Stepwise runs AIC-driven stepwise selection from the start formula.
// Scope bounds the term set for additions. Moves respect marginality: a
// main effect cannot leave while one of its interactions stays, and an
// interaction cannot enter before both of its main effects. The search
// stops when no move lowers the AIC.
func Stepwise(frame *dataset.Frame, start Formula, scope []Term, dir Direction) (*Model, []Step, error) {
	current, err := Fit(frame, start)
	if err != nil {
		return nil, nil, fmt.Errorf("stepwise %s: %w", dir, err)
	}
	var trail []Step
	for {
		type move struct {
			action string
			term   Term
			model  *Model
		}
		best := move{}
		bestAIC := current.AIC

		try := func(action string, t Term, terms []Term) {
			m, err := Fit(frame, current.Formula.WithTerms(terms))
			if err != nil {
				return // a rank-deficient candidate is simply not a legal move
			}
			if m.AIC < bestAIC {
				bestAIC = m.AIC
				best = move{action: action, term: t, model: m}
			}
		}

		if dir == Backward || dir == Bidirectional {
			for _, t := range droppable(current.Formula.Terms) {
				var rest []Term
				for _, u := range current.Formula.Terms {
					if !u.Equal(t) {
						rest = append(rest, u)
					}
				}
				try("drop", t, rest)
			}
		}
		if dir == Forward || dir == Bidirectional {
			for _, t := range addable(current.Formula, scope) {
				try("add", t, append(append([]Term(nil), current.Formula.Terms...), t))
			}
		}

		if best.model == nil {
			return current, trail, nil
		}
		current = best.model
		trail = append(trail, Step{Action: best.action, Term: best.term, AIC: best.model.AIC})
	}
}

// droppable lists terms not contained in any other current term.
func droppable(terms []Term) []Term {
	var out []Term
	for _, t := range terms {
		blocked := false
		for _, u := range terms {
			if u.Contains(t) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, t)
		}
	}
	return out
}

// addable lists scope terms absent from f whose contained sub-terms are
// all already present.
func addable(f Formula, scope []Term) []Term {
	var out []Term
	for _, t := range scope {
		if f.HasTerm(t) {
			continue
		}
		ok := true
		for _, u := range scope {
			if t.Contains(u) && !f.HasTerm(u) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// StepwiseAllDirections runs the three search directions over the same
// scope: backward and bidirectional from the full formula, forward from
// the intercept-only model. It reports whether all three converged to the
// same term set; the caller treats disagreement as a per-dataset finding,
// not an error.
func StepwiseAllDirections(frame *dataset.Frame, full Formula) (models map[string]*Model, converged bool, err error) {
	scope := append([]Term(nil), full.Terms...)
	models = make(map[string]*Model, 3)

	back, _, err := Stepwise(frame, full, scope, Backward)
	if err != nil {
		return nil, false, err
	}
	both, _, err := Stepwise(frame, full, scope, Bidirectional)
	if err != nil {
		return nil, false, err
	}
	fwd, _, err := Stepwise(frame, full.WithTerms(nil), scope, Forward)
	if err != nil {
		return nil, false, err
	}

	models[Backward.String()] = back
	models[Bidirectional.String()] = both
	models[Forward.String()] = fwd
	converged = back.Formula.TermSet() == both.Formula.TermSet() &&
		back.Formula.TermSet() == fwd.Formula.TermSet()
	return models, converged, nil
}
