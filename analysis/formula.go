package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/AntonyShaps/regression-project-stc/pkg/dataset"
)

// Term is one model term: a single variable for a main effect, or two for
// a pairwise interaction. Vars is kept sorted so equal terms compare equal.
type Term struct {
	Vars []string
}

// MainEffect returns the term for a single variable.
func MainEffect(v string) Term { return Term{Vars: []string{v}} }

// Interaction returns the pairwise interaction term of a and b.
func Interaction(a, b string) Term {
	vars := []string{a, b}
	sort.Strings(vars)
	return Term{Vars: vars}
}

func (t Term) String() string { return strings.Join(t.Vars, ":") }

// Equal reports whether two terms name the same variable set.
func (t Term) Equal(o Term) bool { return t.String() == o.String() }

// Contains reports whether t strictly contains o, i.e. o's variables are a
// proper subset of t's. An interaction contains its main effects.
func (t Term) Contains(o Term) bool {
	if len(o.Vars) >= len(t.Vars) {
		return false
	}
	have := map[string]bool{}
	for _, v := range t.Vars {
		have[v] = true
	}
	for _, v := range o.Vars {
		if !have[v] {
			return false
		}
	}
	return true
}

// TransformKind names the outcome transform of a formula.
type TransformKind int

const (
	Identity TransformKind = iota
	Log1p
	BoxCoxTransform
)

// Transform is the outcome transform applied before fitting.
type Transform struct {
	Kind   TransformKind
	Lambda float64
}

func (tr Transform) String() string {
	switch tr.Kind {
	case Log1p:
		return "log1p"
	case BoxCoxTransform:
		return fmt.Sprintf("boxcox[λ=%.2f]", tr.Lambda)
	default:
		return "identity"
	}
}

// Apply transforms a single outcome value.
func (tr Transform) Apply(v float64) float64 {
	switch tr.Kind {
	case Log1p:
		return BoxCox(v, 0)
	case BoxCoxTransform:
		return BoxCox(v, tr.Lambda)
	default:
		return v
	}
}

// Formula describes a linear model: a transformed outcome regressed on a
// set of main-effect and interaction terms (plus an implicit intercept).
type Formula struct {
	Outcome   string
	Transform Transform
	Terms     []Term
}

func (f Formula) String() string {
	rhs := make([]string, len(f.Terms))
	for i, t := range f.Terms {
		rhs[i] = t.String()
	}
	lhs := f.Outcome
	if f.Transform.Kind != Identity {
		lhs = fmt.Sprintf("%s(%s)", f.Transform, f.Outcome)
	}
	if len(rhs) == 0 {
		return lhs + " ~ 1"
	}
	return lhs + " ~ " + strings.Join(rhs, " + ")
}

// HasTerm reports whether the formula includes t.
func (f Formula) HasTerm(t Term) bool {
	for _, u := range f.Terms {
		if u.Equal(t) {
			return true
		}
	}
	return false
}

// WithTerms returns a copy of the formula using the given term set.
func (f Formula) WithTerms(terms []Term) Formula {
	f.Terms = append([]Term(nil), terms...)
	return f
}

// TermSet returns a canonical string for the formula's term set,
// independent of term order.
func (f Formula) TermSet() string {
	names := make([]string, len(f.Terms))
	for i, t := range f.Terms {
		names[i] = t.String()
	}
	sort.Strings(names)
	return strings.Join(names, " + ")
}

// NestedIn reports whether every term of f also appears in big.
func (f Formula) NestedIn(big Formula) bool {
	for _, t := range f.Terms {
		if !big.HasTerm(t) {
			return false
		}
	}
	return true
}

// FullTwoWay returns main effects plus all pairwise interactions of vars.
func FullTwoWay(vars []string) []Term {
	var terms []Term
	for _, v := range vars {
		terms = append(terms, MainEffect(v))
	}
	for i := 0; i < len(vars); i++ {
		for j := i + 1; j < len(vars); j++ {
			terms = append(terms, Interaction(vars[i], vars[j]))
		}
	}
	return terms
}

// variable expansion: a numeric column contributes itself, a categorical
// column contributes treatment-coded dummies against its first level.
type expansion struct {
	names []string
	cols  [][]float64
}

func expandVariable(frame *dataset.Frame, name string) (expansion, error) {
	col, err := frame.Column(name)
	if err != nil {
		return expansion{}, err
	}
	if col.Kind == dataset.Numeric {
		return expansion{names: []string{name}, cols: [][]float64{col.Nums}}, nil
	}
	if len(col.Levels) < 2 {
		return expansion{}, fmt.Errorf("factor %q has %d levels, need 2+", name, len(col.Levels))
	}
	ex := expansion{}
	for _, lv := range col.Levels[1:] {
		dummy := make([]float64, len(col.Labels))
		for i, l := range col.Labels {
			if l == lv {
				dummy[i] = 1
			}
		}
		ex.names = append(ex.names, name+lv)
		ex.cols = append(ex.cols, dummy)
	}
	return ex, nil
}

// designMatrix builds the model matrix of the formula over the frame:
// intercept first, then each term's expansion in order.
func designMatrix(frame *dataset.Frame, f Formula) (*mat.Dense, []string, error) {
	n := frame.NumRows()
	names := []string{"(Intercept)"}
	cols := [][]float64{ones(n)}

	for _, t := range f.Terms {
		ex, err := expandVariable(frame, t.Vars[0])
		if err != nil {
			return nil, nil, fmt.Errorf("term %s: %w", t, err)
		}
		for _, v := range t.Vars[1:] {
			next, err := expandVariable(frame, v)
			if err != nil {
				return nil, nil, fmt.Errorf("term %s: %w", t, err)
			}
			ex = crossExpansions(ex, next)
		}
		names = append(names, ex.names...)
		cols = append(cols, ex.cols...)
	}

	x := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		for i := 0; i < n; i++ {
			x.Set(i, j, c[i])
		}
	}
	return x, names, nil
}

func crossExpansions(a, b expansion) expansion {
	out := expansion{}
	for i := range a.cols {
		for j := range b.cols {
			prod := make([]float64, len(a.cols[i]))
			for k := range prod {
				prod[k] = a.cols[i][k] * b.cols[j][k]
			}
			out.names = append(out.names, a.names[i]+":"+b.names[j])
			out.cols = append(out.cols, prod)
		}
	}
	return out
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
