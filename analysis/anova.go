package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AntonyShaps/regression-project-stc/pkg/dataset"
)

func fTestResult(name string, f, df1, df2 float64) TestResult {
	dist := distuv.F{D1: df1, D2: df2}
	return TestResult{Name: name, Statistic: f, DF1: df1, DF2: df2, PValue: 1 - dist.CDF(f)}
}

// TermTest is the Type-II test of one model term.
type TermTest struct {
	Term Term       `json:"term"`
	Test TestResult `json:"test"`
}

// TypeIIANOVA decomposes a fitted model term by term. Each term is tested
// by comparing the model holding every term that does not contain it
// against that model plus the term itself, which respects marginality:
// a main effect is never tested in the presence of its interactions.
func TypeIIANOVA(frame *dataset.Frame, m *Model) ([]TermTest, error) {
	out := make([]TermTest, 0, len(m.Formula.Terms))
	for _, t := range m.Formula.Terms {
		var base []Term
		for _, u := range m.Formula.Terms {
			if u.Equal(t) || u.Contains(t) {
				continue
			}
			base = append(base, u)
		}
		small, err := Fit(frame, m.Formula.WithTerms(base))
		if err != nil {
			return nil, fmt.Errorf("type II anova, term %s: %w", t, err)
		}
		big, err := Fit(frame, m.Formula.WithTerms(append(append([]Term(nil), base...), t)))
		if err != nil {
			return nil, fmt.Errorf("type II anova, term %s: %w", t, err)
		}
		// the error df comes from the full model, as car::Anova does
		test, err := typeIIF(small, big, m)
		if err != nil {
			return nil, fmt.Errorf("type II anova, term %s: %w", t, err)
		}
		out = append(out, TermTest{Term: t, Test: test})
	}
	return out, nil
}

func typeIIF(small, big, full *Model) (TestResult, error) {
	df1 := float64(big.P - small.P)
	if df1 <= 0 {
		return TestResult{}, fmt.Errorf("term adds no columns")
	}
	df2 := float64(full.DFResidual)
	f := ((small.RSS - big.RSS) / df1) / (full.RSS / df2)
	return fTestResult("type II F", f, df1, df2), nil
}

// SignificantInteractions returns the interaction terms of tests judged
// significant at level alpha.
func SignificantInteractions(tests []TermTest, alpha float64) []Term {
	var out []Term
	for _, tt := range tests {
		if len(tt.Term.Vars) > 1 && tt.Test.Significant(alpha) {
			out = append(out, tt.Term)
		}
	}
	return out
}
