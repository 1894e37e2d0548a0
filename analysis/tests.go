package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is the outcome of a single hypothesis test.
type TestResult struct {
	Name      string   `json:"name"`
	Statistic float64  `json:"statistic"`
	DF1       float64  `json:"df1"`
	DF2       float64  `json:"df2,omitempty"`
	PValue    float64  `json:"pValue"`
	Excluded  []string `json:"excluded,omitempty"`
}

// Significant reports whether the test rejects at level alpha.
func (r TestResult) Significant(alpha float64) bool { return r.PValue < alpha }

type group struct {
	level    string
	n        int
	mean     float64
	variance float64
}

func usableGroups(values []float64, factor []string, levels []string) (groups []group, excluded []string) {
	for i, vals := range splitByLevel(values, factor, levels) {
		if len(vals) < 2 {
			// variance undefined, the group cannot enter the test
			excluded = append(excluded, levels[i])
			continue
		}
		groups = append(groups, group{
			level:    levels[i],
			n:        len(vals),
			mean:     stat.Mean(vals, nil),
			variance: stat.Variance(vals, nil),
		})
	}
	return groups, excluded
}

// Bartlett tests the null hypothesis that the variance of values is equal
// across the levels of factor. Levels with fewer than two observations are
// excluded from the test and reported in the result.
func Bartlett(values []float64, factor []string, levels []string) (TestResult, error) {
	groups, excluded := usableGroups(values, factor, levels)
	k := len(groups)
	if k < 2 {
		return TestResult{}, fmt.Errorf("bartlett: need at least 2 groups with 2+ observations, have %d", k)
	}
	total := 0
	pooled := 0.0
	for _, g := range groups {
		total += g.n
		pooled += float64(g.n-1) * g.variance
	}
	dfw := float64(total - k)
	pooled /= dfw

	num := dfw * math.Log(pooled)
	corr := 0.0
	for _, g := range groups {
		num -= float64(g.n-1) * math.Log(g.variance)
		corr += 1 / float64(g.n-1)
	}
	c := 1 + (corr-1/dfw)/(3*float64(k-1))
	x2 := num / c

	chi := distuv.ChiSquared{K: float64(k - 1)}
	return TestResult{
		Name:      "Bartlett",
		Statistic: x2,
		DF1:       float64(k - 1),
		PValue:    1 - chi.CDF(x2),
		Excluded:  excluded,
	}, nil
}

// TwoSampleTTest compares the means of two groups. With pooled true the
// classic equal-variance test is used; otherwise Welch's correction with
// fractional degrees of freedom.
func TwoSampleTTest(a, b []float64, pooled bool) (TestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TestResult{}, fmt.Errorf("t-test: both groups need 2+ observations, have %d and %d", len(a), len(b))
	}
	n1, n2 := float64(len(a)), float64(len(b))
	m1, m2 := stat.Mean(a, nil), stat.Mean(b, nil)
	v1, v2 := stat.Variance(a, nil), stat.Variance(b, nil)

	var t, df float64
	name := "Welch two-sample t"
	if pooled {
		name = "pooled two-sample t"
		sp2 := ((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2)
		t = (m1 - m2) / math.Sqrt(sp2*(1/n1+1/n2))
		df = n1 + n2 - 2
	} else {
		se2 := v1/n1 + v2/n2
		t = (m1 - m2) / math.Sqrt(se2)
		df = se2 * se2 / ((v1/n1)*(v1/n1)/(n1-1) + (v2/n2)*(v2/n2)/(n2-1))
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return TestResult{
		Name:      name,
		Statistic: t,
		DF1:       df,
		PValue:    2 * (1 - dist.CDF(math.Abs(t))),
	}, nil
}

// OneWayANOVA performs the classic equal-variance one-way analysis of
// variance of values across the levels of factor.
func OneWayANOVA(values []float64, factor []string, levels []string) (TestResult, error) {
	groups, excluded := usableGroups(values, factor, levels)
	k := len(groups)
	if k < 2 {
		return TestResult{}, fmt.Errorf("anova: need at least 2 groups with 2+ observations, have %d", k)
	}
	total := 0
	grandSum := 0.0
	for _, g := range groups {
		total += g.n
		grandSum += float64(g.n) * g.mean
	}
	grand := grandSum / float64(total)

	ssb, ssw := 0.0, 0.0
	for _, g := range groups {
		ssb += float64(g.n) * (g.mean - grand) * (g.mean - grand)
		ssw += float64(g.n-1) * g.variance
	}
	df1 := float64(k - 1)
	df2 := float64(total - k)
	f := (ssb / df1) / (ssw / df2)

	dist := distuv.F{D1: df1, D2: df2}
	return TestResult{
		Name:      "one-way ANOVA",
		Statistic: f,
		DF1:       df1,
		DF2:       df2,
		PValue:    1 - dist.CDF(f),
		Excluded:  excluded,
	}, nil
}

// WelchANOVA performs Welch's variance-robust one-way analysis of variance.
// The denominator degrees of freedom are fractional.
func WelchANOVA(values []float64, factor []string, levels []string) (TestResult, error) {
	groups, excluded := usableGroups(values, factor, levels)
	k := len(groups)
	if k < 2 {
		return TestResult{}, fmt.Errorf("welch anova: need at least 2 groups with 2+ observations, have %d", k)
	}
	sumW := 0.0
	weights := make([]float64, k)
	for i, g := range groups {
		weights[i] = float64(g.n) / g.variance
		sumW += weights[i]
	}
	wmean := 0.0
	for i, g := range groups {
		wmean += weights[i] * g.mean
	}
	wmean /= sumW

	a := 0.0
	for i, g := range groups {
		a += weights[i] * (g.mean - wmean) * (g.mean - wmean)
	}
	a /= float64(k - 1)

	h := 0.0
	for i, g := range groups {
		d := 1 - weights[i]/sumW
		h += d * d / float64(g.n-1)
	}
	b := 1 + 2*float64(k-2)/(float64(k*k)-1)*h
	f := a / b
	df1 := float64(k - 1)
	df2 := (float64(k*k) - 1) / (3 * h)

	dist := distuv.F{D1: df1, D2: df2}
	return TestResult{
		Name:      "Welch ANOVA",
		Statistic: f,
		DF1:       df1,
		DF2:       df2,
		PValue:    1 - dist.CDF(f),
		Excluded:  excluded,
	}, nil
}

// MeanComparison records a gated mean-comparison: the homogeneity test and
// the mean test its outcome selected.
type MeanComparison struct {
	Homogeneity    TestResult `json:"homogeneity"`
	EqualVariances bool       `json:"equalVariances"`
	MeanTest       TestResult `json:"meanTest"`
}

// CompareMeans tests values across the levels of factor. Bartlett's test
// gates the choice of mean test: unequal variances at level alpha select
// the Welch variant, otherwise the pooled/classic one. The gate decision is
// part of the result so the report can show which test was valid.
func CompareMeans(values []float64, factor []string, levels []string, alpha float64) (MeanComparison, error) {
	bart, err := Bartlett(values, factor, levels)
	if err != nil {
		return MeanComparison{}, err
	}
	equal := !bart.Significant(alpha)

	usable := make([]string, 0, len(levels))
	excludedSet := map[string]bool{}
	for _, lv := range bart.Excluded {
		excludedSet[lv] = true
	}
	for _, lv := range levels {
		if !excludedSet[lv] {
			usable = append(usable, lv)
		}
	}

	var mean TestResult
	if len(usable) == 2 {
		grouped := splitByLevel(values, factor, usable)
		mean, err = TwoSampleTTest(grouped[0], grouped[1], equal)
	} else if equal {
		mean, err = OneWayANOVA(values, factor, usable)
	} else {
		mean, err = WelchANOVA(values, factor, usable)
	}
	if err != nil {
		return MeanComparison{}, err
	}
	mean.Excluded = bart.Excluded
	return MeanComparison{Homogeneity: bart, EqualVariances: equal, MeanTest: mean}, nil
}
