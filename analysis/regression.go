package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AntonyShaps/regression-project-stc/pkg/dataset"
)

// Coefficient is one estimated model coefficient with its test statistics.
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"stdErr"`
	T        float64 `json:"t"`
	PValue   float64 `json:"pValue"`
}

// Model is an immutable fitted linear model. Comparisons between candidate
// models construct new Model values; nothing here is mutated after Fit.
type Model struct {
	Formula      Formula       `json:"formula"`
	N            int           `json:"n"`
	P            int           `json:"p"`
	Coefficients []Coefficient `json:"coefficients"`
	Residuals    []float64     `json:"-"`
	Fitted       []float64     `json:"-"`
	Leverages    []float64     `json:"-"`
	Studentized  []float64     `json:"-"`
	RSS          float64       `json:"rss"`
	R2           float64       `json:"r2"`
	AdjR2        float64       `json:"adjR2"`
	AIC          float64       `json:"aic"`
	Sigma        float64       `json:"sigma"`
	DFResidual   int           `json:"dfResidual"`
}

// Fit estimates the formula over the frame by ordinary least squares.
// A rank-deficient design (typically from piling up interaction terms)
// is returned as an error so the caller can surface it in the report.
func Fit(frame *dataset.Frame, f Formula) (*Model, error) {
	raw, err := frame.Numeric(f.Outcome)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", f, err)
	}
	n := len(raw)
	y := make([]float64, n)
	for i, v := range raw {
		y[i] = f.Transform.Apply(v)
	}

	x, names, err := designMatrix(frame, f)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", f, err)
	}
	p := len(names)
	if n <= p {
		return nil, fmt.Errorf("fit %s: %d observations for %d coefficients", f, n, p)
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewDense(n, 1, y)); err != nil {
		return nil, fmt.Errorf("fit %s: design matrix is rank deficient: %w", f, err)
	}

	fitted := make([]float64, n)
	resid := make([]float64, n)
	rss := 0.0
	for i := 0; i < n; i++ {
		yhat := 0.0
		for j := 0; j < p; j++ {
			yhat += x.At(i, j) * beta.At(j, 0)
		}
		fitted[i] = yhat
		resid[i] = y[i] - yhat
		rss += resid[i] * resid[i]
	}
	mean := stat.Mean(y, nil)
	tss := 0.0
	for _, v := range y {
		tss += (v - mean) * (v - mean)
	}

	dfRes := n - p
	sigma2 := rss / float64(dfRes)
	r2 := 1 - rss/tss
	adjR2 := 1 - (1-r2)*float64(n-1)/float64(dfRes)
	nf := float64(n)
	aic := nf*math.Log(2*math.Pi) + nf*math.Log(rss/nf) + nf + 2*float64(p+1)

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("fit %s: singular normal equations: %w", f, err)
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dfRes)}
	coefs := make([]Coefficient, p)
	for j := 0; j < p; j++ {
		se := math.Sqrt(sigma2 * inv.At(j, j))
		t := beta.At(j, 0) / se
		coefs[j] = Coefficient{
			Name:     names[j],
			Estimate: beta.At(j, 0),
			StdErr:   se,
			T:        t,
			PValue:   2 * (1 - tdist.CDF(math.Abs(t))),
		}
	}

	lev := make([]float64, n)
	stud := make([]float64, n)
	s := math.Sqrt(sigma2)
	for i := 0; i < n; i++ {
		h := 0.0
		for j := 0; j < p; j++ {
			for k := 0; k < p; k++ {
				h += x.At(i, j) * inv.At(j, k) * x.At(i, k)
			}
		}
		lev[i] = h
		stud[i] = resid[i] / (s * math.Sqrt(1-h))
	}

	return &Model{
		Formula:      f,
		N:            n,
		P:            p,
		Coefficients: coefs,
		Residuals:    resid,
		Fitted:       fitted,
		Leverages:    lev,
		Studentized:  stud,
		RSS:          rss,
		R2:           r2,
		AdjR2:        adjR2,
		AIC:          aic,
		Sigma:        s,
		DFResidual:   dfRes,
	}, nil
}

// NestedFTest compares a restricted model against a larger model it is
// nested in, via the F statistic on the residual sum of squares.
func NestedFTest(small, big *Model) (TestResult, error) {
	if !small.Formula.NestedIn(big.Formula) {
		return TestResult{}, fmt.Errorf("nested F-test: %s is not a restriction of %s", small.Formula, big.Formula)
	}
	if small.N != big.N {
		return TestResult{}, fmt.Errorf("nested F-test: models fit on %d and %d rows", small.N, big.N)
	}
	df1 := float64(big.P - small.P)
	if df1 <= 0 {
		return TestResult{}, fmt.Errorf("nested F-test: models have the same number of coefficients")
	}
	df2 := float64(big.DFResidual)
	f := ((small.RSS - big.RSS) / df1) / (big.RSS / df2)
	dist := distuv.F{D1: df1, D2: df2}
	return TestResult{
		Name:      "nested F",
		Statistic: f,
		DF1:       df1,
		DF2:       df2,
		PValue:    1 - dist.CDF(f),
	}, nil
}
