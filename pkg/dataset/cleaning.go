package dataset

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Columns of interest for the analysis. The source column holding the
// monthly unemployment benefit has an opaque survey code name and is
// renamed on projection.
const (
	RegionColumn      = "region"
	GenderColumn      = "gender"
	CitizenshipColumn = "citizenship"
	HouseholdColumn   = "hhsize"
	AgeColumn         = "age"
	SourceBenefits    = "benefits"
	BenefitsColumn    = "benefit"
)

// MinimumAge is the eligibility cutoff of the survey: respondents younger
// than this were not asked the benefit questions at all.
const MinimumAge = 16

// Cleaner filters and validates the raw survey table.
type Cleaner struct {
	logger  *zap.Logger
	regions []string
}

// NewCleaner returns a cleaner restricted to the given subregions.
func NewCleaner(logger *zap.Logger, regions []string) *Cleaner {
	return &Cleaner{logger: logger, regions: regions}
}

// Clean subsets the raw table to the configured subregions, projects to the
// five analysis columns, coerces the household-size category to an integer
// and removes the under-age rows.
//
// Rows are dropped only after verifying that the rows with missing values
// are exactly the rows with age below MinimumAge. Missingness in this table
// is mechanical (minors are not asked the benefit questions), which is the
// only reason dropping is a sound policy here; if the two row sets diverge
// the assumption is wrong and Clean refuses to proceed.
func (c *Cleaner) Clean(raw *Frame) (*Frame, error) {
	inRegion := make(map[string]bool, len(c.regions))
	for _, r := range c.regions {
		inRegion[r] = true
	}
	regionLabels, err := raw.Labels(RegionColumn)
	if err != nil {
		return nil, fmt.Errorf("cleaning: %w", err)
	}
	filtered := raw.Filter(func(i int) bool { return inRegion[regionLabels[i]] })
	c.logger.Info("filtered to target subregions",
		zap.Strings("regions", c.regions),
		zap.Int("rows", filtered.NumRows()))

	projected, err := filtered.Select(GenderColumn, CitizenshipColumn, HouseholdColumn, AgeColumn, SourceBenefits)
	if err != nil {
		return nil, fmt.Errorf("cleaning: %w", err)
	}
	projected, err = projected.Rename(SourceBenefits, BenefitsColumn)
	if err != nil {
		return nil, fmt.Errorf("cleaning: %w", err)
	}
	projected, err = projected.CoerceLevelLabels(HouseholdColumn)
	if err != nil {
		return nil, fmt.Errorf("cleaning: household size: %w", err)
	}

	ages, err := projected.Numeric(AgeColumn)
	if err != nil {
		return nil, fmt.Errorf("cleaning: %w", err)
	}
	c.auditNumeric("age before drop", ages)

	missing := projected.MissingRows()
	underage := make([]int, 0, len(missing))
	for i, a := range ages {
		if a < MinimumAge {
			underage = append(underage, i)
		}
	}
	if !equalRowSets(missing, underage) {
		return nil, fmt.Errorf("cleaning: missing-value rows (%d) do not coincide with age<%d rows (%d); cannot justify dropping",
			len(missing), MinimumAge, len(underage))
	}
	c.logger.Info("missingness fully explained by age cutoff",
		zap.Int("rowsToDrop", len(underage)),
		zap.Int("ageCutoff", MinimumAge))

	clean := projected.Filter(func(i int) bool { return ages[i] >= MinimumAge })

	cleanAges, err := clean.Numeric(AgeColumn)
	if err != nil {
		return nil, fmt.Errorf("cleaning: %w", err)
	}
	c.auditNumeric("age after drop", cleanAges)
	benefits, err := clean.Numeric(BenefitsColumn)
	if err != nil {
		return nil, fmt.Errorf("cleaning: %w", err)
	}
	c.auditNumeric("benefit after drop", benefits)

	if rows := clean.MissingRows(); len(rows) != 0 {
		return nil, fmt.Errorf("cleaning: %d rows still missing values after drop", len(rows))
	}
	return clean, nil
}

// NonZeroBenefits returns the view of the cleaned frame restricted to
// respondents who actually receive a benefit. It is used only where the
// benefit magnitude itself is the subject.
func NonZeroBenefits(clean *Frame) (*Frame, error) {
	benefits, err := clean.Numeric(BenefitsColumn)
	if err != nil {
		return nil, err
	}
	return clean.Filter(func(i int) bool { return benefits[i] != 0 }), nil
}

func (c *Cleaner) auditNumeric(name string, values []float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		c.logger.Warn("audit summary skipped, no observed values", zap.String("variable", name))
		return
	}
	sort.Float64s(finite)
	c.logger.Info("audit summary",
		zap.String("variable", name),
		zap.Int("n", len(finite)),
		zap.Float64("min", finite[0]),
		zap.Float64("q1", stat.Quantile(0.25, stat.Empirical, finite, nil)),
		zap.Float64("median", stat.Quantile(0.5, stat.Empirical, finite, nil)),
		zap.Float64("mean", stat.Mean(finite, nil)),
		zap.Float64("q3", stat.Quantile(0.75, stat.Empirical, finite, nil)),
		zap.Float64("max", finite[len(finite)-1]))
}

func equalRowSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
