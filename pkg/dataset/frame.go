package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// ColumnKind distinguishes numeric columns from leveled categorical ones.
type ColumnKind int

const (
	Numeric ColumnKind = iota
	Categorical
)

// Column is a single named column. Numeric columns store values in Nums
// with NaN marking a missing entry. Categorical columns store the label of
// each row in Labels ("" marks missing) together with the ordered level set.
type Column struct {
	Name   string
	Kind   ColumnKind
	Nums   []float64
	Labels []string
	Levels []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Nums)
	}
	return len(c.Labels)
}

// Missing reports whether the value at row i is missing.
func (c *Column) Missing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Nums[i])
	}
	return c.Labels[i] == ""
}

func (c *Column) clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Nums = append([]float64(nil), c.Nums...)
	} else {
		out.Labels = append([]string(nil), c.Labels...)
		out.Levels = append([]string(nil), c.Levels...)
	}
	return out
}

func (c *Column) take(rows []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Nums = make([]float64, len(rows))
		for j, i := range rows {
			out.Nums[j] = c.Nums[i]
		}
		return out
	}
	out.Labels = make([]string, len(rows))
	for j, i := range rows {
		out.Labels[j] = c.Labels[i]
	}
	out.Levels = append([]string(nil), c.Levels...)
	return out
}

// Frame is an immutable column-oriented table. All transformations return a
// new Frame; the receiver is never modified.
type Frame struct {
	cols []Column
	n    int
}

// NewFrame builds a frame from columns of equal length.
func NewFrame(cols ...Column) (*Frame, error) {
	if len(cols) == 0 {
		return &Frame{}, nil
	}
	n := cols[0].Len()
	for _, c := range cols {
		if c.Len() != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), n)
		}
	}
	return &Frame{cols: cols, n: n}, nil
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.n }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or an error if it does not exist.
func (f *Frame) Column(name string) (*Column, error) {
	for i := range f.cols {
		if f.cols[i].Name == name {
			return &f.cols[i], nil
		}
	}
	return nil, fmt.Errorf("no column %q", name)
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("column %q is categorical, want numeric", name)
	}
	return c.Nums, nil
}

// Labels returns the row labels of a categorical column.
func (f *Frame) Labels(name string) ([]string, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Categorical {
		return nil, fmt.Errorf("column %q is numeric, want categorical", name)
	}
	return c.Labels, nil
}

// Levels returns the ordered level set of a categorical column.
func (f *Frame) Levels(name string) ([]string, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Categorical {
		return nil, fmt.Errorf("column %q is numeric, want categorical", name)
	}
	return c.Levels, nil
}

// Filter returns a new frame holding only the rows for which keep is true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	rows := make([]int, 0, f.n)
	for i := 0; i < f.n; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.takeRows(rows)
}

func (f *Frame) takeRows(rows []int) *Frame {
	cols := make([]Column, len(f.cols))
	for i := range f.cols {
		cols[i] = f.cols[i].take(rows)
	}
	return &Frame{cols: cols, n: len(rows)}
}

// Select returns a new frame projected to the named columns, in order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c.clone())
	}
	return &Frame{cols: cols, n: f.n}, nil
}

// Rename returns a new frame with one column renamed.
func (f *Frame) Rename(old, new string) (*Frame, error) {
	if _, err := f.Column(old); err != nil {
		return nil, err
	}
	cols := make([]Column, len(f.cols))
	for i := range f.cols {
		cols[i] = f.cols[i].clone()
		if cols[i].Name == old {
			cols[i].Name = new
		}
	}
	return &Frame{cols: cols, n: f.n}, nil
}

// WithColumn returns a new frame containing col. An existing column of the
// same name is replaced in its position; a new column is appended, so the
// column order of the frame is otherwise preserved.
func (f *Frame) WithColumn(col Column) (*Frame, error) {
	if col.Len() != f.n && f.n != 0 {
		return nil, fmt.Errorf("column %q has %d rows, frame has %d", col.Name, col.Len(), f.n)
	}
	cols := make([]Column, 0, len(f.cols)+1)
	replaced := false
	for i := range f.cols {
		if f.cols[i].Name == col.Name {
			cols = append(cols, col)
			replaced = true
			continue
		}
		cols = append(cols, f.cols[i].clone())
	}
	if !replaced {
		cols = append(cols, col)
	}
	return &Frame{cols: cols, n: col.Len()}, nil
}

// MissingRows returns the indices of rows with at least one missing value.
func (f *Frame) MissingRows() []int {
	var rows []int
	for i := 0; i < f.n; i++ {
		for j := range f.cols {
			if f.cols[j].Missing(i) {
				rows = append(rows, i)
				break
			}
		}
	}
	return rows
}

// CoerceLevelLabels converts a categorical column whose labels are printed
// integers into a numeric column. The conversion parses each row's label;
// it never consults the position of the label in the level set, so a
// reordered level set cannot silently shift the values.
func (f *Frame) CoerceLevelLabels(name string) (*Frame, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Categorical {
		return nil, fmt.Errorf("column %q is already numeric", name)
	}
	nums := make([]float64, f.n)
	for i, label := range c.Labels {
		if label == "" {
			nums[i] = math.NaN()
			continue
		}
		v, err := strconv.Atoi(label)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: label %q is not an integer: %w", name, i, label, err)
		}
		nums[i] = float64(v)
	}
	return f.WithColumn(Column{Name: name, Kind: Numeric, Nums: nums})
}
