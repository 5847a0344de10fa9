package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/expr-lang/expr"
)

// Query keeps the rows for which cond evaluates to true. Columns are bound by name;
// names that are not identifiers can be reached as $env["Column Name"].
// Missing numbers compare as NaN, so every comparison against them is false.
func (f *Frame) Query(cond string) (*Frame, error) {
	env := make(map[string]any, len(f.cols))
	for _, c := range f.cols {
		env[c.name] = c.zero()
	}
	prog, err := expr.Compile(cond, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", cond, err)
	}
	var keep []int
	for i := 0; i < f.Len(); i++ {
		for _, c := range f.cols {
			env[c.name] = c.cell(i)
		}
		out, err := expr.Run(prog, env)
		if err != nil {
			return nil, fmt.Errorf("query %q at row %s: %w", cond, f.labels[i], err)
		}
		if ok, _ := out.(bool); ok {
			keep = append(keep, i)
		}
	}
	return f.take(keep), nil
}

func (s *Series) zero() any {
	switch s.kind {
	case KindNumeric:
		return 0.0
	case KindDatetime:
		return time.Time{}
	default:
		return ""
	}
}

func (s *Series) cell(i int) any {
	if !s.valid[i] {
		if s.kind == KindNumeric {
			return math.NaN()
		}
		return s.zero()
	}
	return s.At(i)
}

// SortBy orders rows by one column, ascending unless asc is false. Missing values sort last
// and ties keep their original order.
func (f *Frame) SortBy(col string, asc ...bool) (*Frame, error) {
	c, err := f.Col(col)
	if err != nil {
		return nil, err
	}
	ascending := len(asc) == 0 || asc[0]
	idx := seq(0, f.Len())
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if !c.valid[i] || !c.valid[j] {
			return c.valid[i] && !c.valid[j]
		}
		if ascending {
			return c.compare(i, j) < 0
		}
		return c.compare(i, j) > 0
	})
	return f.take(idx), nil
}

// DropNA removes every row with at least one missing value.
func (f *Frame) DropNA() *Frame {
	var keep []int
	for i := 0; i < f.Len(); i++ {
		ok := true
		for _, c := range f.cols {
			if !c.valid[i] {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return f.take(keep)
}

var describeRows = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe summarizes every numeric column.
func (f *Frame) Describe() (*Frame, error) {
	nums := f.numericCols()
	if len(nums) == 0 {
		return nil, errors.New("describe: no numeric columns")
	}
	cols := make([]*Series, 0, len(nums))
	for _, c := range nums {
		vals := c.present()
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		lo, hi := math.NaN(), math.NaN()
		if len(sorted) > 0 {
			lo, hi = sorted[0], sorted[len(sorted)-1]
		}
		stats := []float64{
			float64(len(vals)), mean(vals), sampleStd(vals), lo,
			quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75), hi,
		}
		s := NewNumeric(c.name, stats, nil)
		cols = append(cols, s.withLabels(describeRows))
	}
	return New(cols...)
}

// ValueCounts counts the distinct values of one column.
func (f *Frame) ValueCounts(col string) (*Series, error) {
	c, err := f.Col(col)
	if err != nil {
		return nil, err
	}
	return c.ValueCounts().Rename(col), nil
}

// NullCounts returns the number of missing values per column.
func (f *Frame) NullCounts() *Series {
	return f.perColumn("nulls", f.cols, func(c *Series) float64 { return float64(c.NullCount()) })
}

// Count returns the number of present values per column.
func (f *Frame) Count() *Series {
	return f.perColumn("count", f.cols, func(c *Series) float64 { return float64(c.Count()) })
}

func (f *Frame) Mean() *Series {
	return f.perColumn("mean", f.numericCols(), func(c *Series) float64 { return mean(c.present()) })
}

func (f *Frame) Sum() *Series {
	return f.perColumn("sum", f.numericCols(), func(c *Series) float64 { return sum(c.present()) })
}

func (f *Frame) Median() *Series {
	return f.perColumn("median", f.numericCols(), func(c *Series) float64 {
		vals := c.present()
		sort.Float64s(vals)
		return quantile(vals, 0.5)
	})
}

func (f *Frame) Std() *Series {
	return f.perColumn("std", f.numericCols(), func(c *Series) float64 { return sampleStd(c.present()) })
}

func (f *Frame) perColumn(name string, cols []*Series, fn func(*Series) float64) *Series {
	vals := make([]float64, len(cols))
	labels := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = fn(c)
		labels[i] = c.name
	}
	return NewNumeric(name, vals, nil).withLabels(labels)
}

// Corr is the pairwise Pearson correlation matrix of the numeric columns.
func (f *Frame) Corr() (*Frame, error) {
	nums := f.numericCols()
	if len(nums) == 0 {
		return nil, errors.New("corr: no numeric columns")
	}
	labels := make([]string, len(nums))
	for i, c := range nums {
		labels[i] = c.name
	}
	cols := make([]*Series, len(nums))
	for j, cj := range nums {
		vals := make([]float64, len(nums))
		for i, ci := range nums {
			if i == j {
				vals[i] = 1
				if ci.Count() < 2 {
					vals[i] = math.NaN()
				}
				continue
			}
			vals[i] = pearson(ci, cj)
		}
		cols[j] = NewNumeric(cj.name, vals, nil).withLabels(labels)
	}
	return New(cols...)
}

// Round rounds every numeric column to the given number of decimal places.
func (f *Frame) Round(digits int) *Frame {
	cols := make([]*Series, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c
		if c.kind == KindNumeric {
			cols[i], _ = c.Round(digits)
		}
	}
	return mustNew(cols)
}

// WhereNull keeps the rows where col is missing.
func (f *Frame) WhereNull(col string) (*Frame, error) {
	c, err := f.Col(col)
	if err != nil {
		return nil, err
	}
	var keep []int
	for i := 0; i < f.Len(); i++ {
		if !c.valid[i] {
			keep = append(keep, i)
		}
	}
	return f.take(keep), nil
}
