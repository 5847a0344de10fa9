package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Grouped is a frame split by the distinct values of one or more key columns.
// Groups are ordered by key ascending; rows with a missing key are dropped.
type Grouped struct {
	f      *Frame
	keys   []*Series
	groups []group
}

type group struct {
	label string
	rows  []int
}

type reducer func(vals []float64) float64

var reducers = map[string]reducer{
	"mean": mean,
	"sum":  sum,
	"std":  sampleStd,
	"median": func(vals []float64) float64 {
		sort.Float64s(vals)
		return quantile(vals, 0.5)
	},
	"min": func(vals []float64) float64 {
		if len(vals) == 0 {
			return math.NaN()
		}
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Min(m, v)
		}
		return m
	},
	"max": func(vals []float64) float64 {
		if len(vals) == 0 {
			return math.NaN()
		}
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Max(m, v)
		}
		return m
	},
}

// GroupBy splits rows by the values of the given columns.
func (f *Frame) GroupBy(cols ...string) (*Grouped, error) {
	if len(cols) == 0 {
		return nil, errors.New("groupby: no key columns")
	}
	g := &Grouped{f: f}
	for _, name := range cols {
		c, err := f.Col(name)
		if err != nil {
			return nil, err
		}
		g.keys = append(g.keys, c)
	}
	byLabel := map[string]int{}
	for i := 0; i < f.Len(); i++ {
		parts := make([]string, 0, len(g.keys))
		missing := false
		for _, k := range g.keys {
			if !k.valid[i] {
				missing = true
				break
			}
			parts = append(parts, k.text(i))
		}
		if missing {
			continue
		}
		label := parts[0]
		if len(parts) > 1 {
			label = "(" + strings.Join(parts, ", ") + ")"
		}
		gi, ok := byLabel[label]
		if !ok {
			gi = len(g.groups)
			byLabel[label] = gi
			g.groups = append(g.groups, group{label: label})
		}
		g.groups[gi].rows = append(g.groups[gi].rows, i)
	}
	sort.SliceStable(g.groups, func(a, b int) bool {
		i, j := g.groups[a].rows[0], g.groups[b].rows[0]
		for _, k := range g.keys {
			if c := k.compare(i, j); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return g, nil
}

// Keys returns the group labels in order.
func (g *Grouped) Keys() []string {
	out := make([]string, len(g.groups))
	for i, gr := range g.groups {
		out[i] = gr.label
	}
	return out
}

func (g *Grouped) NGroups() int { return len(g.groups) }

func (g *Grouped) String() string {
	names := make([]string, len(g.keys))
	for i, k := range g.keys {
		names[i] = k.name
	}
	return fmt.Sprintf("GroupBy(%s): %d groups; aggregate with .Mean(), .Sum(), .Count() or .Col(name)", strings.Join(names, ", "), len(g.groups))
}

// Size returns the number of rows per group.
func (g *Grouped) Size() *Series {
	vals := make([]float64, len(g.groups))
	for i, gr := range g.groups {
		vals[i] = float64(len(gr.rows))
	}
	return NewNumeric("size", vals, nil).withLabels(g.Keys())
}

func (g *Grouped) Mean(cols ...string) (*Frame, error)   { return g.Agg("mean", cols...) }
func (g *Grouped) Sum(cols ...string) (*Frame, error)    { return g.Agg("sum", cols...) }
func (g *Grouped) Min(cols ...string) (*Frame, error)    { return g.Agg("min", cols...) }
func (g *Grouped) Max(cols ...string) (*Frame, error)    { return g.Agg("max", cols...) }
func (g *Grouped) Median(cols ...string) (*Frame, error) { return g.Agg("median", cols...) }
func (g *Grouped) Std(cols ...string) (*Frame, error)    { return g.Agg("std", cols...) }
func (g *Grouped) Count(cols ...string) (*Frame, error)  { return g.Agg("count", cols...) }

// Agg applies one of mean, sum, min, max, median, std or count to each named column.
// Without names it uses every non-key column that supports the aggregation.
func (g *Grouped) Agg(fn string, cols ...string) (*Frame, error) {
	if _, ok := reducers[fn]; !ok && fn != "count" {
		return nil, fmt.Errorf("groupby: unknown aggregation %q", fn)
	}
	var targets []*Series
	if len(cols) == 0 {
		for _, c := range g.f.cols {
			if g.isKey(c) || (fn != "count" && c.kind != KindNumeric) {
				continue
			}
			targets = append(targets, c)
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("groupby %s: no columns to aggregate", fn)
		}
	}
	for _, name := range cols {
		c, err := g.f.Col(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, c)
	}
	out := make([]*Series, 0, len(targets))
	for _, c := range targets {
		s, err := g.aggregate(c, fn)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return New(out...)
}

func (g *Grouped) isKey(c *Series) bool {
	for _, k := range g.keys {
		if k == c {
			return true
		}
	}
	return false
}

func (g *Grouped) aggregate(c *Series, fn string) (*Series, error) {
	vals := make([]float64, len(g.groups))
	if fn == "count" {
		for i, gr := range g.groups {
			n := 0
			for _, r := range gr.rows {
				if c.valid[r] {
					n++
				}
			}
			vals[i] = float64(n)
		}
		return NewNumeric(c.name, vals, nil).withLabels(g.Keys()), nil
	}
	if c.kind != KindNumeric {
		return nil, fmt.Errorf("groupby %s: column %q is %s: %w", fn, c.name, c.kind, errNotNumeric)
	}
	reduce := reducers[fn]
	for i, gr := range g.groups {
		present := make([]float64, 0, len(gr.rows))
		for _, r := range gr.rows {
			if c.valid[r] {
				present = append(present, c.nums[r])
			}
		}
		vals[i] = reduce(present)
	}
	return NewNumeric(c.name, vals, nil).withLabels(g.Keys()), nil
}

// Col narrows the aggregation to a single column, producing series results.
func (g *Grouped) Col(name string) (*GroupedSeries, error) {
	c, err := g.f.Col(name)
	if err != nil {
		return nil, err
	}
	return &GroupedSeries{g: g, col: c}, nil
}

// GroupedSeries aggregates one column per group.
type GroupedSeries struct {
	g   *Grouped
	col *Series
}

func (gs *GroupedSeries) Mean() (*Series, error)   { return gs.g.aggregate(gs.col, "mean") }
func (gs *GroupedSeries) Sum() (*Series, error)    { return gs.g.aggregate(gs.col, "sum") }
func (gs *GroupedSeries) Min() (*Series, error)    { return gs.g.aggregate(gs.col, "min") }
func (gs *GroupedSeries) Max() (*Series, error)    { return gs.g.aggregate(gs.col, "max") }
func (gs *GroupedSeries) Median() (*Series, error) { return gs.g.aggregate(gs.col, "median") }
func (gs *GroupedSeries) Std() (*Series, error)    { return gs.g.aggregate(gs.col, "std") }
func (gs *GroupedSeries) Count() (*Series, error)  { return gs.g.aggregate(gs.col, "count") }

// Agg applies a named aggregation to the column.
func (gs *GroupedSeries) Agg(fn string) (*Series, error) {
	if _, ok := reducers[fn]; !ok && fn != "count" {
		return nil, fmt.Errorf("groupby: unknown aggregation %q", fn)
	}
	return gs.g.aggregate(gs.col, fn)
}

func (gs *GroupedSeries) String() string {
	return fmt.Sprintf("GroupBy(...).Col(%q): %d groups; aggregate with .Mean(), .Sum(), .Count() or .Agg(name)", gs.col.name, len(gs.g.groups))
}
