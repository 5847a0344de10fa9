// Package frame holds a typed, immutable in-memory table and the read-only
// operations the assistant's query language exposes over it.
package frame

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty is returned when the input has no header row.
	ErrEmpty = errors.New("frame: empty input")
	// ErrUnsupported is returned for file types that cannot be loaded.
	ErrUnsupported = errors.New("frame: unsupported file type")
	// ErrNoColumn is returned when a referenced column does not exist.
	ErrNoColumn = errors.New("frame: no such column")
)

// Frame is an ordered set of equal-length columns sharing row labels.
type Frame struct {
	cols   []*Series
	index  map[string]int
	labels []string
}

// ColumnInfo summarizes one column for schema descriptions.
type ColumnInfo struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	NonNull  int    `json:"non_null"`
	Missing  int    `json:"missing"`
}

// New assembles a frame from series of equal length. Row labels are taken from the first column.
func New(cols ...*Series) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("frame: column %d is nil", i)
		}
		if i > 0 && c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("frame: column %q has %d rows, want %d", c.name, c.Len(), cols[0].Len())
		}
		if _, dup := f.index[c.name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", c.name)
		}
		f.index[c.name] = i
	}
	if len(cols) > 0 {
		f.labels = cols[0].Labels()
	}
	f.cols = make([]*Series, len(cols))
	for i, c := range cols {
		f.cols[i] = c.take(seq(0, c.Len())).withLabels(f.labels)
	}
	return f, nil
}

func mustNew(cols []*Series) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.labels) }

// Shape returns [rows, columns].
func (f *Frame) Shape() []int { return []int{f.Len(), len(f.cols)} }

func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.name
	}
	return out
}

// Labels returns a copy of the row labels.
func (f *Frame) Labels() []string { return append([]string(nil), f.labels...) }

func (f *Frame) Schema() []ColumnInfo {
	out := make([]ColumnInfo, len(f.cols))
	for i, c := range f.cols {
		nn := c.Count()
		out[i] = ColumnInfo{Position: i, Name: c.name, Kind: c.kind, NonNull: nn, Missing: c.Len() - nn}
	}
	return out
}

// Col returns the named column.
func (f *Frame) Col(name string) (*Series, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, f.noColumn(name)
	}
	return f.cols[i], nil
}

func (f *Frame) noColumn(name string) error {
	return fmt.Errorf("%w: %q (available: %s)", ErrNoColumn, name, strings.Join(f.Columns(), ", "))
}

// At returns the value at a row position and column.
func (f *Frame) At(row int, col string) (any, error) {
	c, err := f.Col(col)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= f.Len() {
		return nil, fmt.Errorf("frame: row %d out of range [0, %d)", row, f.Len())
	}
	return c.At(row), nil
}

// Select keeps the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Series, 0, len(names))
	for _, n := range names {
		c, err := f.Col(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return nil, errors.New("frame: select needs at least one column")
	}
	return New(cols...)
}

// Head returns the first n rows (5 when n is omitted).
func (f *Frame) Head(n ...int) *Frame {
	k := clampCount(firstOr(n, 5), f.Len())
	return f.take(seq(0, k))
}

func (f *Frame) Tail(n ...int) *Frame {
	k := clampCount(firstOr(n, 5), f.Len())
	return f.take(seq(f.Len()-k, f.Len()))
}

func (f *Frame) take(idx []int) *Frame {
	out := &Frame{index: f.index, cols: make([]*Series, len(f.cols)), labels: make([]string, len(idx))}
	for j, i := range idx {
		out.labels[j] = f.labels[i]
	}
	for i, c := range f.cols {
		out.cols[i] = c.take(idx).withLabels(out.labels)
	}
	return out
}

func (f *Frame) numericCols() []*Series {
	var out []*Series
	for _, c := range f.cols {
		if c.kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

func (f *Frame) String() string {
	header := append([]string{""}, f.Columns()...)
	body := renderRows(header, f.Len(), func(i int) []string {
		row := make([]string, 0, len(f.cols)+1)
		row = append(row, f.labels[i])
		for _, c := range f.cols {
			row = append(row, c.text(i))
		}
		return row
	})
	return body + fmt.Sprintf("\n[%d rows x %d columns]", f.Len(), len(f.cols))
}
