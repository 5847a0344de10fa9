package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Series is a single labelled column. Values are never mutated after construction.
type Series struct {
	name   string
	kind   Kind
	labels []string
	nums   []float64
	times  []time.Time
	strs   []string
	valid  []bool
}

// NewNumeric builds a numeric series. A nil valid mask marks every non-NaN value as present.
func NewNumeric(name string, vals []float64, valid []bool) *Series {
	n := len(vals)
	s := &Series{name: name, kind: KindNumeric, labels: defaultLabels(n), nums: append([]float64(nil), vals...), valid: make([]bool, n)}
	for i, v := range vals {
		s.valid[i] = !math.IsNaN(v) && (valid == nil || valid[i])
	}
	return s
}

// NewStrings builds a categorical or text series; kind is inferred the same way as on load.
func NewStrings(name string, vals []string, valid []bool) *Series {
	n := len(vals)
	s := &Series{name: name, labels: defaultLabels(n), strs: append([]string(nil), vals...), valid: make([]bool, n)}
	uniq := map[string]struct{}{}
	nonNull := 0
	long := false
	for i, v := range vals {
		s.valid[i] = valid == nil || valid[i]
		if !s.valid[i] {
			continue
		}
		nonNull++
		uniq[v] = struct{}{}
		if len(v) > maxCategoryLen {
			long = true
		}
	}
	switch {
	case nonNull == 0:
		s.kind = KindUnknown
	case !long && len(uniq)*2 <= nonNull:
		s.kind = KindCategorical
	default:
		s.kind = KindText
	}
	return s
}

func defaultLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

var errNotNumeric = errors.New("not numeric")

func (s *Series) Name() string { return s.name }

func (s *Series) Kind() Kind { return s.kind }

// Labels returns a copy of the row labels.
func (s *Series) Labels() []string { return append([]string(nil), s.labels...) }

func (s *Series) Len() int { return len(s.valid) }

// Count returns the number of non-null values.
func (s *Series) Count() int {
	c := 0
	for _, ok := range s.valid {
		if ok {
			c++
		}
	}
	return c
}

func (s *Series) NullCount() int { return s.Len() - s.Count() }

// IsNull reports whether row i is missing.
func (s *Series) IsNull(i int) bool { return !s.valid[i] }

// At returns the value at row position i: float64, time.Time, string, or nil when missing.
func (s *Series) At(i int) any {
	if i < 0 || i >= s.Len() || !s.valid[i] {
		return nil
	}
	switch s.kind {
	case KindNumeric:
		return s.nums[i]
	case KindDatetime:
		return s.times[i]
	default:
		return s.strs[i]
	}
}

// Values returns every value in row order, with nil for missing entries.
func (s *Series) Values() []any {
	out := make([]any, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// Text formats row i the way previews print it; missing values read "NaN".
func (s *Series) Text(i int) string { return s.text(i) }

func (s *Series) text(i int) string {
	if !s.valid[i] {
		return "NaN"
	}
	switch s.kind {
	case KindNumeric:
		return formatFloat(s.nums[i])
	default:
		return s.strs[i]
	}
}

func (s *Series) present() []float64 {
	out := make([]float64, 0, len(s.nums))
	for i, v := range s.nums {
		if s.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

func (s *Series) numeric(op string) ([]float64, error) {
	if s.kind != KindNumeric {
		return nil, fmt.Errorf("%s: column %q is %s: %w", op, s.name, s.kind, errNotNumeric)
	}
	return s.present(), nil
}

func (s *Series) Sum() (float64, error) {
	vals, err := s.numeric("sum")
	if err != nil {
		return 0, err
	}
	return sum(vals), nil
}

// Mean returns NaN for a series without values.
func (s *Series) Mean() (float64, error) {
	vals, err := s.numeric("mean")
	if err != nil {
		return 0, err
	}
	return mean(vals), nil
}

// Std is the sample standard deviation (n-1).
func (s *Series) Std() (float64, error) {
	vals, err := s.numeric("std")
	if err != nil {
		return 0, err
	}
	return sampleStd(vals), nil
}

func (s *Series) Median() (float64, error) {
	return s.Quantile(0.5)
}

// Quantile uses linear interpolation between closest ranks.
func (s *Series) Quantile(q float64) (float64, error) {
	vals, err := s.numeric("quantile")
	if err != nil {
		return 0, err
	}
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("quantile: q must be within [0, 1], got %v", q)
	}
	if len(vals) == 0 {
		return math.NaN(), nil
	}
	sort.Float64s(vals)
	return quantile(vals, q), nil
}

// Min returns the smallest value: numbers compare numerically, dates chronologically, text lexically.
func (s *Series) Min() (any, error) { return s.extreme(-1) }

func (s *Series) Max() (any, error) { return s.extreme(1) }

func (s *Series) extreme(sign int) (any, error) {
	best := -1
	for i := 0; i < s.Len(); i++ {
		if !s.valid[i] {
			continue
		}
		if best < 0 || s.compare(i, best)*sign > 0 {
			best = i
		}
	}
	if best < 0 {
		if s.kind == KindNumeric {
			return math.NaN(), nil
		}
		return nil, nil
	}
	return s.At(best), nil
}

// compare orders two present rows; it returns -1, 0 or 1.
func (s *Series) compare(i, j int) int {
	switch s.kind {
	case KindNumeric:
		return cmpFloat(s.nums[i], s.nums[j])
	case KindDatetime:
		return s.times[i].Compare(s.times[j])
	default:
		return strings.Compare(s.strs[i], s.strs[j])
	}
}

// Unique returns the distinct present values in order of first appearance.
func (s *Series) Unique() []any {
	seen := map[string]struct{}{}
	var out []any
	for i := 0; i < s.Len(); i++ {
		if !s.valid[i] {
			continue
		}
		k := s.text(i)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s.At(i))
	}
	return out
}

func (s *Series) NUnique() int { return len(s.Unique()) }

// ValueCounts counts each distinct present value, most frequent first; ties are ordered by value.
func (s *Series) ValueCounts() *Series {
	counts := map[string]int{}
	first := map[string]int{}
	for i := 0; i < s.Len(); i++ {
		if !s.valid[i] {
			continue
		}
		k := s.text(i)
		if _, ok := counts[k]; !ok {
			first[k] = i
		}
		counts[k]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if counts[keys[a]] != counts[keys[b]] {
			return counts[keys[a]] > counts[keys[b]]
		}
		return s.compare(first[keys[a]], first[keys[b]]) < 0
	})
	vals := make([]float64, len(keys))
	for i, k := range keys {
		vals[i] = float64(counts[k])
	}
	out := NewNumeric("count", vals, nil)
	out.labels = keys
	return out
}

// Head returns the first n values (5 when n is omitted).
func (s *Series) Head(n ...int) *Series {
	k := clampCount(firstOr(n, 5), s.Len())
	return s.take(seq(0, k))
}

func (s *Series) Tail(n ...int) *Series {
	k := clampCount(firstOr(n, 5), s.Len())
	return s.take(seq(s.Len()-k, s.Len()))
}

// Round rounds numeric values to the given number of decimal places.
func (s *Series) Round(digits int) (*Series, error) {
	if _, err := s.numeric("round"); err != nil {
		return nil, err
	}
	out := s.take(seq(0, s.Len()))
	for i, v := range out.nums {
		out.nums[i] = roundTo(v, digits)
	}
	return out, nil
}

// Rename returns a copy carrying a new name.
func (s *Series) Rename(name string) *Series {
	out := s.take(seq(0, s.Len()))
	out.name = name
	return out
}

func (s *Series) take(idx []int) *Series {
	out := &Series{name: s.name, kind: s.kind, labels: make([]string, len(idx)), valid: make([]bool, len(idx))}
	if s.nums != nil {
		out.nums = make([]float64, len(idx))
	}
	if s.times != nil {
		out.times = make([]time.Time, len(idx))
	}
	if s.strs != nil {
		out.strs = make([]string, len(idx))
	}
	for j, i := range idx {
		out.labels[j] = s.labels[i]
		out.valid[j] = s.valid[i]
		if s.nums != nil {
			out.nums[j] = s.nums[i]
		}
		if s.times != nil {
			out.times[j] = s.times[i]
		}
		if s.strs != nil {
			out.strs[j] = s.strs[i]
		}
	}
	return out
}

func (s *Series) withLabels(labels []string) *Series {
	s.labels = labels
	return s
}

func (s *Series) String() string {
	return renderRows([]string{"", s.name}, s.Len(), func(i int) []string {
		return []string{s.labels[i], s.text(i)}
	}) + fmt.Sprintf("\nName: %s, Length: %d, Kind: %s", s.name, s.Len(), s.kind)
}

func firstOr(n []int, def int) int {
	if len(n) > 0 {
		return n[0]
	}
	return def
}

func clampCount(k, n int) int {
	if k < 0 {
		k = n + k
	}
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
