package frame

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumeric
	KindDatetime
	KindCategorical
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDatetime:
		return "datetime"
	case KindCategorical:
		return "categorical"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// maxCategoryLen bounds the length of a value that may still be treated as a category label.
const maxCategoryLen = 64

// predominance is the share of non-null cells that must parse as a type for the column to take it.
// Cells that do not parse are then treated as missing.
const predominance = 0.9

var nullTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric accepts locale formatted numbers ("1.234,5", "1,234.5", "12 %").
// A zero decimal separator means auto-detect per value.
func parseNumeric(s string, decimal, thousands rune) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec, thou := decimal, thousands
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// inferSeries decides the kind of a raw text column and builds the typed series.
func inferSeries(name string, raw []string, opt LoadOptions) *Series {
	n := len(raw)
	nums := make([]float64, n)
	times := make([]time.Time, n)
	valid := make([]bool, n)
	numOK := make([]bool, n)
	timeOK := make([]bool, n)
	var nonNull, numCnt, timeCnt int
	long := false
	uniq := map[string]struct{}{}
	for i, v := range raw {
		if isNullToken(v) {
			continue
		}
		nonNull++
		if f, ok := parseNumeric(v, opt.DecimalSeparator, opt.ThousandsSeparator); ok {
			nums[i], numOK[i] = f, true
			numCnt++
		} else if t, ok := parseTimeMaybe(v); ok {
			times[i], timeOK[i] = t, true
			timeCnt++
		}
		if len(v) > maxCategoryLen {
			long = true
		}
		uniq[v] = struct{}{}
	}
	s := &Series{name: name, labels: defaultLabels(n)}
	threshold := predominance * float64(nonNull)
	switch {
	case nonNull == 0:
		s.kind = KindUnknown
		s.strs = make([]string, n)
		s.valid = valid
	case float64(numCnt) >= threshold:
		s.kind = KindNumeric
		s.nums = nums
		s.valid = numOK
	case float64(timeCnt) >= threshold:
		s.kind = KindDatetime
		s.times = times
		s.valid = timeOK
		s.strs = make([]string, n)
		for i := range raw {
			if timeOK[i] {
				s.strs[i] = strings.TrimSpace(raw[i])
			}
		}
	default:
		s.kind = KindText
		if !long && len(uniq)*2 <= nonNull {
			s.kind = KindCategorical
		}
		s.strs = make([]string, n)
		for i, v := range raw {
			if !isNullToken(v) {
				s.strs[i] = v
				valid[i] = true
			}
		}
		s.valid = valid
	}
	return s
}
