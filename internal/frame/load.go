package frame

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadOptions control parsing of delimited and spreadsheet input.
type LoadOptions struct {
	// Delimiter for CSV input; zero sniffs it from the header line.
	Delimiter rune
	// MaxRows caps the number of data rows read; zero means unlimited.
	MaxRows int
	// DecimalSeparator and ThousandsSeparator override per-value auto-detection.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects an XLSX sheet by name; SheetIndex (1-based) is used when Sheet is empty.
	Sheet      string
	SheetIndex int
}

// Load parses delimited text with a header row.
func Load(r io.Reader, opt LoadOptions) (*Frame, error) {
	br := bufio.NewReader(r)
	if opt.Delimiter == 0 {
		peek, _ := br.Peek(4096)
		line, _, _ := bytes.Cut(peek, []byte("\n"))
		opt.Delimiter = sniffDelimiter(string(line))
	}
	cr := csv.NewReader(br)
	cr.Comma = opt.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return fromRecords(header, rows, opt)
}

// LoadFile loads a .csv, .tsv or .xlsx file.
func LoadFile(path string, opt LoadOptions) (*Frame, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".tsv":
		if ext == ".tsv" && opt.Delimiter == 0 {
			opt.Delimiter = '\t'
		}
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer fh.Close()
		return Load(fh, opt)
	case ".xlsx":
		rows, err := readXLSX(path, opt.Sheet, opt.SheetIndex)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrEmpty
		}
		data := rows[1:]
		if opt.MaxRows > 0 && len(data) > opt.MaxRows {
			data = data[:opt.MaxRows]
		}
		return fromRecords(rows[0], data, opt)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

func fromRecords(header []string, rows [][]string, opt LoadOptions) (*Frame, error) {
	names := headerNames(header)
	if len(names) == 0 {
		return nil, ErrEmpty
	}
	cols := make([]*Series, len(names))
	raw := make([]string, len(rows))
	for j, name := range names {
		for i, rec := range rows {
			raw[i] = ""
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		cols[j] = inferSeries(name, raw, opt)
	}
	return New(cols...)
}

// headerNames trims header cells, names blank ones by position, and suffixes duplicates.
func headerNames(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	empty := true
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			empty = false
		}
	}
	if empty {
		return nil
	}
	seen := map[string]int{}
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// sniffDelimiter picks the most frequent candidate separator outside quotes.
func sniffDelimiter(line string) rune {
	counts := map[rune]int{}
	inQuote := false
	for _, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case ',', ';', '\t', '|':
			if !inQuote {
				counts[r]++
			}
		}
	}
	best, bestN := ',', 0
	for _, r := range []rune{',', ';', '\t', '|'} {
		if counts[r] > bestN {
			best, bestN = r, counts[r]
		}
	}
	return best
}
