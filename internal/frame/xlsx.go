package frame

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// readXLSX returns the rows of one worksheet, header first. Cells are returned as
// their stored text; shared strings are resolved. Blank rows are skipped.
func readXLSX(file, sheetName string, sheetIndex int) ([][]string, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets := parseWorkbook(zipEntry(zr, "xl/workbook.xml"))
	rels := parseRelationships(zipEntry(zr, "xl/_rels/workbook.xml.rels"))
	shared := parseSharedStrings(zipEntry(zr, "xl/sharedStrings.xml"))

	target := ""
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, sheetName) {
				target = normalizeRelPath(rels[s.RID])
				break
			}
		}
		if target == "" {
			names := make([]string, len(sheets))
			for i, s := range sheets {
				names[i] = s.Name
			}
			return nil, fmt.Errorf("sheet %q not found in %s (available: %s)", sheetName, filepath.Base(file), strings.Join(names, ", "))
		}
	} else {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range sheets {
			if s.SheetID == idx {
				target = normalizeRelPath(rels[s.RID])
				break
			}
		}
		if target == "" || target == "xl" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
		}
	}
	data := zipEntry(zr, target)
	if data == nil {
		return nil, fmt.Errorf("xlsx: worksheet %s missing", target)
	}
	rr := newSheetRowReader(data, shared)
	var rows [][]string
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		if blankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

func parseWorkbook(data []byte) []wbSheet {
	var sheets []wbSheet
	eachStart(data, "sheet", func(se xml.StartElement) {
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	})
	return sheets
}

// parseRelationships maps relationship ids to their targets.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	eachStart(data, "Relationship", func(se xml.StartElement) {
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func eachStart(data []byte, local string, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == local {
			fn(se)
		}
	}
}

func zipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inT := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams <row> elements of a worksheet.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRowReader) Next() ([]string, bool) {
	var row []string
	inRow := false
	next := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow, row, next = true, nil, 0
				continue
			}
			if !inRow || se.Name.Local != "c" {
				continue
			}
			var ref, typ string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				}
			}
			col := next
			if c := colIndexFromRef(ref); ref != "" && c >= 0 {
				col = c
			}
			next = col + 1
			for len(row) <= col {
				row = append(row, "")
			}
			row[col] = r.cellValue(typ)
		case xml.EndElement:
			if inRow && se.Name.Local == "row" {
				return row, true
			}
		}
	}
}

// cellValue consumes the rest of a <c> element and returns its text.
func (r *sheetRowReader) cellValue(typ string) string {
	var val strings.Builder
	capture := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = true
			}
		case xml.CharData:
			if capture {
				val.Write(se)
			}
		case xml.EndElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = false
			}
			if se.Name.Local == "c" {
				if typ == "s" {
					idx := atoiSafe(val.String())
					if idx >= 0 && idx < len(r.shared) {
						return r.shared[idx]
					}
					return ""
				}
				return val.String()
			}
		}
	}
	return val.String()
}

// colIndexFromRef converts a cell reference such as "C12" to a 0-based column index.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath turns a workbook relationship target into a zip entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
