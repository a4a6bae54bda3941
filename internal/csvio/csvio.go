// Package csvio reads and writes the vendor CSV dialects this service
// deals with: semicolon- or tab-separated exports, latin-1 encoded files,
// BOM-prefixed headers. It resolves all of that up front so the pipeline
// only ever sees clean column-keyed rows.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/axsol/varconfig/internal/pipeline"
)

// Read parses a variables CSV from r. The delimiter is sniffed from the
// header line (tab, then semicolon, then comma) and non-UTF-8 input is
// decoded as latin-1, matching what vendor tools actually export.
func Read(r io.Reader) ([]string, []pipeline.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}
	data = decode(data)

	headerLine, _, _ := bytes.Cut(data, []byte("\n"))
	delim := SniffDelimiter(string(headerLine))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = CleanHeader(h)
	}

	rows := make([]pipeline.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isEmptyRecord(rec) {
			continue
		}
		row := make(pipeline.Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = CleanCell(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// Write emits rows under the given column order using the delimiter.
// Missing cells are written as empty strings.
func Write(w io.Writer, columns []string, rows []pipeline.Row, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	rec := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			rec[i] = row[col]
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SniffDelimiter picks the field delimiter from a header line. Tab wins
// over semicolon, semicolon over comma; comma is the fallback.
func SniffDelimiter(headerLine string) rune {
	switch {
	case strings.ContainsRune(headerLine, '\t'):
		return '\t'
	case strings.ContainsRune(headerLine, ';'):
		return ';'
	default:
		return ','
	}
}

// decode strips a UTF-8 BOM and re-decodes latin-1 content. Latin-1 maps
// every byte to a rune, so the fallback cannot fail.
func decode(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return data
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return out
}

// CleanHeader normalizes a header cell: trims whitespace and surrounding
// quotes.
func CleanHeader(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// CleanCell removes common CSV artifacts from a cell value:
// surrounding whitespace and the Excel formula prefix (="...").
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	}
	return s
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
