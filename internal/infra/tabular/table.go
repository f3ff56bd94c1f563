package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned by Read for file names other than .csv and .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")

// Table is a header row and the data rows below it. Data rows may be shorter
// than the header; missing cells read as empty. Lines[i] is the 1-based line
// (or sheet row) Rows[i] came from, so blank rows never shift it.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	Lines  []int
}

// Read parses an export, picking the format from the file name extension.
func Read(name string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(name, r)
	case ".xlsx":
		return ReadXLSX(name, r)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
}

func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	// encoding/csv skips empty lines, so positions come from the reader.
	var records [][]string
	var lines []int
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return newTable(name, records, lines)
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(name string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], name, err)
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return newTable(name, rows, lines)
}

func newTable(name string, records [][]string, lines []int) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", name)
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := &Table{Name: name, Header: header}
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
		t.Lines = append(t.Lines, lines[i+1])
	}
	return t, nil
}

// Column returns the index of the header equal to name, ignoring case, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at row, col or "" if the row is short.
func (t *Table) Cell(row, col int) string {
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// unnamed reports header cells left by index columns or blank headings.
func unnamed(h string) bool {
	return h == "" || strings.HasPrefix(h, "Unnamed")
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}
