package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// LoadError reports a dataset that cannot be used at all: missing file,
// unreadable content, or a header without the schema's columns.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataset %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a CSV file into records following the schema. Cell-level
// problems (unparseable numbers, empty categories) do not fail the load;
// they are marked on the record and rejected later by the cleaning rules.
func Load(path string, schema Schema, encoding string) ([]Record, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "open failed", Err: err}
	}
	defer file.Close()

	reader, err := decodingReader(file, encoding)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "unsupported encoding", Err: err}
	}

	rows, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "parse failed", Err: err}
	}
	if len(rows) < 2 {
		return nil, &LoadError{Path: path, Reason: "need a header and at least one row"}
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	required := append(append([]string{schema.Target}, schema.Numeric...), schema.Categorical...)
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, &LoadError{Path: path, Reason: fmt.Sprintf("missing column %q", col)}
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := Record{
			Numeric:     make(map[string]float64, len(schema.Numeric)),
			Categorical: make(map[string]string, len(schema.Categorical)),
			HasTarget:   true,
		}
		record.Target = parseCell(row, index[schema.Target])
		for _, col := range schema.Numeric {
			record.Numeric[col] = parseCell(row, index[col])
		}
		for _, col := range schema.Categorical {
			record.Categorical[col] = strings.TrimSpace(cell(row, index[col]))
		}
		records = append(records, record)
	}
	return records, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseCell returns NaN for anything that is not a number; the cleaning
// rules treat NaN as a missing value.
func parseCell(row []string, idx int) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx)), 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "latin-1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "gbk":
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}
