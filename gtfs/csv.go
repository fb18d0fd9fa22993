package gtfs

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SchemaError reports required columns missing from a table's header row.
// It fails the load of that single table only.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// TableReader reads one delimited table with a header row. Header matching
// is case-insensitive and order-independent. Rows too short to carry every
// required column are skipped and counted, not fatal. Field values have
// surrounding quotes stripped by the csv layer.
//
// A TableReader holds no shared state; independent tables can be read
// concurrently.
type TableReader struct {
	name    string
	r       *csv.Reader
	cols    map[string]int
	minLen  int
	row     []string
	rowNum  int
	skipped int
}

// NewTableReader consumes the header row and resolves the required column
// indices. A missing required column returns a *SchemaError naming every
// absent field.
func NewTableReader(name string, r io.Reader, required []string) (*TableReader, error) {
	cr := bomAwareCSVReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("table %s: no header row", name)
	} else if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	minLen := 0
	for _, col := range required {
		i, ok := cols[strings.ToLower(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		if i+1 > minLen {
			minLen = i + 1
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Table: name, Missing: missing}
	}
	return &TableReader{name: name, r: cr, cols: cols, minLen: minLen}, nil
}

// Next advances to the next usable data row. Blank and short rows are
// skipped and counted as malformed.
func (t *TableReader) Next() bool {
	for {
		row, err := t.r.Read()
		if err == io.EOF {
			t.row = nil
			return false
		}
		if err != nil {
			// A row the csv layer cannot tokenize is malformed, not fatal.
			t.skipped++
			continue
		}
		t.rowNum++
		if len(row) < t.minLen {
			t.skipped++
			continue
		}
		t.row = row
		return true
	}
}

// Field returns the named column's value for the current row, or "" when
// the column is absent from the table or the row is too short to reach it.
func (t *TableReader) Field(col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[i])
}

// FieldOr returns the named column's value or def when empty.
func (t *TableReader) FieldOr(col, def string) string {
	if v := t.Field(col); v != "" {
		return v
	}
	return def
}

// MarkSkipped counts the current row as malformed. Callers use it when a
// value fails the numeric policy or a required identity field is empty.
func (t *TableReader) MarkSkipped() { t.skipped++ }

// Skipped is the number of malformed rows encountered so far.
func (t *TableReader) Skipped() int { return t.skipped }

// RowNumber is the 1-based data row number of the current row.
func (t *TableReader) RowNumber() int { return t.rowNum }

// Name is the table name given at construction.
func (t *TableReader) Name() string { return t.name }

// bomAwareCSVReader strips a UTF byte order mark before handing the stream
// to encoding/csv. GTFS exports from Windows tooling frequently carry one.
func bomAwareCSVReader(r io.Reader) *csv.Reader {
	transformer := unicode.BOMOverride(encoding.Nop.NewDecoder())
	return csv.NewReader(transform.NewReader(r, transformer))
}
