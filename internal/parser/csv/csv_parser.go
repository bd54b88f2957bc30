// Package csv parses delimited table exports into generic records. The whole
// input is read into memory; exports handled here are bounded in size.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"orderreport/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing ASCII spaces from each field value.
	TrimSpace bool

	// ExpectedFields, when > 0 and there is no header, names columns col_0..N
	// and enforces that width.
	ExpectedFields int

	// HeaderMap maps source header names to canonical keys. Only applies when
	// HasHeader is true.
	HeaderMap map[string]string

	// NullTokens are cell values read as null in addition to the empty
	// string (database exports commonly write NULL).
	NullTokens []string

	// LogLimit caps how many skipped rows are logged individually. Zero means
	// the default of 20.
	LogLimit int
}

// Table is the parsed form of one input file.
type Table struct {
	// Header holds the canonical column names in file order.
	Header  []string
	Records []records.Record
	// Skipped counts rows dropped for parse errors or a field-count mismatch.
	Skipped int
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct {
	opt   Options
	nulls map[string]struct{}
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	nulls := make(map[string]struct{}, len(opt.NullTokens))
	for _, t := range opt.NullTokens {
		nulls[t] = struct{}{}
	}
	return &Parser{opt: opt, nulls: nulls}
}

// Parse consumes all CSV records from r. Rows that fail to parse or have the
// wrong width are skipped and counted; only a header read failure is fatal.
func (p *Parser) Parse(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced below so that a bad row is skipped, not fatal.
	cr.FieldsPerRecord = -1

	var t Table

	if p.opt.HasHeader {
		h, err := cr.Read()
		if err == io.EOF {
			return t, fmt.Errorf("read csv header: empty input")
		}
		if err != nil {
			return t, fmt.Errorf("read csv header: %w", err)
		}
		t.Header = normalizeHeaders(h, p.opt)
	} else if p.opt.ExpectedFields > 0 {
		t.Header = make([]string, p.opt.ExpectedFields)
		for i := range t.Header {
			t.Header[i] = fmt.Sprintf("col_%d", i)
		}
	}

	limit := p.opt.LogLimit
	if limit <= 0 {
		limit = 20
	}
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if t.Skipped < limit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			t.Skipped++
			continue
		}

		if len(t.Header) > 0 && len(row) != len(t.Header) {
			if t.Skipped < limit {
				log.Printf("csv: skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(t.Header), len(row))
			}
			t.Skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keyFor(i, t.Header)] = p.cell(val)
		}
		t.Records = append(t.Records, rec)
	}
	if t.Skipped > limit {
		log.Printf("csv: %d more skipped rows not logged", t.Skipped-limit)
	}

	return t, nil
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

// cell converts empty strings and configured null tokens to nil.
func (p *Parser) cell(s string) any {
	if s == "" {
		return nil
	}
	if _, ok := p.nulls[s]; ok {
		return nil
	}
	return s
}
