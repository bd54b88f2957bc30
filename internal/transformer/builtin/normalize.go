package builtin

import (
	"strings"

	"orderreport/pkg/records"
)

const nbspace = "\u00a0"

// Normalize trims string cells and replaces no-break spaces (including the
// "\u00c2\u00a0" mojibake left by latin-1 round trips) with plain spaces.
type Normalize struct{}

func (Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			s, ok := v.(string)
			if !ok {
				continue
			}
			s = strings.ReplaceAll(s, "\u00c2"+nbspace, " ")
			s = strings.ReplaceAll(s, nbspace, " ")
			r[k] = strings.TrimSpace(s)
		}
	}
	return in
}

// Lower lowercases the listed string fields in place.
type Lower struct {
	Fields []string
}

func (l Lower) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for _, f := range l.Fields {
			if s, ok := r.String(f); ok {
				r[f] = strings.ToLower(s)
			}
		}
	}
	return in
}
