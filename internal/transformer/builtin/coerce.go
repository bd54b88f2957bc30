package builtin

import (
	"strconv"
	"time"

	"orderreport/pkg/records"
)

// Coerce converts string fields to typed values in place. A value that does
// not parse is left as the original string; callers decide what a leftover
// string means for a typed column.
type Coerce struct {
	Types map[string]string // field -> one of: int, bool, date, string

	// Layouts are tried in order for "date" fields.
	Layouts []string

	// Location is used for layouts without a zone. Nil means UTC.
	Location *time.Location
}

func (c Coerce) Apply(in []records.Record) []records.Record {
	if len(c.Types) == 0 {
		return in
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, r := range in {
		for field, typ := range c.Types {
			s, ok := r.String(field)
			if !ok {
				continue
			}
			switch typ {
			case "int":
				if i, err := strconv.Atoi(s); err == nil {
					r[field] = i
				}
			case "bool":
				if b, err := strconv.ParseBool(s); err == nil {
					r[field] = b
				}
			case "date":
				for _, layout := range c.Layouts {
					if t, err := time.ParseInLocation(layout, s, loc); err == nil {
						r[field] = t
						break
					}
				}
			case "string":
				// already string
			}
		}
	}
	return in
}
