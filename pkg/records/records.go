// Package records defines the generic, loosely typed row produced by the
// parsers and consumed by the record-level transformers.
package records

// Record is one parsed row keyed by canonical column name. Empty cells are
// stored as nil.
type Record map[string]any

// String returns the value for key as a string. Non-string values and nil
// yield "" and false.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
