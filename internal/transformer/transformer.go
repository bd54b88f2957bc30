// Package transformer defines record-level transforms applied to parsed
// input tables before they are turned into typed order rows.
package transformer

import "orderreport/pkg/records"

// Transformer rewrites a batch of records. Implementations may filter in
// place by reslicing the input.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Func adapts a plain function to Transformer.
type Func func([]records.Record) []records.Record

func (f Func) Apply(in []records.Record) []records.Record { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
