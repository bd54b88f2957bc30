package transformer

import (
	"reflect"
	"testing"

	"orderreport/pkg/records"
)

/*
addFieldTransformer mutates each record in place by setting key -> value.
Used to verify mutation flows through Chain.
*/
type addFieldTransformer struct {
	key string
	val any
}

func (t addFieldTransformer) Apply(in []records.Record) []records.Record {
	for i := range in {
		in[i][t.key] = t.val
	}
	return in
}

func TestChainApply_Composition_Order(t *testing.T) {
	in := []records.Record{{"order_id": "1"}}
	c := Chain{
		addFieldTransformer{key: "a", val: "first"},
		addFieldTransformer{key: "a", val: "second"},
		Func(func(rs []records.Record) []records.Record {
			for _, r := range rs {
				r["b"] = r["a"]
			}
			return rs
		}),
	}
	out := c.Apply(in)

	want := records.Record{"order_id": "1", "a": "second", "b": "second"}
	if !reflect.DeepEqual(out[0], want) {
		t.Fatalf("composition mismatch:\n got: %#v\nwant: %#v", out[0], want)
	}
}

func TestChainApply_FilterDropsRecords(t *testing.T) {
	in := []records.Record{{"keep": true}, {"keep": false}, {"keep": true}}
	c := Chain{Func(func(rs []records.Record) []records.Record {
		out := rs[:0]
		for _, r := range rs {
			if r["keep"] == true {
				out = append(out, r)
			}
		}
		return out
	})}
	if got := c.Apply(in); len(got) != 2 {
		t.Fatalf("len(out)=%d; want 2", len(got))
	}
}

func TestChainApply_NilChain(t *testing.T) {
	in := []records.Record{{"id": "1"}}
	var c Chain
	out := c.Apply(in)
	if len(out) != 1 || &out[0] != &in[0] {
		t.Fatalf("nil chain should return the input slice unchanged")
	}
}
