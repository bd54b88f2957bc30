// Package ingest turns the three exported CSV tables into typed order rows.
//
// Each table goes through the same steps: parse, check the column contract,
// run a record-level transform chain (normalize, canonical ids, required
// keys, coercion, de-duplication) and finally map records onto the order
// types.
package ingest

import (
	"fmt"
	"io"
	"log"
	"time"

	"orderreport/internal/order"
	csvparser "orderreport/internal/parser/csv"
	"orderreport/internal/schema"
	"orderreport/internal/transformer"
	"orderreport/internal/transformer/builtin"
	"orderreport/pkg/records"
)

// Options configures how input tables are read.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune

	// NullTokens are cell values treated as null besides the empty string.
	NullTokens []string

	// DateLayouts are tried in order when parsing date_created_gmt.
	DateLayouts []string

	// Location is applied to dates without a zone; nil means UTC.
	Location *time.Location
}

// DefaultOptions returns the options used for database table exports.
func DefaultOptions() Options {
	return Options{
		Comma:       ',',
		NullTokens:  []string{"NULL", "null", "NaN", "nan", "N/A", "NA", "#N/A"},
		DateLayouts: []string{"02-01-2006 15:04", "2006-01-02 15:04:05", "2006-01-02 15:04", time.RFC3339},
	}
}

// Stats summarises what happened to one input table.
type Stats struct {
	Rows         int // parsed data rows
	Skipped      int // rows the CSV reader could not parse
	Dropped      int // rows without a usable key
	Duplicates   int // rows collapsed by last-occurrence-wins
	UnknownTypes int // address rows with a type other than billing/shipping
}

// Reader reads input tables with a fixed set of Options.
type Reader struct{ opt Options }

// New returns a Reader for opt. Nil NullTokens and empty DateLayouts take
// the values of DefaultOptions.
func New(opt Options) *Reader {
	def := DefaultOptions()
	if opt.NullTokens == nil {
		opt.NullTokens = def.NullTokens
	}
	if len(opt.DateLayouts) == 0 {
		opt.DateLayouts = def.DateLayouts
	}
	return &Reader{opt: opt}
}

func (r *Reader) parse(src io.Reader, c schema.Contract) (csvparser.Table, error) {
	p := csvparser.NewParser(csvparser.Options{
		HasHeader:  true,
		Comma:      r.opt.Comma,
		TrimSpace:  true,
		NullTokens: r.opt.NullTokens,
	})
	t, err := p.Parse(src)
	if err != nil {
		return t, fmt.Errorf("parse %s: %w", c.Name, err)
	}
	if err := schema.Check(c, t.Header); err != nil {
		return t, err
	}
	return t, nil
}

// canonicalID rewrites field to its canonical code so "101" and "101.0"
// join as the same order.
func canonicalID(field string) transformer.Transformer {
	return transformer.Func(func(in []records.Record) []records.Record {
		for _, rec := range in {
			if s, ok := rec.String(field); ok {
				rec[field] = order.Parse(s).Code()
			}
		}
		return in
	})
}

func cell(rec records.Record, col string) order.Value {
	return order.FromAny(rec[col])
}

// Orders reads the order header table.
func (r *Reader) Orders(src io.Reader) ([]order.Header, Stats, error) {
	t, err := r.parse(src, schema.Orders)
	if err != nil {
		return nil, Stats{}, err
	}
	st := Stats{Rows: len(t.Records), Skipped: t.Skipped}

	recs := transformer.Chain{
		builtin.Normalize{},
		canonicalID(order.ColID),
		builtin.Require{Fields: []string{order.ColID}},
		builtin.Coerce{
			Types:    map[string]string{order.ColDateCreated: "date"},
			Layouts:  r.opt.DateLayouts,
			Location: r.opt.Location,
		},
	}.Apply(t.Records)
	st.Dropped = st.Rows - len(recs)

	out := make([]order.Header, 0, len(recs))
	unparsed := 0
	for _, rec := range recs {
		id, _ := rec.String(order.ColID)
		h := order.Header{
			ID:                 id,
			Status:             cell(rec, order.ColStatus),
			Currency:           cell(rec, order.ColCurrency),
			Type:               cell(rec, order.ColType),
			TaxAmount:          cell(rec, order.ColTaxAmount),
			TotalAmount:        cell(rec, order.ColTotalAmount),
			CustomerID:         cell(rec, order.ColCustomerID),
			BillingEmail:       cell(rec, order.ColBillingEmail),
			PaymentMethod:      cell(rec, order.ColPaymentMethod),
			PaymentMethodTitle: cell(rec, order.ColPaymentMethodTitle),
			TransactionID:      cell(rec, order.ColTransactionID),
			CustomerNote:       cell(rec, order.ColCustomerNote),
		}
		switch d := rec[order.ColDateCreated].(type) {
		case time.Time:
			h.DateCreated = &d
		case string:
			unparsed++
		}
		out = append(out, h)
	}
	if unparsed > 0 {
		log.Printf("ingest: orders: %d dates could not be parsed and were set to null", unparsed)
	}
	return out, st, nil
}

// Meta reads the long-form order metadata table. Repeated
// (order_id, meta_key) pairs keep the last occurrence.
func (r *Reader) Meta(src io.Reader) ([]order.MetaEntry, Stats, error) {
	t, err := r.parse(src, schema.Meta)
	if err != nil {
		return nil, Stats{}, err
	}
	st := Stats{Rows: len(t.Records), Skipped: t.Skipped}

	recs := transformer.Chain{
		builtin.Normalize{},
		canonicalID("order_id"),
		builtin.Require{Fields: []string{"order_id", "meta_key"}},
	}.Apply(t.Records)
	st.Dropped = st.Rows - len(recs)

	keyed := len(recs)
	recs = builtin.DeDup{Keys: []string{"order_id", "meta_key"}, Policy: "keep-last"}.Apply(recs)
	st.Duplicates = keyed - len(recs)

	out := make([]order.MetaEntry, 0, len(recs))
	for _, rec := range recs {
		id, _ := rec.String("order_id")
		key, _ := rec.String("meta_key")
		out = append(out, order.MetaEntry{OrderID: id, Key: key, Value: cell(rec, "meta_value")})
	}
	return out, st, nil
}

// Addresses reads the address table. Repeated (order_id, address_type)
// pairs keep the last occurrence; types other than billing and shipping are
// skipped and counted.
func (r *Reader) Addresses(src io.Reader) ([]order.AddressEntry, Stats, error) {
	t, err := r.parse(src, schema.Addresses)
	if err != nil {
		return nil, Stats{}, err
	}
	st := Stats{Rows: len(t.Records), Skipped: t.Skipped}

	recs := transformer.Chain{
		builtin.Normalize{},
		builtin.Lower{Fields: []string{"address_type"}},
		canonicalID("order_id"),
		builtin.Require{Fields: []string{"order_id", "address_type"}},
	}.Apply(t.Records)
	st.Dropped = st.Rows - len(recs)

	keyed := len(recs)
	recs = builtin.DeDup{Keys: []string{"order_id", "address_type"}, Policy: "keep-last"}.Apply(recs)
	st.Duplicates = keyed - len(recs)

	out := make([]order.AddressEntry, 0, len(recs))
	for _, rec := range recs {
		id, _ := rec.String("order_id")
		typ, _ := rec.String("address_type")
		at := order.AddressType(typ)
		if at != order.Billing && at != order.Shipping {
			st.UnknownTypes++
			continue
		}
		e := order.AddressEntry{OrderID: id, Type: at}
		for _, col := range t.Header {
			if col == "order_id" || col == "address_type" {
				continue
			}
			e.Address.Set(col, cell(rec, col))
		}
		out = append(out, e)
	}
	if st.UnknownTypes > 0 {
		log.Printf("ingest: addresses: skipped %d rows with an unknown address_type", st.UnknownTypes)
	}
	return out, st, nil
}
