// Package fusion left-joins order headers with their pivoted metadata and
// addresses into one wide row per order.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"orderreport/internal/order"
)

// DateLayout renders date_created_gmt in wide rows.
const DateLayout = "02-01-2006 15:04"

// Violation names the ids that occur more than once in one input.
type Violation struct {
	Input string
	IDs   []string
}

// CardinalityError is returned when any input repeats an order id. Every
// offending id of every input is listed.
type CardinalityError struct {
	Violations []Violation
}

func (e *CardinalityError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s [%s]", v.Input, strings.Join(v.IDs, ", "))
	}
	return "fusion: duplicate order ids: " + strings.Join(parts, "; ")
}

// Row is one order with whatever metadata and addresses joined onto it.
// Meta and Addresses are nil when the order had none.
type Row struct {
	Header    order.Header
	Meta      *order.Meta
	Addresses *order.Addresses
}

// ID returns the order id taken from the header.
func (r Row) ID() string { return r.Header.ID }

// Wide flattens the row into column -> value. Absent columns are simply
// missing from the map, which reads back as null.
func (r Row) Wide() map[string]order.Value {
	h := r.Header
	w := map[string]order.Value{
		order.ColID:                 order.Text(h.ID),
		order.ColStatus:             h.Status,
		order.ColCurrency:           h.Currency,
		order.ColType:               h.Type,
		order.ColTaxAmount:          h.TaxAmount,
		order.ColTotalAmount:        h.TotalAmount,
		order.ColCustomerID:         h.CustomerID,
		order.ColBillingEmail:       h.BillingEmail,
		order.ColPaymentMethod:      h.PaymentMethod,
		order.ColPaymentMethodTitle: h.PaymentMethodTitle,
		order.ColTransactionID:      h.TransactionID,
		order.ColCustomerNote:       h.CustomerNote,
	}
	if h.DateCreated != nil {
		w[order.ColDateCreated] = order.Text(h.DateCreated.Format(DateLayout))
	}
	if r.Meta != nil {
		for _, k := range r.Meta.Keys() {
			if isHeaderColumn(k) {
				continue
			}
			w[k], _ = r.Meta.Get(k)
		}
	}
	if r.Addresses != nil {
		for _, t := range []order.AddressType{order.Billing, order.Shipping} {
			a := r.Addresses.Of(t)
			if a == nil {
				continue
			}
			for _, f := range a.Fields() {
				if v := a.Get(f); !v.IsNull() {
					w[order.AddressColumn(f, t)] = v
				}
			}
		}
	}
	return w
}

// Table is the fused result. Columns is the union of wide column names:
// header columns first, then metadata keys sorted, then address columns
// grouped by field with billing before shipping.
type Table struct {
	Columns []string
	Rows    []Row
}

// Fuse joins metas and addrs onto headers by order id. The result has
// exactly one row per header, in header order. Metadata or addresses for
// ids that have no header are dropped.
func Fuse(headers []order.Header, metas []order.Meta, addrs []order.Addresses) (*Table, error) {
	var cerr CardinalityError
	check := func(input string, ids []string) {
		if dup := duplicates(ids); len(dup) > 0 {
			cerr.Violations = append(cerr.Violations, Violation{Input: input, IDs: dup})
		}
	}
	hids := make([]string, len(headers))
	for i, h := range headers {
		hids[i] = h.ID
	}
	check("orders", hids)
	mids := make([]string, len(metas))
	for i, m := range metas {
		mids[i] = m.OrderID
	}
	check("orders_meta", mids)
	aids := make([]string, len(addrs))
	for i, a := range addrs {
		aids[i] = a.OrderID
	}
	check("order_addresses", aids)
	if len(cerr.Violations) > 0 {
		return nil, &cerr
	}

	metaBy := make(map[string]*order.Meta, len(metas))
	for i := range metas {
		metaBy[metas[i].OrderID] = &metas[i]
	}
	addrBy := make(map[string]*order.Addresses, len(addrs))
	for i := range addrs {
		addrBy[addrs[i].OrderID] = &addrs[i]
	}

	t := &Table{Rows: make([]Row, len(headers))}
	for i, h := range headers {
		t.Rows[i] = Row{Header: h, Meta: metaBy[h.ID], Addresses: addrBy[h.ID]}
	}
	t.Columns = columns(metas, addrs)
	return t, nil
}

func duplicates(ids []string) []string {
	seen := make(map[string]int, len(ids))
	var out []string
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			out = append(out, id)
		}
	}
	return out
}

func isHeaderColumn(name string) bool {
	for _, c := range order.HeaderColumns {
		if c == name {
			return true
		}
	}
	return false
}

func columns(metas []order.Meta, addrs []order.Addresses) []string {
	cols := append([]string(nil), order.HeaderColumns...)

	keys := make(map[string]struct{})
	for _, m := range metas {
		for _, k := range m.Keys() {
			keys[k] = struct{}{}
		}
	}
	metaCols := make([]string, 0, len(keys))
	for k := range keys {
		if isHeaderColumn(k) {
			continue
		}
		metaCols = append(metaCols, k)
	}
	sort.Strings(metaCols)
	cols = append(cols, metaCols...)

	// Field order follows the address export; extras are appended sorted.
	types := map[order.AddressType]bool{}
	extra := make(map[string]struct{})
	for _, a := range addrs {
		for _, t := range []order.AddressType{order.Billing, order.Shipping} {
			if ad := a.Of(t); ad != nil {
				types[t] = true
				for k := range ad.Extra {
					extra[k] = struct{}{}
				}
			}
		}
	}
	fields := append([]string(nil), order.AddressFields...)
	extras := make([]string, 0, len(extra))
	for k := range extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	fields = append(fields, extras...)
	for _, f := range fields {
		for _, t := range []order.AddressType{order.Billing, order.Shipping} {
			if types[t] {
				cols = append(cols, order.AddressColumn(f, t))
			}
		}
	}
	return cols
}
