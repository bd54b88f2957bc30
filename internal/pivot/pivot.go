// Package pivot reshapes long-form metadata and address entries into one
// row per order.
package pivot

import "orderreport/internal/order"

// PivotMeta groups entries by order id. Rows come out in order of first
// appearance; when a key repeats for an order the last entry wins.
func PivotMeta(entries []order.MetaEntry) []order.Meta {
	idx := make(map[string]int)
	var out []order.Meta
	for _, e := range entries {
		i, ok := idx[e.OrderID]
		if !ok {
			i = len(out)
			idx[e.OrderID] = i
			out = append(out, order.Meta{OrderID: e.OrderID})
		}
		out[i].Set(e.Key, e.Value)
	}
	return out
}

// MeltMeta turns pivoted rows back into entries, one per non-null key, keys
// sorted within each order.
func MeltMeta(metas []order.Meta) []order.MetaEntry {
	var out []order.MetaEntry
	for _, m := range metas {
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			out = append(out, order.MetaEntry{OrderID: m.OrderID, Key: k, Value: v})
		}
	}
	return out
}

// PivotAddresses groups address entries by order id, one billing and one
// shipping slot per order. Later entries replace earlier ones of the same
// type.
func PivotAddresses(entries []order.AddressEntry) []order.Addresses {
	idx := make(map[string]int)
	var out []order.Addresses
	for _, e := range entries {
		i, ok := idx[e.OrderID]
		if !ok {
			i = len(out)
			idx[e.OrderID] = i
			out = append(out, order.Addresses{OrderID: e.OrderID})
		}
		a := e.Address
		switch e.Type {
		case order.Billing:
			out[i].Billing = &a
		case order.Shipping:
			out[i].Shipping = &a
		}
	}
	return out
}
