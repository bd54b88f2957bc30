// Package refdata holds the lookup tables that turn coded order values
// (status codes, POS store/register/cashier ids) into report labels.
//
// Tables are plain data injected by configuration; nothing here is global.
package refdata

import "orderreport/internal/order"

// DefaultUnknownCashier is the label used for cashier ids with no mapping.
const DefaultUnknownCashier = "Unknown"

// Tables is the full set of reference lookups. Keys are canonical codes as
// produced by order.Value.Code ("21", not "21.0").
type Tables struct {
	Status   map[string]string
	Register map[string]string
	Store    map[string]string
	Cashier  map[string]string

	// UnknownCashier replaces cashier ids missing from Cashier. Empty means
	// DefaultUnknownCashier.
	UnknownCashier string
}

// Defaults returns the lookup tables shipped with the report.
func Defaults() Tables {
	return Tables{
		Status: map[string]string{
			"wc-completed": "Order Complete",
			"wc-refunded":  "Order Refunded",
			"wc-cancelled": "Order Cancelled",
		},
		Register: map[string]string{
			"22":  "Register #1",
			"165": "Register #1",
			"23":  "Register #2",
			"166": "Register #2",
		},
		Store: map[string]string{
			"21":  "Muscat Branch",
			"164": "Sohar Branch",
		},
		Cashier: map[string]string{
			"1":  "Sameer Siddiqui",
			"2":  "Mahmood Al Ajmi",
			"4":  "Mohamed Hasir",
			"6":  "Sohar Cashier #1",
			"11": "Almonther Alshibli",
			"12": "Mohamed Ajmal",
		},
		UnknownCashier: DefaultUnknownCashier,
	}
}

// passThrough maps v through m, leaving unmapped and null values untouched.
func passThrough(m map[string]string, v order.Value) order.Value {
	if v.IsNull() {
		return v
	}
	if label, ok := m[v.Code()]; ok {
		return order.Text(label)
	}
	return v
}

// StatusLabel maps a raw status code; unmapped codes pass through.
func (t Tables) StatusLabel(v order.Value) order.Value { return passThrough(t.Status, v) }

// RegisterLabel maps a register id; unmapped ids pass through.
func (t Tables) RegisterLabel(v order.Value) order.Value { return passThrough(t.Register, v) }

// StoreLabel maps a store id; unmapped ids pass through.
func (t Tables) StoreLabel(v order.Value) order.Value { return passThrough(t.Store, v) }

// CashierLabel maps a cashier id. Unlike the other lookups an unmapped id
// resolves to the unknown sentinel instead of keeping the raw id. A null
// id stays null.
func (t Tables) CashierLabel(v order.Value) order.Value {
	if v.IsNull() {
		return v
	}
	if name, ok := t.Cashier[v.Code()]; ok {
		return order.Text(name)
	}
	if t.UnknownCashier == "" {
		return order.Text(DefaultUnknownCashier)
	}
	return order.Text(t.UnknownCashier)
}
