// Package schema describes the column contracts of the exported input tables
// and checks parsed headers against them before any transform runs.
package schema

import "orderreport/internal/order"

// Field is one column of a table contract.
type Field struct {
	Name     string `json:"name"`
	Required bool   `json:"required,omitempty"`
}

// Contract names a table and the columns it is expected to carry.
type Contract struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Required returns the names of all required fields in contract order.
func (c Contract) Required() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

func required(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n, Required: true}
	}
	return out
}

// Orders is the contract of the order header table.
var Orders = Contract{Name: "orders", Fields: required(order.HeaderColumns...)}

// Meta is the contract of the long-form order metadata table.
var Meta = Contract{Name: "orders_meta", Fields: required("order_id", "meta_key", "meta_value")}

// Addresses is the contract of the order address table. Address fields are
// optional; whichever are present become wide columns.
var Addresses = Contract{
	Name: "order_addresses",
	Fields: append(required("order_id", "address_type"), func() []Field {
		out := make([]Field, len(order.AddressFields))
		for i, n := range order.AddressFields {
			out[i] = Field{Name: n}
		}
		return out
	}()...),
}
