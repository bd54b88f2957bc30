// Package order holds the typed shapes of the three exported order tables
// and the wide per-order rows built from them.
package order

import (
	"sort"
	"time"
)

// Header column names as exported from the order table.
const (
	ColID                 = "id"
	ColStatus             = "status"
	ColCurrency           = "currency"
	ColType               = "type"
	ColTaxAmount          = "tax_amount"
	ColTotalAmount        = "total_amount"
	ColCustomerID         = "customer_id"
	ColBillingEmail       = "billing_email"
	ColDateCreated        = "date_created_gmt"
	ColPaymentMethod      = "payment_method"
	ColPaymentMethodTitle = "payment_method_title"
	ColTransactionID      = "transaction_id"
	ColCustomerNote       = "customer_note"
)

// HeaderColumns is the fixed set of order-table columns the pipeline reads,
// in wide-table order.
var HeaderColumns = []string{
	ColID, ColStatus, ColCurrency, ColType, ColTaxAmount, ColTotalAmount,
	ColCustomerID, ColBillingEmail, ColDateCreated, ColPaymentMethod,
	ColPaymentMethodTitle, ColTransactionID, ColCustomerNote,
}

// Header is one row of the order table.
type Header struct {
	ID                 string
	Status             Value
	Currency           Value
	Type               Value
	TaxAmount          Value
	TotalAmount        Value
	CustomerID         Value
	BillingEmail       Value
	DateCreated        *time.Time // nil when absent or unparseable
	PaymentMethod      Value
	PaymentMethodTitle Value
	TransactionID      Value
	CustomerNote       Value
}

// Metadata keys with a typed home on Meta.
const (
	KeyItemsCost    = "_alg_wc_cog_order_items_cost"
	KeyPrice        = "_alg_wc_cog_order_price"
	KeyProfit       = "_alg_wc_cog_order_profit"
	KeyProfitMargin = "_alg_wc_cog_order_profit_margin"
	KeyCashier      = "_yith_pos_cashier"
	KeyRegister     = "_yith_pos_register"
	KeyStore        = "_yith_pos_store"
)

// MetaEntry is one (order_id, meta_key, meta_value) fact.
type MetaEntry struct {
	OrderID string
	Key     string
	Value   Value
}

// Meta is the pivoted metadata of one order. The reportable keys are typed
// fields; every other key lands in Extra. A null field means the key was
// absent (or empty) for this order.
type Meta struct {
	OrderID      string
	ItemsCost    Value
	Price        Value
	Profit       Value
	ProfitMargin Value
	Cashier      Value
	Register     Value
	Store        Value
	Extra        map[string]Value
}

// Set stores v under key, routing known keys to their typed field.
func (m *Meta) Set(key string, v Value) {
	switch key {
	case KeyItemsCost:
		m.ItemsCost = v
	case KeyPrice:
		m.Price = v
	case KeyProfit:
		m.Profit = v
	case KeyProfitMargin:
		m.ProfitMargin = v
	case KeyCashier:
		m.Cashier = v
	case KeyRegister:
		m.Register = v
	case KeyStore:
		m.Store = v
	default:
		if m.Extra == nil {
			m.Extra = make(map[string]Value)
		}
		m.Extra[key] = v
	}
}

// Get returns the value stored under key and whether it is non-null.
func (m Meta) Get(key string) (Value, bool) {
	var v Value
	switch key {
	case KeyItemsCost:
		v = m.ItemsCost
	case KeyPrice:
		v = m.Price
	case KeyProfit:
		v = m.Profit
	case KeyProfitMargin:
		v = m.ProfitMargin
	case KeyCashier:
		v = m.Cashier
	case KeyRegister:
		v = m.Register
	case KeyStore:
		v = m.Store
	default:
		v = m.Extra[key]
	}
	return v, !v.IsNull()
}

var knownMetaKeys = []string{
	KeyItemsCost, KeyPrice, KeyProfit, KeyProfitMargin, KeyCashier, KeyRegister, KeyStore,
}

// Keys returns the sorted keys holding a non-null value.
func (m Meta) Keys() []string {
	var out []string
	for _, k := range knownMetaKeys {
		if _, ok := m.Get(k); ok {
			out = append(out, k)
		}
	}
	for k, v := range m.Extra {
		if !v.IsNull() {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// AddressType tags an address row as billing or shipping.
type AddressType string

const (
	Billing  AddressType = "billing"
	Shipping AddressType = "shipping"
)

// AddressFields lists the typed address columns in export order.
var AddressFields = []string{
	"id", "first_name", "last_name", "company", "address_1", "address_2",
	"city", "state", "postcode", "country", "email", "phone",
}

// Address is one address row without its order id and type.
type Address struct {
	ID        Value
	FirstName Value
	LastName  Value
	Company   Value
	Address1  Value
	Address2  Value
	City      Value
	State     Value
	Postcode  Value
	Country   Value
	Email     Value
	Phone     Value
	Extra     map[string]Value
}

func (a *Address) field(name string) *Value {
	switch name {
	case "id":
		return &a.ID
	case "first_name":
		return &a.FirstName
	case "last_name":
		return &a.LastName
	case "company":
		return &a.Company
	case "address_1":
		return &a.Address1
	case "address_2":
		return &a.Address2
	case "city":
		return &a.City
	case "state":
		return &a.State
	case "postcode":
		return &a.Postcode
	case "country":
		return &a.Country
	case "email":
		return &a.Email
	case "phone":
		return &a.Phone
	}
	return nil
}

// Set stores v under the address column name.
func (a *Address) Set(name string, v Value) {
	if p := a.field(name); p != nil {
		*p = v
		return
	}
	if a.Extra == nil {
		a.Extra = make(map[string]Value)
	}
	a.Extra[name] = v
}

// Get returns the value of the address column name.
func (a Address) Get(name string) Value {
	if p := a.field(name); p != nil {
		return *p
	}
	return a.Extra[name]
}

// Fields returns the typed field names followed by the sorted Extra names.
func (a Address) Fields() []string {
	out := append([]string(nil), AddressFields...)
	extra := make([]string, 0, len(a.Extra))
	for k := range a.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// AddressEntry is one row of the address table.
type AddressEntry struct {
	OrderID string
	Type    AddressType
	Address Address
}

// Addresses is the pivoted address row of one order.
type Addresses struct {
	OrderID  string
	Billing  *Address
	Shipping *Address
}

// Of returns the address of the given type, or nil.
func (a Addresses) Of(t AddressType) *Address {
	switch t {
	case Billing:
		return a.Billing
	case Shipping:
		return a.Shipping
	}
	return nil
}

// AddressColumn names the wide column holding field for address type t,
// e.g. ("city", billing) -> "city_billing".
func AddressColumn(field string, t AddressType) string {
	return field + "_" + string(t)
}
