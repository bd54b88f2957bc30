// Package enrich turns fused wide rows into the report-facing shape:
// reference labels substituted, money formatted, columns renamed and
// projected onto a fixed order.
package enrich

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderreport/internal/fusion"
	"orderreport/internal/order"
	"orderreport/internal/refdata"
)

// DefaultDrop lists wide columns removed before labelling.
var DefaultDrop = []string{
	"tax_amount", "customer_id", "billing_email", "transaction_id", "_alg_wc_cog_order_item_cost",
	"_billing_address_index", "_billing_vat", "_edit_local", "_refund_amount", "_refund_reson",
	"_refunded_by", "_refunded_payment", "_shipping_addres_index", "_yith_pos_change",
	"_yith_pos_gateway_bacs", "_yith_pos_gateway_cheque", "_yith_pos_gateway_yith_pos_cash_gateway",
	"_yith_Pos_gateway_yith_pos_chip_pin_gateway", "_yith_pos_order", "id_billing", "id_shipping",
	"first_name_shipping", "last_name_shipping", "company_billing", "company_shipping",
	"address_1_shipping", "address_2_billing", "address_2_shipping", "city_billing", "city_shipping",
	"state_billing", "state_shipping", "postcode_billing", "country_billing", "email_shipping",
	"phone_shipping", "_refund_reason", "_alg_wc_cog_order_profit_percent", "_alg_wc_cog_order_cost",
	"_edit_lock", "_shipping_address_index", "_yith_pos_gateway_yith_pos_chip_pin_gateway",
	"address_1_billing", "postcode_shipping", "country_shipping", "type", "payment_method", "total_amount",
}

// Report column labels.
const (
	LabelOrderID      = "Order ID"
	LabelStatus       = "Order Status"
	LabelOrderDate    = "Order Date"
	LabelCashier      = "Cashier Name"
	LabelRegister     = "POS Register"
	LabelStore        = "POS Store"
	LabelCostOfGoods  = "Cost of Goods"
	LabelSellingPrice = "Selling Price"
	LabelProfitMargin = "Profit (%)"
	LabelFirstName    = "Customer FName"
	LabelLastName     = "Customer LName"
	LabelEmail        = "Customer Email"
	LabelPhone        = "Customer Phone"
	LabelNote         = "Purchase Note"
)

// ProfitLabel is the label of the profit column for currency cur.
func ProfitLabel(cur string) string { return "Profit (" + cur + ")" }

type column struct {
	source string
	label  string
}

// layout returns the projected columns, in report order, for currency cur.
// Wide columns not listed here (payment_method_title among them) are
// renamed by nothing and fall out of the projection.
func layout(cur string) []column {
	return []column{
		{order.ColID, LabelOrderID},
		{order.ColStatus, LabelStatus},
		{order.ColDateCreated, LabelOrderDate},
		{order.KeyCashier, LabelCashier},
		{order.KeyRegister, LabelRegister},
		{order.KeyStore, LabelStore},
		{order.KeyItemsCost, LabelCostOfGoods},
		{order.KeyPrice, LabelSellingPrice},
		{order.KeyProfit, ProfitLabel(cur)},
		{order.KeyProfitMargin, LabelProfitMargin},
		{order.AddressColumn("first_name", order.Billing), LabelFirstName},
		{order.AddressColumn("last_name", order.Billing), LabelLastName},
		{order.AddressColumn("email", order.Billing), LabelEmail},
		{order.AddressColumn("phone", order.Billing), LabelPhone},
		{order.ColCustomerNote, LabelNote},
	}
}

// Options controls formatting.
type Options struct {
	// Currency prefixes money cells. Empty means "OMR".
	Currency string

	// DateLayout renders Order Date. Empty means fusion.DateLayout.
	DateLayout string

	// Drop overrides DefaultDrop when non-nil.
	Drop []string
}

// Row is one enriched order. Cells line up with Report.Columns; the typed
// fields carry the values the aggregator needs before any formatting.
type Row struct {
	OrderID   string
	Status    order.Value
	OrderDate *time.Time

	Cashier  order.Value
	Register order.Value
	Store    order.Value

	CostOfGoods  decimal.NullDecimal
	SellingPrice decimal.NullDecimal
	Profit       decimal.NullDecimal
	ProfitMargin decimal.NullDecimal

	Cells []order.Value
}

// Report is the enriched table.
type Report struct {
	Columns []string
	Rows    []Row
}

// Records renders the report as string rows, header first. Null cells are
// empty strings.
func (r *Report) Records() [][]string {
	out := make([][]string, 0, len(r.Rows)+1)
	out = append(out, append([]string(nil), r.Columns...))
	for _, row := range r.Rows {
		rec := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			rec[i] = c.Raw()
		}
		out = append(out, rec)
	}
	return out
}

// Enricher applies reference data and formatting to fused tables.
type Enricher struct {
	ref refdata.Tables
	opt Options
}

// New returns an Enricher with defaults filled into opt.
func New(ref refdata.Tables, opt Options) *Enricher {
	if opt.Currency == "" {
		opt.Currency = "OMR"
	}
	if opt.DateLayout == "" {
		opt.DateLayout = fusion.DateLayout
	}
	if opt.Drop == nil {
		opt.Drop = DefaultDrop
	}
	return &Enricher{ref: ref, opt: opt}
}

// Apply enriches every row of t. Every step tolerates missing columns: a
// column that is absent from t, or dropped, is simply not in the report.
func (e *Enricher) Apply(t *fusion.Table) *Report {
	drop := make(map[string]struct{}, len(e.opt.Drop))
	for _, c := range e.opt.Drop {
		drop[c] = struct{}{}
	}
	avail := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if _, gone := drop[c]; !gone {
			avail[c] = struct{}{}
		}
	}

	var cols []column
	for _, c := range layout(e.opt.Currency) {
		if _, ok := avail[c.source]; ok {
			cols = append(cols, c)
		}
	}

	rep := &Report{Columns: make([]string, len(cols)), Rows: make([]Row, 0, len(t.Rows))}
	for i, c := range cols {
		rep.Columns[i] = c.label
	}

	for _, fr := range t.Rows {
		w := fr.Wide()
		for k := range w {
			if _, ok := avail[k]; !ok {
				delete(w, k)
			}
		}
		row := e.row(fr, w)
		row.Cells = make([]order.Value, len(cols))
		for i, c := range cols {
			row.Cells[i] = w[c.source]
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// row substitutes and formats w in place and returns the typed view.
func (e *Enricher) row(fr fusion.Row, w map[string]order.Value) Row {
	r := Row{OrderID: fr.ID()}

	if v, ok := w[order.ColStatus]; ok {
		w[order.ColStatus] = e.ref.StatusLabel(v)
	}
	if v, ok := w[order.KeyRegister]; ok {
		w[order.KeyRegister] = e.ref.RegisterLabel(v)
	}
	if v, ok := w[order.KeyStore]; ok {
		w[order.KeyStore] = e.ref.StoreLabel(v)
	}
	if v, ok := w[order.KeyCashier]; ok {
		w[order.KeyCashier] = e.ref.CashierLabel(v)
	}
	r.Status = w[order.ColStatus]
	r.Register = w[order.KeyRegister]
	r.Store = w[order.KeyStore]
	r.Cashier = w[order.KeyCashier]

	if _, ok := w[order.ColDateCreated]; ok && fr.Header.DateCreated != nil {
		d := *fr.Header.DateCreated
		r.OrderDate = &d
		w[order.ColDateCreated] = order.Text(d.Format(e.opt.DateLayout))
	}

	money := func(key string) decimal.NullDecimal {
		n := Amount(w[key])
		if n.Valid {
			w[key] = order.Text(FormatMoney(e.opt.Currency, n.Decimal))
		} else {
			delete(w, key)
		}
		return n
	}
	r.CostOfGoods = money(order.KeyItemsCost)
	r.SellingPrice = money(order.KeyPrice)
	r.Profit = money(order.KeyProfit)

	r.ProfitMargin = Amount(w[order.KeyProfitMargin])
	if r.ProfitMargin.Valid {
		w[order.KeyProfitMargin] = order.Text(r.ProfitMargin.Decimal.StringFixed(2) + "%")
	} else {
		delete(w, order.KeyProfitMargin)
	}
	return r
}

// Amount reads v as an exact decimal. Null or non-numeric values are
// invalid.
func Amount(v order.Value) decimal.NullDecimal {
	if !v.IsNumeric() {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.Raw()))
	if err != nil {
		f, _ := v.Float()
		d = decimal.NewFromFloat(f)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// FormatMoney renders d the way money cells are rendered. Rounding is half
// away from zero on the exact decimal value.
func FormatMoney(cur string, d decimal.Decimal) string {
	return fmt.Sprintf("%s %s", cur, d.StringFixed(3))
}
