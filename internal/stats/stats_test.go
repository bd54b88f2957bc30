package stats

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orderreport/internal/enrich"
	"orderreport/internal/order"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func amt(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func row(id string, date *time.Time, status, store, register, cashier, price, profit string) enrich.Row {
	v := func(s string) order.Value {
		if s == "" {
			return order.Null()
		}
		return order.Text(s)
	}
	r := enrich.Row{
		OrderID:   id,
		OrderDate: date,
		Status:    v(status),
		Store:     v(store),
		Register:  v(register),
		Cashier:   v(cashier),
	}
	if price != "" {
		r.SellingPrice = amt(price)
	}
	if profit != "" {
		r.Profit = amt(profit)
	}
	return r
}

func fixture() []enrich.Row {
	return []enrich.Row{
		row("1", daysAgo(5), "Order Complete", "Muscat Branch", "Register #1", "Mohamed Hasir", "12.000", "3.000"),
		row("2", daysAgo(40), "Order Cancelled", "Sohar Branch", "Register #2", "Unknown", "4.500", "1.250"),
		row("3", daysAgo(200), "Order Complete", "Muscat Branch", "Register #1", "Mohamed Hasir", "10", ""),
		row("4", daysAgo(800), "Order Refunded", "", "", "", "7.125", "-2"),
		row("5", nil, "Order Complete", "Sohar Branch", "", "Unknown", "", "0.5"),
	}
}

func compute(t *testing.T, rows []enrich.Row) *Statistics {
	t.Helper()
	st, err := Compute(context.Background(), rows, DefaultWindows(), now, Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return st
}

func TestWorkedExample(t *testing.T) {
	d := time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC)
	st := compute(t, []enrich.Row{
		row("101", &d, "Order Complete", "Muscat Branch", "Register #1", "Unknown", "12.000", "3.5"),
	})
	all, ok := st.Period("All Time")
	if !ok {
		t.Fatalf("All Time missing")
	}
	if all.Total.Orders != 1 || all.Total.Sales.StringFixed(1) != "12.0" {
		t.Fatalf("total = %+v", all.Total)
	}
	if got := all.ByStore["Muscat Branch"].Orders; got != 1 {
		t.Fatalf("Muscat Branch orders = %d", got)
	}
}

func TestWindows(t *testing.T) {
	st := compute(t, fixture())
	want := map[string]int{
		"Last 30 Days":  1,
		"Last 6 Months": 2,
		"Last 1 Year":   3,
		"All Time":      5,
	}
	for name, n := range want {
		p, ok := st.Period(name)
		if !ok {
			t.Fatalf("%s missing", name)
		}
		if p.Total.Orders != n {
			t.Fatalf("%s orders = %d, want %d", name, p.Total.Orders, n)
		}
		if (p.Since == nil) != (name == "All Time") {
			t.Fatalf("%s since = %v", name, p.Since)
		}
	}

	all, _ := st.Period("All Time")
	if all.Total.Sales.String() != "33.625" || all.Total.Profit.String() != "2.75" {
		t.Fatalf("all time sums = %s / %s", all.Total.Sales, all.Total.Profit)
	}
	if all.Total.Cancellations != 2 {
		t.Fatalf("cancellations = %d", all.Total.Cancellations)
	}
	if got := all.ByStore[DefaultUnassigned].Orders; got != 1 {
		t.Fatalf("unassigned store orders = %d", got)
	}
}

func TestSumDecomposition(t *testing.T) {
	st := compute(t, fixture())
	for _, p := range st.Periods {
		for dim, groups := range map[string]map[string]Summary{
			"store": p.ByStore, "register": p.ByRegister, "cashier": p.ByCashier,
		} {
			var sum Summary
			for _, s := range groups {
				sum.Orders += s.Orders
				sum.Cancellations += s.Cancellations
				sum.Sales.Decimal = sum.Sales.Add(s.Sales.Decimal)
				sum.Profit.Decimal = sum.Profit.Add(s.Profit.Decimal)
			}
			if sum.Orders != p.Total.Orders || sum.Cancellations != p.Total.Cancellations ||
				!sum.Sales.Equal(p.Total.Sales.Decimal) || !sum.Profit.Equal(p.Total.Profit.Decimal) {
				t.Fatalf("%s by %s: groups sum to %+v, total %+v", p.Window.Name, dim, sum, p.Total)
			}
		}
	}
}

func TestMonotonicity(t *testing.T) {
	rows := fixture()
	ws := DefaultWindows()
	ids := make([]map[string]bool, len(ws))
	for i, w := range ws {
		ids[i] = map[string]bool{}
		for _, r := range rows {
			if InWindow(w, r.OrderDate, now) {
				ids[i][r.OrderID] = true
			}
		}
	}
	for i := 1; i < len(ws); i++ {
		for id := range ids[i-1] {
			if !ids[i][id] {
				t.Fatalf("order %s in %s but not in %s", id, ws[i-1].Name, ws[i].Name)
			}
		}
		if len(ids[i]) < len(ids[i-1]) {
			t.Fatalf("%s shrank relative to %s", ws[i].Name, ws[i-1].Name)
		}
	}

	st := compute(t, rows)
	for i, p := range st.Periods {
		if p.Total.Orders != len(ids[i]) {
			t.Fatalf("%s orders = %d, want %d", p.Window.Name, p.Total.Orders, len(ids[i]))
		}
	}
}

func TestComputeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compute(ctx, fixture(), DefaultWindows(), now, Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestKPIs(t *testing.T) {
	k := compute(t, fixture()).KPIs

	wantStatus := []Count{
		{Label: "Order Complete", Orders: 3},
		{Label: "Order Cancelled", Orders: 1},
		{Label: "Order Refunded", Orders: 1},
	}
	if !reflect.DeepEqual(k.StatusDistribution, wantStatus) {
		t.Fatalf("status = %+v", k.StatusDistribution)
	}
	if k.StoreSales[0].Label != "Muscat Branch" || k.StoreSales[0].Amount.String() != "22" {
		t.Fatalf("store ranking = %+v", k.StoreSales)
	}
	if k.CashierProfit[0].Label != "Mohamed Hasir" {
		t.Fatalf("cashier ranking = %+v", k.CashierProfit)
	}
	if len(k.MonthlySales) != 4 {
		t.Fatalf("monthly = %+v", k.MonthlySales)
	}
	for i := 1; i < len(k.MonthlySales); i++ {
		if k.MonthlySales[i-1].Label >= k.MonthlySales[i].Label {
			t.Fatalf("months not ascending: %+v", k.MonthlySales)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	st := compute(t, fixture())
	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	keys := []string{`"Last 30 Days"`, `"Last 6 Months"`, `"Last 1 Year"`, `"All Time"`, `"KPIs"`}
	last := -1
	for _, key := range keys {
		i := strings.Index(s, key)
		if i <= last {
			t.Fatalf("key %s out of order in %s", key, s)
		}
		last = i
	}

	var doc map[string]map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	all := doc["All Time"]
	if all["Number_of_Orders"] != float64(5) || all["Total_Sales"] != 33.625 {
		t.Fatalf("All Time = %v", all)
	}
	if all["since"] != nil {
		t.Fatalf("All Time since = %v", all["since"])
	}
	if _, ok := all["store_summary"].(map[string]any)["Muscat Branch"]; !ok {
		t.Fatalf("store_summary = %v", all["store_summary"])
	}
}

func TestWindowSince(t *testing.T) {
	w := Window{Name: "x", Months: 6}
	if got := w.Since(now); !got.Equal(time.Date(2023, 12, 30, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("Since = %v", got)
	}
	if (Window{Name: "all"}).Bounded() {
		t.Fatalf("zero window should be unbounded")
	}
	if InWindow(w, nil, now) {
		t.Fatalf("undated row in bounded window")
	}
	if !InWindow(Window{}, nil, now) {
		t.Fatalf("undated row should be in unbounded window")
	}
}

func TestWindowSinceMonthEnd(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		now  time.Time
		want time.Time
	}{
		{"six months before aug 31", Window{Months: 6}, time.Date(2024, 8, 31, 12, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)},
		{"one year before feb 29", Window{Years: 1}, time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), time.Date(2023, 2, 28, 12, 0, 0, 0, time.UTC)},
		{"one month before mar 31", Window{Months: 1}, time.Date(2023, 3, 31, 8, 0, 0, 0, time.UTC), time.Date(2023, 2, 28, 8, 0, 0, 0, time.UTC)},
		{"mid month", Window{Months: 6}, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"days only", Window{Days: 30}, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)},
		{"months then days", Window{Months: 1, Days: 1}, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Since(tt.now); !got.Equal(tt.want) {
				t.Fatalf("Since = %v, want %v", got, tt.want)
			}
		})
	}

	aug31 := time.Date(2024, 8, 31, 12, 0, 0, 0, time.UTC)
	mar1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !InWindow(Window{Months: 6}, &mar1, aug31) {
		t.Fatalf("mar 1 should be within six months of aug 31")
	}
	feb29 := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	feb28 := time.Date(2023, 2, 28, 18, 0, 0, 0, time.UTC)
	if !InWindow(Window{Years: 1}, &feb28, feb29) {
		t.Fatalf("2023-02-28 18:00 should be within a year of 2024-02-29")
	}
}
