package stats

import (
	"sort"

	"orderreport/internal/enrich"
)

// Count is a label with an order count.
type Count struct {
	Label  string `json:"label"`
	Orders int    `json:"orders"`
}

// Ranked is a label with an amount.
type Ranked struct {
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
}

// KPIs are all-time indicators over the whole report.
type KPIs struct {
	// StatusDistribution counts orders per status label, most frequent first.
	StatusDistribution []Count `json:"status_distribution"`
	// MonthlySales sums selling price per calendar month ("2006-01"),
	// oldest first. Undated orders are left out.
	MonthlySales []Ranked `json:"monthly_sales"`
	// CashierProfit ranks cashiers by total profit.
	CashierProfit []Ranked `json:"cashier_profit"`
	// StoreSales ranks stores by total sales.
	StoreSales []Ranked `json:"store_sales"`
}

func computeKPIs(rows []enrich.Row, unassigned string) KPIs {
	status := map[string]int{}
	monthly := map[string]Money{}
	cashier := map[string]Money{}
	store := map[string]Money{}
	for _, r := range rows {
		status[label(r.Status, unassigned)]++

		c := label(r.Cashier, unassigned)
		if r.Profit.Valid {
			cashier[c] = Money{cashier[c].Add(r.Profit.Decimal)}
		} else if _, ok := cashier[c]; !ok {
			cashier[c] = Money{}
		}

		s := label(r.Store, unassigned)
		if r.SellingPrice.Valid {
			store[s] = Money{store[s].Add(r.SellingPrice.Decimal)}
		} else if _, ok := store[s]; !ok {
			store[s] = Money{}
		}

		if r.OrderDate != nil {
			m := r.OrderDate.Format("2006-01")
			if r.SellingPrice.Valid {
				monthly[m] = Money{monthly[m].Add(r.SellingPrice.Decimal)}
			} else if _, ok := monthly[m]; !ok {
				monthly[m] = Money{}
			}
		}
	}

	var k KPIs
	for l, n := range status {
		k.StatusDistribution = append(k.StatusDistribution, Count{Label: l, Orders: n})
	}
	sort.Slice(k.StatusDistribution, func(i, j int) bool {
		a, b := k.StatusDistribution[i], k.StatusDistribution[j]
		if a.Orders != b.Orders {
			return a.Orders > b.Orders
		}
		return a.Label < b.Label
	})

	k.MonthlySales = ranked(monthly)
	sort.Slice(k.MonthlySales, func(i, j int) bool {
		return k.MonthlySales[i].Label < k.MonthlySales[j].Label
	})
	k.CashierProfit = ranked(cashier)
	sortDesc(k.CashierProfit)
	k.StoreSales = ranked(store)
	sortDesc(k.StoreSales)
	return k
}

func ranked(m map[string]Money) []Ranked {
	out := make([]Ranked, 0, len(m))
	for l, a := range m {
		out = append(out, Ranked{Label: l, Amount: a})
	}
	return out
}

func sortDesc(rs []Ranked) {
	sort.Slice(rs, func(i, j int) bool {
		if c := rs[i].Amount.Cmp(rs[j].Amount.Decimal); c != 0 {
			return c > 0
		}
		return rs[i].Label < rs[j].Label
	})
}
