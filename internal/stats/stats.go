// Package stats aggregates enriched orders into per-window totals with
// store, register and cashier breakdowns.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"orderreport/internal/enrich"
	"orderreport/internal/order"
)

// DefaultCancelled are the status labels counted as cancellations.
var DefaultCancelled = []string{"Order Cancelled", "Order Refunded"}

// DefaultUnassigned labels the group of rows with no store, register or
// cashier.
const DefaultUnassigned = "Unassigned"

// Options tunes aggregation.
type Options struct {
	Cancelled  []string
	Unassigned string
}

func (o Options) withDefaults() Options {
	if o.Cancelled == nil {
		o.Cancelled = DefaultCancelled
	}
	if o.Unassigned == "" {
		o.Unassigned = DefaultUnassigned
	}
	return o
}

// Money is a decimal amount rendered in JSON as a number with three
// decimals.
type Money struct{ decimal.Decimal }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(3)), nil
}

// Summary holds the four headline figures of a group of orders.
type Summary struct {
	Orders        int   `json:"Number_of_Orders"`
	Sales         Money `json:"Total_Sales"`
	Profit        Money `json:"Total_Profit"`
	Cancellations int   `json:"Cancellations"`
}

// Period is the aggregate of one window.
type Period struct {
	Window Window
	// Since is the window start, nil for unbounded windows.
	Since *time.Time

	Total      Summary
	ByStore    map[string]Summary
	ByRegister map[string]Summary
	ByCashier  map[string]Summary
}

func (p Period) MarshalJSON() ([]byte, error) {
	var since *string
	if p.Since != nil {
		s := p.Since.Format(time.RFC3339)
		since = &s
	}
	return json.Marshal(struct {
		Since *string `json:"since"`
		Summary
		ByStore    map[string]Summary `json:"store_summary"`
		ByRegister map[string]Summary `json:"register_summary"`
		ByCashier  map[string]Summary `json:"cashier_summary"`
	}{since, p.Total, p.ByStore, p.ByRegister, p.ByCashier})
}

// Statistics is the result of Compute. Periods follow the window order
// passed in.
type Statistics struct {
	Periods []Period
	KPIs    KPIs
}

// Period returns the period named name.
func (s *Statistics) Period(name string) (Period, bool) {
	for _, p := range s.Periods {
		if p.Window.Name == name {
			return p, true
		}
	}
	return Period{}, false
}

// KPIKey is the top-level JSON key holding the KPIs.
const KPIKey = "KPIs"

// MarshalJSON writes one key per window, in window order, then the KPIs.
func (s *Statistics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, p := range s.Periods {
		if err := writeField(&buf, p.Window.Name, p); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := writeField(&buf, KPIKey, s.KPIs); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stats: marshal %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(b)
	return nil
}

// Compute aggregates rows for every window. Windows are computed
// concurrently over the same read-only rows.
func Compute(ctx context.Context, rows []enrich.Row, windows []Window, now time.Time, opt Options) (*Statistics, error) {
	opt = opt.withDefaults()
	cancelled := make(map[string]struct{}, len(opt.Cancelled))
	for _, s := range opt.Cancelled {
		cancelled[s] = struct{}{}
	}

	st := &Statistics{Periods: make([]Period, len(windows))}
	g, ctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st.Periods[i] = period(rows, w, now, cancelled, opt.Unassigned)
			return nil
		})
	}
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.KPIs = computeKPIs(rows, opt.Unassigned)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

type acc struct {
	ids map[string]struct{}
	s   Summary
}

func (a *acc) add(r enrich.Row, cancelled map[string]struct{}) {
	if a.ids == nil {
		a.ids = make(map[string]struct{})
	}
	a.ids[r.OrderID] = struct{}{}
	if r.SellingPrice.Valid {
		a.s.Sales.Decimal = a.s.Sales.Add(r.SellingPrice.Decimal)
	}
	if r.Profit.Valid {
		a.s.Profit.Decimal = a.s.Profit.Add(r.Profit.Decimal)
	}
	if _, ok := cancelled[r.Status.Raw()]; ok && !r.Status.IsNull() {
		a.s.Cancellations++
	}
}

func (a *acc) summary() Summary {
	s := a.s
	s.Orders = len(a.ids)
	return s
}

type groups map[string]*acc

func (g groups) add(key string, r enrich.Row, cancelled map[string]struct{}) {
	a, ok := g[key]
	if !ok {
		a = &acc{}
		g[key] = a
	}
	a.add(r, cancelled)
}

func (g groups) summaries() map[string]Summary {
	out := make(map[string]Summary, len(g))
	for k, a := range g {
		out[k] = a.summary()
	}
	return out
}

func label(v order.Value, unassigned string) string {
	if v.IsNull() {
		return unassigned
	}
	return v.Raw()
}

// InWindow reports whether a row dated d falls in w. Undated rows only
// belong to unbounded windows.
func InWindow(w Window, d *time.Time, now time.Time) bool {
	if !w.Bounded() {
		return true
	}
	return d != nil && !d.Before(w.Since(now))
}

func period(rows []enrich.Row, w Window, now time.Time, cancelled map[string]struct{}, unassigned string) Period {
	p := Period{Window: w}
	if w.Bounded() {
		s := w.Since(now)
		p.Since = &s
	}
	var total acc
	store, register, cashier := groups{}, groups{}, groups{}
	for _, r := range rows {
		if !InWindow(w, r.OrderDate, now) {
			continue
		}
		total.add(r, cancelled)
		store.add(label(r.Store, unassigned), r, cancelled)
		register.add(label(r.Register, unassigned), r, cancelled)
		cashier.add(label(r.Cashier, unassigned), r, cancelled)
	}
	p.Total = total.summary()
	p.ByStore = store.summaries()
	p.ByRegister = register.summaries()
	p.ByCashier = cashier.summaries()
	return p
}
