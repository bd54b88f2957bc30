// Package report writes the enriched table and its statistics.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/zeebo/xxh3"

	"orderreport/internal/enrich"
	"orderreport/internal/stats"
)

// DefaultCSVName is the file name used when no output path is given.
const DefaultCSVName = "combined_woocommerce_data.csv"

// WriteCSV writes rep as CSV, header first. Null cells are empty.
func WriteCSV(w io.Writer, rep *enrich.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rep.Records()); err != nil {
		return fmt.Errorf("report: write csv: %w", err)
	}
	return nil
}

// WriteStatsJSON writes st as indented JSON.
func WriteStatsJSON(w io.Writer, st *stats.Statistics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("report: write stats: %w", err)
	}
	return nil
}

// Fingerprint hashes the rendered outputs of a run. Two runs over the same
// inputs at the same instant produce the same fingerprint.
func Fingerprint(csvData, statsData []byte) string {
	h := xxh3.New()
	h.Write(csvData)
	h.Write([]byte{0})
	h.Write(statsData)
	return fmt.Sprintf("%016x", h.Sum64())
}

// WriteSummary prints per-window totals and the store breakdown as an
// aligned table.
func WriteSummary(w io.Writer, st *stats.Statistics, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\tOrders\tSales (%s)\tProfit (%s)\tCancellations\n", currency, currency)
	for _, p := range st.Periods {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\n",
			p.Window.Name, p.Total.Orders, p.Total.Sales.StringFixed(3), p.Total.Profit.StringFixed(3), p.Total.Cancellations)
	}
	if len(st.KPIs.StoreSales) > 0 {
		fmt.Fprintf(tw, "\nStore\tSales (%s)\n", currency)
		for _, r := range st.KPIs.StoreSales {
			fmt.Fprintf(tw, "%s\t%s\n", r.Label, r.Amount.StringFixed(3))
		}
	}
	return tw.Flush()
}
