// Package pipeline runs one report: ingest the three exports, pivot, fuse,
// enrich, aggregate and render. Every run returns a fresh immutable Result.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"orderreport/internal/datasource"
	"orderreport/internal/enrich"
	"orderreport/internal/fusion"
	"orderreport/internal/ingest"
	"orderreport/internal/metrics"
	"orderreport/internal/order"
	"orderreport/internal/pivot"
	"orderreport/internal/refdata"
	"orderreport/internal/report"
	"orderreport/internal/stats"
)

// Inputs are the three exported tables.
type Inputs struct {
	Orders    datasource.Source
	Meta      datasource.Source
	Addresses datasource.Source
}

// Options configures a run. The zero value runs with defaults and the
// current time.
type Options struct {
	// Job labels metrics and logs; empty means "orderreport".
	Job string

	// RunID identifies the run; the zero UUID means a new random one.
	RunID uuid.UUID

	// Reference defaults to refdata.Defaults() when it holds no tables.
	Reference refdata.Tables
	Ingest    ingest.Options
	Enrich    enrich.Options

	// Windows defaults to stats.DefaultWindows().
	Windows []stats.Window
	Stats   stats.Options

	// Now anchors the time windows. Zero means time.Now(). Fixing it makes
	// the outputs of a run reproducible.
	Now time.Time
}

// InputSummary records what ingest did with each table.
type InputSummary struct {
	Orders    ingest.Stats
	Meta      ingest.Stats
	Addresses ingest.Stats
}

// Result is the output of one Run. It is never modified after Run returns.
type Result struct {
	runID       uuid.UUID
	now         time.Time
	report      *enrich.Report
	statistics  *stats.Statistics
	inputs      InputSummary
	csv         []byte
	statsJSON   []byte
	fingerprint string
}

func (r *Result) RunID() uuid.UUID              { return r.runID }
func (r *Result) Now() time.Time                { return r.now }
func (r *Result) Report() *enrich.Report        { return r.report }
func (r *Result) Statistics() *stats.Statistics { return r.statistics }
func (r *Result) Inputs() InputSummary          { return r.inputs }
func (r *Result) Fingerprint() string           { return r.fingerprint }

// CSV returns a copy of the rendered report CSV.
func (r *Result) CSV() []byte { return bytes.Clone(r.csv) }

// StatsJSON returns a copy of the rendered statistics document.
func (r *Result) StatsJSON() []byte { return bytes.Clone(r.statsJSON) }

// Preview returns the header and at most n report rows as strings.
func (r *Result) Preview(n int) [][]string {
	recs := r.report.Records()
	if n < 0 {
		n = 0
	}
	if n+1 < len(recs) {
		recs = recs[:n+1]
	}
	return recs
}

// step runs fn as a named pipeline step, recording its outcome and
// duration.
func step(job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, name, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func load[T any](ctx context.Context, src datasource.Source, read func(io.Reader) (T, ingest.Stats, error)) (T, ingest.Stats, error) {
	var zero T
	if src == nil {
		return zero, ingest.Stats{}, fmt.Errorf("input source is not configured")
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return zero, ingest.Stats{}, err
	}
	defer rc.Close()
	out, st, err := read(rc)
	if err != nil {
		return zero, st, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return out, st, nil
}

// Run executes the whole report. Schema violations surface as
// *schema.MissingColumnsError and duplicate order ids as
// *fusion.CardinalityError, both reachable with errors.As.
func Run(ctx context.Context, in Inputs, opt Options) (*Result, error) {
	job := opt.Job
	if job == "" {
		job = "orderreport"
	}
	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}
	windows := opt.Windows
	if len(windows) == 0 {
		windows = stats.DefaultWindows()
	}
	ref := opt.Reference
	if ref.Status == nil && ref.Register == nil && ref.Store == nil && ref.Cashier == nil {
		ref = refdata.Defaults()
	}
	res := &Result{runID: opt.RunID, now: now}
	if res.runID == uuid.Nil {
		res.runID = uuid.New()
	}
	log.Printf("pipeline: run=%s job=%s now=%s", res.runID, job, now.Format(time.RFC3339))

	var (
		headers []order.Header
		entries []order.MetaEntry
		addrs   []order.AddressEntry
	)
	rd := ingest.New(opt.Ingest)
	err := step(job, "ingest", func() error {
		var err error
		if headers, res.inputs.Orders, err = load(ctx, in.Orders, rd.Orders); err != nil {
			return err
		}
		if entries, res.inputs.Meta, err = load(ctx, in.Meta, rd.Meta); err != nil {
			return err
		}
		addrs, res.inputs.Addresses, err = load(ctx, in.Addresses, rd.Addresses)
		return err
	})
	if err != nil {
		return nil, err
	}
	recordInputs(job, res.inputs)

	var fused *fusion.Table
	err = step(job, "fuse", func() error {
		var err error
		fused, err = fusion.Fuse(headers, pivot.PivotMeta(entries), pivot.PivotAddresses(addrs))
		return err
	})
	if err != nil {
		return nil, err
	}

	err = step(job, "enrich", func() error {
		res.report = enrich.New(ref, opt.Enrich).Apply(fused)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRow(job, "enriched", int64(len(res.report.Rows)))

	err = step(job, "stats", func() error {
		var err error
		res.statistics, err = stats.Compute(ctx, res.report.Rows, windows, now, opt.Stats)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = step(job, "render", func() error {
		var csvBuf, jsonBuf bytes.Buffer
		if err := report.WriteCSV(&csvBuf, res.report); err != nil {
			return err
		}
		if err := report.WriteStatsJSON(&jsonBuf, res.statistics); err != nil {
			return err
		}
		res.csv, res.statsJSON = csvBuf.Bytes(), jsonBuf.Bytes()
		res.fingerprint = report.Fingerprint(res.csv, res.statsJSON)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordBytes(job, "csv", int64(len(res.csv)))
	metrics.RecordBytes(job, "stats", int64(len(res.statsJSON)))

	log.Printf("summary: run=%s orders=%d meta_entries=%d address_entries=%d enriched=%d fingerprint=%s",
		res.runID, res.inputs.Orders.Rows, res.inputs.Meta.Rows, res.inputs.Addresses.Rows,
		len(res.report.Rows), res.fingerprint)
	return res, nil
}

func recordInputs(job string, in InputSummary) {
	metrics.RecordRow(job, "orders", int64(in.Orders.Rows))
	metrics.RecordRow(job, "meta_entries", int64(in.Meta.Rows))
	metrics.RecordRow(job, "address_entries", int64(in.Addresses.Rows))
	for _, st := range []ingest.Stats{in.Orders, in.Meta, in.Addresses} {
		metrics.RecordRow(job, "parse_errors", int64(st.Skipped))
		metrics.RecordRow(job, "dropped", int64(st.Dropped))
		metrics.RecordRow(job, "duplicates", int64(st.Duplicates))
	}
	metrics.RecordRow(job, "unknown_address_types", int64(in.Addresses.UnknownTypes))

	for _, t := range []struct {
		name string
		st   ingest.Stats
	}{{"orders", in.Orders}, {"orders_meta", in.Meta}, {"order_addresses", in.Addresses}} {
		name, st := t.name, t.st
		if st.Skipped+st.Dropped+st.Duplicates+st.UnknownTypes == 0 {
			continue
		}
		log.Printf("ingest: %s rows=%d skipped=%d dropped=%d duplicates=%d unknown_types=%d",
			name, st.Rows, st.Skipped, st.Dropped, st.Duplicates, st.UnknownTypes)
	}
}
