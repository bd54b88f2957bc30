package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"orderreport/internal/config"
	"orderreport/internal/enrich"
	"orderreport/internal/fusion"
	"orderreport/internal/ingest"
	"orderreport/internal/metrics"
	"orderreport/internal/metrics/datadog"
	"orderreport/internal/metrics/prompush"
	"orderreport/internal/pipeline"
	"orderreport/internal/report"
	"orderreport/internal/schema"
	"orderreport/internal/stats"

	_ "time/tzdata"
)

// Exit codes. Input problems are told apart from operational failures so a
// scheduler can alert on them differently.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitSchema      = 3
	exitCardinality = 4
)

// main loads the report config, applies flag overrides, picks a metrics
// backend and runs the report once.
func main() {
	var (
		cfgPath           string
		ordersFlg         string
		metaFlg           string
		addressesFlg      string
		outFlg            string
		statsOutFlg       string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		validate          bool
		preview           int
	)

	flag.StringVar(&cfgPath, "config", "", "report config YAML path (optional)")
	flag.StringVar(&ordersFlg, "orders", "", "orders export CSV (overrides inputs.orders)")
	flag.StringVar(&metaFlg, "meta", "", "order metadata export CSV (overrides inputs.meta)")
	flag.StringVar(&addressesFlg, "addresses", "", "order addresses export CSV (overrides inputs.addresses)")
	flag.StringVar(&outFlg, "out", "", "combined report CSV path (overrides output.csv)")
	flag.StringVar(&statsOutFlg, "stats-out", "", "statistics JSON path (overrides output.stats)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: none, pushgateway or datadog")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.IntVar(&preview, "preview", 5, "number of report rows to log after the run")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf(exitConfig, "%v", err)
	}
	override(&cfg.Inputs.Orders, ordersFlg)
	override(&cfg.Inputs.Meta, metaFlg)
	override(&cfg.Inputs.Addresses, addressesFlg)
	override(&cfg.Output.CSV, outFlg)
	override(&cfg.Output.Stats, statsOutFlg)
	override(&cfg.Metrics.Backend, metricsBackendFlg)
	override(&cfg.Metrics.PushgatewayURL, pushGatewayURLFlg)
	override(&cfg.Metrics.DatadogAddr, datadogAddrFlg)

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(exitConfig)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(exitOK)
	}

	loc, err := cfg.Location()
	if err != nil {
		fatalf(exitConfig, "%v", err)
	}

	runID := uuid.New()
	if flush := setupMetrics(cfg, runID, *verbose); flush != nil {
		defer flush()
	}

	opt := pipeline.Options{
		Job:       cfg.Job,
		RunID:     runID,
		Reference: cfg.Tables(),
		Ingest: ingest.Options{
			Comma:       cfg.Comma(),
			NullTokens:  cfg.Inputs.NullTokens,
			DateLayouts: cfg.Report.DateLayouts,
			Location:    loc,
		},
		Enrich: enrich.Options{
			Currency:   cfg.Report.Currency,
			DateLayout: cfg.Report.OutputDateLayout,
			Drop:       cfg.Report.Drop,
		},
		Windows: cfg.Windows,
		Stats: stats.Options{
			Cancelled:  cfg.Report.CancelledStatuses,
			Unassigned: cfg.Report.Unassigned,
		},
	}
	if *verbose {
		log.Printf("report: orders=%s meta=%s addresses=%s out=%s stats=%s windows=%d",
			cfg.Inputs.Orders, cfg.Inputs.Meta, cfg.Inputs.Addresses,
			cfg.Output.CSV, cfg.Output.Stats, len(cfg.Windows))
	}

	start := time.Now()
	code := run(context.Background(), cfg, opt, preview)
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	if code != exitOK {
		// os.Exit skips deferred calls; push what was collected first.
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
		os.Exit(code)
	}
}

// run executes the pipeline, writes the outputs and prints the summary. It
// returns the process exit code.
func run(ctx context.Context, cfg config.Config, opt pipeline.Options, preview int) int {
	res, err := pipeline.Run(ctx, sources(cfg), opt)
	if err != nil {
		return exitCode(err)
	}

	if err := os.WriteFile(cfg.Output.CSV, res.CSV(), 0o644); err != nil {
		log.Printf("write report: %v", err)
		return exitFailure
	}
	log.Printf("report: wrote %d rows to %s", len(res.Report().Rows), cfg.Output.CSV)

	if cfg.Output.Stats != "" {
		if err := os.WriteFile(cfg.Output.Stats, res.StatsJSON(), 0o644); err != nil {
			log.Printf("write statistics: %v", err)
			return exitFailure
		}
		log.Printf("report: wrote statistics to %s", cfg.Output.Stats)
	}

	for _, rec := range res.Preview(preview) {
		log.Printf("preview: %s", strings.Join(rec, " | "))
	}
	if err := report.WriteSummary(os.Stdout, res.Statistics(), cfg.Report.Currency); err != nil {
		log.Printf("write summary: %v", err)
		return exitFailure
	}
	return exitOK
}

// exitCode logs err and maps it to an exit code.
func exitCode(err error) int {
	var mc *schema.MissingColumnsError
	var ce *fusion.CardinalityError
	switch {
	case errors.As(err, &mc):
		log.Printf("input %s is missing columns %s", mc.Table, strings.Join(mc.Missing, ", "))
		return exitSchema
	case errors.As(err, &ce):
		log.Printf("inputs are not one row per order: %v", ce)
		return exitCardinality
	default:
		log.Printf("report failed: %v", err)
		return exitFailure
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// setupMetrics installs the configured backend and returns its flush
// function, or nil when metrics are disabled.
// The backend is chosen flag/config first, then env METRICS_BACKEND.
func setupMetrics(cfg config.Config, runID uuid.UUID, verbose bool) func() {
	backendName := cfg.Metrics.Backend
	if backendName == "" || backendName == "none" {
		if env := os.Getenv("METRICS_BACKEND"); env != "" {
			backendName = env
		}
	}

	var (
		b   metrics.Backend
		err error
	)
	switch backendName {
	case "pushgateway":
		gwURL := cfg.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		var pb *prompush.Backend
		pb, err = prompush.NewBackend(cfg.Job, gwURL)
		if err == nil {
			b = pb.Grouping("run_id", runID.String())
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, cfg.Job)
		}

	case "datadog":
		tags := append([]string{"job:" + cfg.Job}, cfg.Metrics.DatadogTags...)
		var db *datadog.Backend
		db, err = datadog.NewBackend(datadog.Config{Addr: cfg.Metrics.DatadogAddr, GlobalTags: tags})
		if err == nil {
			b = db
			log.Printf("metrics: addr=%v, backend=%v", cfg.Metrics.DatadogAddr, backendName)
		}

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return nil

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return nil
	}

	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", backendName, err)
		return nil
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func fatalf(code int, format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(code)
}
