package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"orderreport/internal/config"
	"orderreport/internal/fusion"
	"orderreport/internal/pipeline"
	"orderreport/internal/schema"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Inputs.Orders = writeFile(t, dir, "orders.csv",
		"id,status,currency,type,tax_amount,total_amount,customer_id,billing_email,date_created_gmt,payment_method,payment_method_title,transaction_id,customer_note\n"+
			"101,wc-completed,OMR,shop_order,0,12.000,7,ali@example.com,05-03-2024 10:15,cod,Cash,,\n")
	cfg.Inputs.Meta = writeFile(t, dir, "meta.csv",
		"order_id,meta_key,meta_value\n101,_yith_pos_store,21\n101,_alg_wc_cog_order_price,12.000\n")
	cfg.Inputs.Addresses = writeFile(t, dir, "addresses.csv",
		"id,order_id,address_type,first_name\n1,101,billing,Ali\n")
	cfg.Output.CSV = filepath.Join(dir, "out.csv")
	cfg.Output.Stats = filepath.Join(dir, "stats.json")

	opt := pipeline.Options{
		Job:       cfg.Job,
		Reference: cfg.Tables(),
		Windows:   cfg.Windows,
		Now:       time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC),
	}
	if code := run(context.Background(), cfg, opt, 1); code != exitOK {
		t.Fatalf("run = %d", code)
	}

	csvData, err := os.ReadFile(cfg.Output.CSV)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(csvData), "Muscat Branch") {
		t.Fatalf("report lacks store label:\n%s", csvData)
	}

	raw, err := os.ReadFile(cfg.Output.Stats)
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("stats is not JSON: %v", err)
	}
	for _, k := range []string{"Last 30 Days", "All Time", "KPIs"} {
		if _, ok := doc[k]; !ok {
			t.Fatalf("stats missing %q", k)
		}
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Inputs.Orders = filepath.Join(dir, "nope.csv")
	cfg.Inputs.Meta = filepath.Join(dir, "nope_meta.csv")
	cfg.Inputs.Addresses = filepath.Join(dir, "nope_addr.csv")
	cfg.Output.CSV = filepath.Join(dir, "out.csv")

	if code := run(context.Background(), cfg, pipeline.Options{}, 0); code != exitFailure {
		t.Fatalf("run = %d, want %d", code, exitFailure)
	}
	if _, err := os.Stat(cfg.Output.CSV); !os.IsNotExist(err) {
		t.Fatalf("no output should be written on failure")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"schema", fmt.Errorf("ingest: %w", &schema.MissingColumnsError{Table: "orders", Missing: []string{"status"}}), exitSchema},
		{"cardinality", fmt.Errorf("fuse: %w", &fusion.CardinalityError{}), exitCardinality},
		{"other", fmt.Errorf("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOverride(t *testing.T) {
	s := "a"
	override(&s, "")
	if s != "a" {
		t.Fatalf("empty override changed value to %q", s)
	}
	override(&s, "b")
	if s != "b" {
		t.Fatalf("override = %q", s)
	}
}
