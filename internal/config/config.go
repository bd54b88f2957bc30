// Package config is the configuration model of the report: where the three
// exports live, the reference tables, formatting and aggregation settings,
// outputs and metrics.
//
// A config is read from YAML and may be overridden from the environment:
//
//	ORDERREPORT_METRICS__BACKEND=pushgateway  ->  metrics.backend
//	ORDERREPORT_INPUTS__ORDERS=/data/o.csv    ->  inputs.orders
//
// Example (trimmed):
//
//	job: daily
//	inputs:
//	  orders: data/wp_wc_orders.csv
//	  meta: data/wp_wc_orders_meta.csv
//	  addresses: data/wp_wc_order_addresses.csv
//	reference:
//	  store: {"21": Muscat Branch, "164": Sohar Branch}
//	windows:
//	  - {name: Last 30 Days, days: 30}
//	  - {name: All Time}
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"orderreport/internal/enrich"
	"orderreport/internal/ingest"
	"orderreport/internal/refdata"
	"orderreport/internal/report"
	"orderreport/internal/stats"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels.
const EnvPrefix = "ORDERREPORT_"

// Config is the top-level configuration.
type Config struct {
	// Job labels logs and metrics.
	Job string `koanf:"job" validate:"required"`

	Inputs    Inputs         `koanf:"inputs"`
	Reference Reference      `koanf:"reference"`
	Report    Report         `koanf:"report"`
	Windows   []stats.Window `koanf:"windows" validate:"dive"`
	Output    Output         `koanf:"output"`
	Metrics   Metrics        `koanf:"metrics"`
}

// Inputs locates the three exported tables.
type Inputs struct {
	Orders    string `koanf:"orders" validate:"required"`
	Meta      string `koanf:"meta" validate:"required"`
	Addresses string `koanf:"addresses" validate:"required"`

	// Delimiter is a single character; empty means ",".
	Delimiter string `koanf:"delimiter" validate:"omitempty,len=1"`

	// NullTokens are read as null in addition to the empty cell.
	NullTokens []string `koanf:"null_tokens"`

	// Timezone applies to order dates without a zone, e.g. "Asia/Muscat".
	Timezone string `koanf:"timezone" validate:"omitempty,timezone"`
}

// Reference holds the code -> label lookups. A nil map takes the built-in
// table; an empty map disables that lookup.
type Reference struct {
	Status         map[string]string `koanf:"status"`
	Register       map[string]string `koanf:"register"`
	Store          map[string]string `koanf:"store"`
	Cashier        map[string]string `koanf:"cashier"`
	UnknownCashier string            `koanf:"unknown_cashier"`
}

// Report controls parsing and formatting of report cells.
type Report struct {
	Currency         string   `koanf:"currency" validate:"required,alpha,uppercase"`
	DateLayouts      []string `koanf:"date_layouts" validate:"min=1"`
	OutputDateLayout string   `koanf:"output_date_layout" validate:"required"`
	Drop             []string `koanf:"drop"`

	CancelledStatuses []string `koanf:"cancelled_statuses"`
	Unassigned        string   `koanf:"unassigned" validate:"required"`
}

// Output names the files a run writes. Stats is optional.
type Output struct {
	CSV   string `koanf:"csv" validate:"required"`
	Stats string `koanf:"stats"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	Backend        string   `koanf:"backend" validate:"omitempty,oneof=none pushgateway datadog"`
	PushgatewayURL string   `koanf:"pushgateway_url" validate:"omitempty,url"`
	DatadogAddr    string   `koanf:"datadog_addr"`
	DatadogTags    []string `koanf:"datadog_tags"`
}

// Default returns a config with every optional field filled in. Input
// paths are left empty.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields with their defaults. It runs after
// the file and environment have been merged.
func (c *Config) ApplyDefaults() {
	if c.Job == "" {
		c.Job = "orderreport"
	}
	ing := ingest.DefaultOptions()
	if c.Inputs.NullTokens == nil {
		c.Inputs.NullTokens = ing.NullTokens
	}

	ref := refdata.Defaults()
	if c.Reference.Status == nil {
		c.Reference.Status = ref.Status
	}
	if c.Reference.Register == nil {
		c.Reference.Register = ref.Register
	}
	if c.Reference.Store == nil {
		c.Reference.Store = ref.Store
	}
	if c.Reference.Cashier == nil {
		c.Reference.Cashier = ref.Cashier
	}
	if c.Reference.UnknownCashier == "" {
		c.Reference.UnknownCashier = ref.UnknownCashier
	}

	if c.Report.Currency == "" {
		c.Report.Currency = "OMR"
	}
	if len(c.Report.DateLayouts) == 0 {
		c.Report.DateLayouts = ing.DateLayouts
	}
	if c.Report.OutputDateLayout == "" {
		c.Report.OutputDateLayout = "02-01-2006 15:04"
	}
	if c.Report.Drop == nil {
		c.Report.Drop = enrich.DefaultDrop
	}
	if c.Report.CancelledStatuses == nil {
		c.Report.CancelledStatuses = stats.DefaultCancelled
	}
	if c.Report.Unassigned == "" {
		c.Report.Unassigned = stats.DefaultUnassigned
	}

	if len(c.Windows) == 0 {
		c.Windows = stats.DefaultWindows()
	}
	if c.Output.CSV == "" {
		c.Output.CSV = report.DefaultCSVName
	}
	if c.Metrics.Backend == "" {
		c.Metrics.Backend = "none"
	}
}

// Tables returns the reference lookups as refdata tables.
func (c Config) Tables() refdata.Tables {
	return refdata.Tables{
		Status:         c.Reference.Status,
		Register:       c.Reference.Register,
		Store:          c.Reference.Store,
		Cashier:        c.Reference.Cashier,
		UnknownCashier: c.Reference.UnknownCashier,
	}
}

// Location resolves Inputs.Timezone; empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Inputs.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Inputs.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Inputs.Timezone, err)
	}
	return loc, nil
}

// Comma returns the input delimiter as a rune.
func (c Config) Comma() rune {
	if c.Inputs.Delimiter == "" {
		return ','
	}
	return []rune(c.Inputs.Delimiter)[0]
}

// Load reads the YAML file at path (skipped when path is empty), applies
// ORDERREPORT_ environment overrides and fills defaults. It does not
// validate; call Validate on the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	var c Config
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	c.ApplyDefaults()
	return c, nil
}

// envKey maps ORDERREPORT_METRICS__PUSHGATEWAY_URL to
// metrics.pushgateway_url. List fields accept comma-separated values through
// the default unmarshal hooks.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.ReplaceAll(k, "__", "."), v
}
