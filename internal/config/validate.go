package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"orderreport/internal/stats"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "metrics.backend",
// "windows[1].name"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c and returns every issue found. Struct-tag rules come
// first, followed by cross-field checks. c is not modified.
func Validate(c Config) []Issue {
	issues := tagIssues(c)
	issues = append(issues, validateWindows(c.Windows)...)
	issues = append(issues, validateReference(c.Reference)...)
	issues = append(issues, validateReport(c.Report)...)
	issues = append(issues, validateOutput(c)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

func tagIssues(c Config) []Issue {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     fieldPath(fe.Namespace()),
			Message:  tagMessage(fe),
		})
	}
	return issues
}

// fieldPath turns "Config.inputs.orders" into "inputs.orders".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "len":
		return fmt.Sprintf("must be exactly %s character(s)", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "url":
		return fmt.Sprintf("%q is not a valid URL", fe.Value())
	case "timezone":
		return fmt.Sprintf("%q is not a known IANA time zone", fe.Value())
	case "alpha", "uppercase":
		return fmt.Sprintf("%q must be an upper-case currency code", fe.Value())
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}

func validateWindows(ws []stats.Window) []Issue {
	var issues []Issue
	seen := make(map[string]int, len(ws))
	unbounded := false
	for i, w := range ws {
		path := fmt.Sprintf("windows[%d].name", i)
		if w.Name == stats.KPIKey {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("%q is reserved for the KPI section of the statistics document", stats.KPIKey),
			})
		}
		if j, dup := seen[w.Name]; dup && w.Name != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("duplicate window name %q (also windows[%d])", w.Name, j),
			})
		}
		seen[w.Name] = i
		if !w.Bounded() {
			unbounded = true
		}
	}
	if len(ws) > 0 && !unbounded {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "windows",
			Message:  "no unbounded window; orders without a date will not be counted anywhere",
		})
	}
	return issues
}

func validateReference(r Reference) []Issue {
	var issues []Issue
	if len(r.Cashier) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "reference.cashier",
			Message:  fmt.Sprintf("no cashier names configured; every cashier will be reported as %q", r.UnknownCashier),
		})
	}
	for name, m := range map[string]map[string]string{
		"status": r.Status, "register": r.Register, "store": r.Store, "cashier": r.Cashier,
	} {
		for code, label := range m {
			if strings.TrimSpace(label) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("reference.%s.%s", name, code),
					Message:  "label must not be empty",
				})
			}
		}
	}
	return issues
}

func validateReport(r Report) []Issue {
	var issues []Issue
	for i, l := range r.DateLayouts {
		if !strings.Contains(l, "2006") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("report.date_layouts[%d]", i),
				Message:  fmt.Sprintf("layout %q has no year (2006); it is a Go reference-time layout", l),
			})
		}
	}
	if r.OutputDateLayout != "" && !strings.Contains(r.OutputDateLayout, "2006") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "report.output_date_layout",
			Message:  fmt.Sprintf("layout %q has no year (2006)", r.OutputDateLayout),
		})
	}
	if len(r.CancelledStatuses) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "report.cancelled_statuses",
			Message:  "no cancellation statuses; cancellations will always be 0",
		})
	}
	return issues
}

func validateOutput(c Config) []Issue {
	var issues []Issue
	if c.Output.Stats != "" && c.Output.Stats == c.Output.CSV {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.stats",
			Message:  "stats output must differ from the csv output",
		})
	}
	for _, in := range []string{c.Inputs.Orders, c.Inputs.Meta, c.Inputs.Addresses} {
		if in != "" && (in == c.Output.CSV || in == c.Output.Stats) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output",
				Message:  fmt.Sprintf("output would overwrite input %s", in),
			})
		}
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without URL; PUSHGATEWAY_URL or http://localhost:9091 will be used",
			})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	}
	return issues
}
