package datadog

import (
	"reflect"
	"testing"

	"orderreport/internal/metrics"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls  []call
	closed bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, rate float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, rate float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackendRequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend with empty Addr: error = nil")
	}
}

func TestBackendForwardsWithSortedTags(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RecordsTotal, 3.9, metrics.Labels{"kind": "orders", "job": "daily"})
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "fuse"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []call{
		{"count", metrics.RecordsTotal, 3, []string{"job:daily", "kind:orders"}},
		{"histogram", metrics.StepDuration, 0.25, []string{"step:fuse"}},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %+v, want %+v", fc.calls, want)
	}
	if !fc.closed {
		t.Fatalf("Flush should close the client")
	}
}

func TestZeroBackendIsNoop(t *testing.T) {
	var b Backend
	b.IncCounter(metrics.StepTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if labelsToTags(nil) != nil {
		t.Fatalf("nil labels should give nil tags")
	}
}
