package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFulfillmentMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewFulfillmentMetrics(reg)

	metrics.IncCodeAllocated("110 Diamants")
	metrics.IncCodeAllocated("110 Diamants")
	metrics.IncAllocationFailure("110 Diamants")
	metrics.IncOrderFulfilled()
	metrics.IncWebhookRejected("invalid_signature")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "codes_allocated_total", "pack", "110 Diamants"); err != nil {
		t.Fatalf("fetch allocated: %v", err)
	} else if got != 2 {
		t.Fatalf("expected allocated=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "code_allocation_failures_total", "pack", "110 Diamants"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "webhooks_rejected_total", "reason", "invalid_signature"); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}

	fulfilled := findMetricFamily(mfs, "orders_fulfilled_total")
	if fulfilled == nil || len(fulfilled.GetMetric()) == 0 {
		t.Fatal("orders_fulfilled_total not exported")
	}
	if got := fulfilled.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected fulfilled=1, got %f", got)
	}
}

func TestFulfillmentMetricsNilReceiversAreSafe(t *testing.T) {
	var metrics *FulfillmentMetrics
	metrics.IncCodeAllocated("x")
	metrics.IncAllocationFailure("x")
	metrics.IncOrderFulfilled()
	metrics.IncWebhookRejected("x")

	empty := NewFulfillmentMetrics(nil)
	empty.IncOrderFulfilled()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
