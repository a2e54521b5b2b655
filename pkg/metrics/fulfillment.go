package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records counters around code allocation and webhooks.
type FulfillmentMetrics struct {
	codesAllocated     *prometheus.CounterVec
	allocationFailures *prometheus.CounterVec
	ordersFulfilled    prometheus.Counter
	webhooksRejected   *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	codesAllocated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codes_allocated_total",
		Help: "Redemption codes claimed from inventory.",
	}, []string{"pack"})
	allocationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "code_allocation_failures_total",
		Help: "Allocation attempts that found no available code.",
	}, []string{"pack"})
	ordersFulfilled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_fulfilled_total",
		Help: "Orders transitioned to the fulfilled state.",
	})
	webhooksRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_rejected_total",
		Help: "Provider webhooks rejected before processing.",
	}, []string{"reason"})
	reg.MustRegister(codesAllocated, allocationFailures, ordersFulfilled, webhooksRejected)
	return &FulfillmentMetrics{
		codesAllocated:     codesAllocated,
		allocationFailures: allocationFailures,
		ordersFulfilled:    ordersFulfilled,
		webhooksRejected:   webhooksRejected,
	}
}

// IncCodeAllocated increments the allocation counter for the named pack.
func (f *FulfillmentMetrics) IncCodeAllocated(pack string) {
	if f == nil || f.codesAllocated == nil {
		return
	}
	f.codesAllocated.WithLabelValues(normalizeLabel(pack)).Inc()
}

// IncAllocationFailure increments the exhaustion counter for the named pack.
func (f *FulfillmentMetrics) IncAllocationFailure(pack string) {
	if f == nil || f.allocationFailures == nil {
		return
	}
	f.allocationFailures.WithLabelValues(normalizeLabel(pack)).Inc()
}

// IncOrderFulfilled increments the fulfilled order counter.
func (f *FulfillmentMetrics) IncOrderFulfilled() {
	if f == nil || f.ordersFulfilled == nil {
		return
	}
	f.ordersFulfilled.Inc()
}

// IncWebhookRejected increments the rejection counter for the given reason.
func (f *FulfillmentMetrics) IncWebhookRejected(reason string) {
	if f == nil || f.webhooksRejected == nil {
		return
	}
	f.webhooksRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
