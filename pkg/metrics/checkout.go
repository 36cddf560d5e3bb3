package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters around sale finalization.
type CheckoutMetrics struct {
	submissions    *prometheus.CounterVec
	duration       prometheus.Histogram
	printFallbacks prometheus.Counter
	scans          *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Sale submissions by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_submit_duration_seconds",
		Help:    "Duration of sale submission including the fiscal call.",
		Buckets: prometheus.DefBuckets,
	})
	printFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_print_fallbacks_total",
		Help: "Local print failures that fell back to a server-side reprint.",
	})
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_classifications_total",
		Help: "Keystroke bursts classified by kind.",
	}, []string{"kind"})
	reg.MustRegister(submissions, duration, printFallbacks, scans)
	return &CheckoutMetrics{
		submissions:    submissions,
		duration:       duration,
		printFallbacks: printFallbacks,
		scans:          scans,
	}
}

// IncSubmission counts one submission outcome ("accepted", "validation_error",
// "fiscal_error").
func (m *CheckoutMetrics) IncSubmission(result string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

// ObserveSubmitDuration records how long a submission took.
func (m *CheckoutMetrics) ObserveSubmitDuration(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

// IncPrintFallback counts one local-print failure that used the reprint path.
func (m *CheckoutMetrics) IncPrintFallback() {
	if m == nil || m.printFallbacks == nil {
		return
	}
	m.printFallbacks.Inc()
}

// IncScan counts one keystroke burst classification ("scanner", "typing").
func (m *CheckoutMetrics) IncScan(kind string) {
	if m == nil || m.scans == nil {
		return
	}
	m.scans.WithLabelValues(kind).Inc()
}
