package guard

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
)

// guardMetrics are the counters of one guard, registered in a metrics.Set
type guardMetrics struct {
	set      *metrics.Set
	attempts *metrics.Counter
	retries  *metrics.Counter
	timeouts *metrics.Counter
	failures *metrics.Counter
	success  *metrics.Counter
	duration *metrics.Histogram
}

// newGuardMetrics registers the metrics of the guard with the given name in set
func newGuardMetrics(set *metrics.Set, name string, permits *PermitPool) *guardMetrics {
	label := func(metric string) string {
		return fmt.Sprintf(`%s{guard=%q}`, metric, name)
	}

	m := &guardMetrics{
		set:      set,
		attempts: set.NewCounter(label("kvguard_attempts_total")),
		retries:  set.NewCounter(label("kvguard_retries_total")),
		timeouts: set.NewCounter(label("kvguard_timeouts_total")),
		failures: set.NewCounter(label("kvguard_failures_total")),
		success:  set.NewCounter(label("kvguard_success_total")),
		duration: set.NewHistogram(label("kvguard_attempt_duration_seconds")),
	}
	set.NewGauge(label("kvguard_inflight"), func() float64 {
		return float64(permits.InFlight())
	})
	set.NewGauge(label("kvguard_permits_capacity"), func() float64 {
		return float64(permits.Capacity())
	})
	return m
}

// Stats is a snapshot of the guard's counters
type Stats struct {
	Attempts uint64
	Retries  uint64
	Timeouts uint64
	Failures uint64
	Success  uint64
	InFlight int
}

// String returns a one line summary of the stats
func (s Stats) String() string {
	return fmt.Sprintf("attempts=%d retries=%d timeouts=%d failures=%d success=%d inflight=%d",
		s.Attempts, s.Retries, s.Timeouts, s.Failures, s.Success, s.InFlight)
}

// Stats returns a snapshot of the guard's counters
func (g *Guard) Stats() Stats {
	return Stats{
		Attempts: g.metrics.attempts.Get(),
		Retries:  g.metrics.retries.Get(),
		Timeouts: g.metrics.timeouts.Get(),
		Failures: g.metrics.failures.Get(),
		Success:  g.metrics.success.Get(),
		InFlight: g.permits.InFlight(),
	}
}

// Metrics returns the metrics set the guard reports to
func (g *Guard) Metrics() *metrics.Set {
	return g.metrics.set
}

// WritePrometheus writes the guard's metrics in Prometheus text format to w
func (g *Guard) WritePrometheus(w io.Writer) {
	g.metrics.set.WritePrometheus(w)
}
