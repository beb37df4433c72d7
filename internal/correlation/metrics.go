package correlation

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the correlation subsystem. All
// recording methods are safe on a nil receiver so wiring stays optional.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	AlertsImported   prometheus.Counter
	AlertsSkipped    prometheus.Counter
	IncidentsCreated prometheus.Counter
	IncidentsUpdated prometheus.Counter
	PriorityScore    prometheus.Histogram
}

// NewMetrics registers and returns correlation metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triagehub_correlation_runs_total",
			Help: "Total correlation runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triagehub_correlation_run_duration_seconds",
			Help:    "Duration of correlation runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~40s
		}, []string{"trigger"}),
		AlertsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triagehub_alerts_imported_total",
			Help: "Total alerts accepted by ingestion.",
		}),
		AlertsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triagehub_alerts_skipped_total",
			Help: "Total alerts skipped as duplicates of an existing external ID.",
		}),
		IncidentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triagehub_incidents_created_total",
			Help: "Total incidents created by correlation.",
		}),
		IncidentsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triagehub_incidents_updated_total",
			Help: "Total incidents extended with additional alerts.",
		}),
		PriorityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "triagehub_incident_priority_score",
			Help:    "Priority scores assigned to incidents.",
			Buckets: prometheus.LinearBuckets(0, 10, 13), // 0 .. 120
		}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.AlertsImported,
		m.AlertsSkipped,
		m.IncidentsCreated,
		m.IncidentsUpdated,
		m.PriorityScore,
	)

	return m
}

// IncRun records a finished correlation run.
func (m *Metrics) IncRun(trigger, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(trigger, outcome).Inc()
	m.RunDuration.WithLabelValues(trigger).Observe(seconds)
}

// IncImported records accepted and skipped alert counts for one ingest.
func (m *Metrics) IncImported(imported, skipped int) {
	if m == nil {
		return
	}
	m.AlertsImported.Add(float64(imported))
	m.AlertsSkipped.Add(float64(skipped))
}

// IncIncident records one incident creation or extension.
func (m *Metrics) IncIncident(created bool) {
	if m == nil {
		return
	}
	if created {
		m.IncidentsCreated.Inc()
	} else {
		m.IncidentsUpdated.Inc()
	}
}

// ObserveScore records an assigned priority score.
func (m *Metrics) ObserveScore(score float64) {
	if m == nil {
		return
	}
	m.PriorityScore.Observe(score)
}
