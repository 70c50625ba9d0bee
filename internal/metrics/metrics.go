package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outreach"

const (
	JobReasonDeadlineExceeded = "deadline_exceeded"
	JobReasonDB               = "db"
	JobReasonPanic            = "panic"
	JobReasonUnknown          = "unknown"
)

// ErrPanic marks a job that panicked and was recovered.
var ErrPanic = errors.New("job panicked")

// Metrics holds every collector the agent exports. All methods are nil-safe so
// tests can pass a nil *Metrics.
type Metrics struct {
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobTimeouts  *prometheus.CounterVec
	jobErrors    *prometheus.CounterVec
	jobSkipped   *prometheus.CounterVec
	dispatches   *prometheus.CounterVec
	webhooks     *prometheus.CounterVec
	stepFailures *prometheus.CounterVec
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduler job runs by name.",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_job_duration_seconds",
			Help:      "Scheduler job latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"job"}),
		jobTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_timeouts_total",
			Help:      "Scheduler jobs that hit their deadline.",
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_errors_total",
			Help:      "Scheduler job errors by low-cardinality reason.",
		}, []string{"job", "reason"}),
		jobSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_skipped_total",
			Help:      "Scheduler runs skipped because another replica held the job lock.",
		}, []string{"job"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_outcomes_total",
			Help:      "Outbound call attempts by outcome.",
		}, []string{"outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Telephony webhook deliveries by kind and outcome.",
		}, []string{"kind", "outcome"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "besteffort_step_failures_total",
			Help:      "Failed best-effort steps at external boundaries.",
		}, []string{"step"}),
	}

	registerer.MustRegister(
		m.jobRuns,
		m.jobDuration,
		m.jobTimeouts,
		m.jobErrors,
		m.jobSkipped,
		m.dispatches,
		m.webhooks,
		m.stepFailures,
	)
	return m
}

func (m *Metrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *Metrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *Metrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *Metrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyJobReason(err)).Inc()
}

func (m *Metrics) IncJobSkipped(job string) {
	if m == nil {
		return
	}
	m.jobSkipped.WithLabelValues(job).Inc()
}

func (m *Metrics) ObserveDispatch(kind string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveWebhook(kind, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(kind, outcome).Inc()
}

// IncStepFailure implements besteffort.FailureRecorder.
func (m *Metrics) IncStepFailure(step string) {
	if m == nil {
		return
	}
	m.stepFailures.WithLabelValues(step).Inc()
}

// ClassifyJobReason maps job errors to low-cardinality reasons.
func ClassifyJobReason(err error) string {
	if err == nil {
		return JobReasonUnknown
	}
	if errors.Is(err, ErrPanic) {
		return JobReasonPanic
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return JobReasonDeadlineExceeded
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return JobReasonDB
	}
	return JobReasonUnknown
}
