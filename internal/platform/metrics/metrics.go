// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	DirectoryLoads    *prometheus.CounterVec
	DirectoryAttempts prometheus.Counter
	ProfilesCreated   prometheus.Counter
	ApprovalChanges   *prometheus.CounterVec
	AssetCleanups     *prometheus.CounterVec
	SignIns           *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DirectoryLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawyer_directory_loads_total",
			Help: "Directory loads by data source (live or placeholder).",
		}, []string{"source"}),
		DirectoryAttempts: f.NewCounter(prometheus.CounterOpts{
			Name: "lawyer_directory_load_attempts_total",
			Help: "Repository attempts made while loading the directory, including retries.",
		}),
		ProfilesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "lawyer_profiles_created_total",
			Help: "Lawyer profiles created.",
		}),
		ApprovalChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawyer_profile_approval_changes_total",
			Help: "Approval state writes by target state.",
		}, []string{"approved"}),
		AssetCleanups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawyer_asset_cleanups_total",
			Help: "Compensating asset deletions after a failed profile insert.",
		}, []string{"result"}),
		SignIns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawyer_sign_ins_total",
			Help: "Sign-in attempts by result.",
		}, []string{"result"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lawyer_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveDirectoryLoad(source string, attempts int) {
	if m == nil {
		return
	}
	m.DirectoryLoads.WithLabelValues(source).Inc()
	m.DirectoryAttempts.Add(float64(attempts))
}

func (m *Metrics) IncProfilesCreated() {
	if m == nil {
		return
	}
	m.ProfilesCreated.Inc()
}

func (m *Metrics) IncApprovalChange(approved bool) {
	if m == nil {
		return
	}
	label := "false"
	if approved {
		label = "true"
	}
	m.ApprovalChanges.WithLabelValues(label).Inc()
}

func (m *Metrics) IncAssetCleanup(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.AssetCleanups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncSignIn(result string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
