package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	entriesPosted       *prometheus.CounterVec
	periodsClosed       prometheus.Counter
	integrityViolations prometheus.Counter
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokoprima_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tokoprima_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	entries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokoprima_journal_entries_posted_total",
		Help: "Jumlah jurnal yang berhasil diposting per tipe referensi.",
	}, []string{"reference_type"})
	closed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tokoprima_periods_closed_total",
		Help: "Jumlah periode akuntansi yang sudah ditutup.",
	})
	integrity := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tokoprima_ledger_integrity_violations_total",
		Help: "Jumlah neraca saldo tidak seimbang yang terdeteksi pemeriksaan berkala.",
	})
	registry.MustRegister(requests, duration, entries, closed, integrity)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		entriesPosted:       entries,
		periodsClosed:       closed,
		integrityViolations: integrity,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// EntryPosted menambah penghitung jurnal terposting.
func (m *Metrics) EntryPosted(referenceType string) {
	if m == nil {
		return
	}
	if referenceType == "" {
		referenceType = "GENERAL"
	}
	m.entriesPosted.WithLabelValues(referenceType).Inc()
}

// PeriodClosed menambah penghitung periode tertutup.
func (m *Metrics) PeriodClosed() {
	if m == nil {
		return
	}
	m.periodsClosed.Inc()
}

// IntegrityViolation mencatat neraca saldo yang tidak seimbang.
func (m *Metrics) IntegrityViolation() {
	if m == nil {
		return
	}
	m.integrityViolations.Inc()
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
