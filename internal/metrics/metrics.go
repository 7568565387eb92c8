package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bentoledger"

// Metrics owns a registry with the ledger collectors. A nil *Metrics is valid
// and records nothing, which keeps the one-shot commands free of setup.
type Metrics struct {
	Registry *prometheus.Registry

	storeFlushes      *prometheus.CounterVec
	settlements       prometheus.Counter
	settledAmount     prometheus.Counter
	orphanedRefs      prometheus.Gauge
	snapshotsReceived *prometheus.CounterVec
	loginAttempts     *prometheus.CounterVec
	eventsPublished   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		storeFlushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_flushes_total",
				Help:      "Document writes to the store, by document and result.",
			},
			[]string{"document", "result"},
		),
		settlements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Weeks settled.",
			},
		),
		settledAmount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settled_amount_total",
				Help:      "Sum of spend deducted by settlements.",
			},
		),
		orphanedRefs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "orphaned_references",
				Help:      "Selections in the last settled or reported week whose item is not on the menu.",
			},
		),
		snapshotsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_received_total",
				Help:      "Change-feed snapshots received, by document.",
			},
			[]string{"document"},
		),
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Admin login attempts, by result.",
			},
			[]string{"result"},
		),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Ledger events handed to the publisher, by result.",
			},
			[]string{"result"},
		),
	}

	m.Registry.MustRegister(
		m.storeFlushes,
		m.settlements,
		m.settledAmount,
		m.orphanedRefs,
		m.snapshotsReceived,
		m.loginAttempts,
		m.eventsPublished,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveFlush(document string, err error) {
	if m == nil {
		return
	}
	m.storeFlushes.WithLabelValues(document, result(err)).Inc()
}

func (m *Metrics) ObserveSettlement(amount int64, orphans int) {
	if m == nil {
		return
	}
	m.settlements.Inc()
	if amount > 0 {
		m.settledAmount.Add(float64(amount))
	}
	m.orphanedRefs.Set(float64(orphans))
}

func (m *Metrics) SetOrphanedReferences(n int) {
	if m == nil {
		return
	}
	m.orphanedRefs.Set(float64(n))
}

func (m *Metrics) ObserveSnapshot(document string) {
	if m == nil {
		return
	}
	m.snapshotsReceived.WithLabelValues(document).Inc()
}

// ObserveLogin records a login outcome: "ok", "invalid" or "throttled".
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(result(err)).Inc()
}
