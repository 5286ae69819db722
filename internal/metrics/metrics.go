// Package metrics exposes Prometheus instrumentation for the referral
// pipeline: lead ingestion, funnel transitions and roster rebuilds.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds every collector for the service.
type Manager struct {
	registry *prometheus.Registry

	snapshotsApplied prometheus.Counter
	snapshotSize     prometheus.Gauge
	feedDegraded     prometheus.Counter

	leadsCreated      prometheus.Counter
	statusTransitions *prometheus.CounterVec
	editCommits       prometheus.Counter
	editRejections    prometheus.Counter

	rosterRebuildDuration prometheus.Histogram
	rosterSize            prometheus.Gauge

	wsClients prometheus.Gauge
}

// Global manager instance; the service has exactly one pipeline.
var globalManager = NewManager()

// NewManager builds a manager with its own registry, keeping the default Go
// collectors out of the scrape.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Manager{registry: registry}
	m.snapshotsApplied = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "referral", Subsystem: "store",
		Name: "snapshots_applied_total",
		Help: "Full lead snapshots ingested from the persistence feed.",
	})
	m.snapshotSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "referral", Subsystem: "store",
		Name: "snapshot_leads",
		Help: "Lead count in the most recent snapshot.",
	})
	m.feedDegraded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "referral", Subsystem: "store",
		Name: "feed_degraded_total",
		Help: "Times the live feed dropped and the store went stale-but-available.",
	})
	m.leadsCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "referral", Subsystem: "leads",
		Name: "created_total",
		Help: "Leads accepted through the create path.",
	})
	m.statusTransitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral", Subsystem: "leads",
		Name: "status_transitions_total",
		Help: "Applied funnel transitions by target status.",
	}, []string{"to"})
	m.editCommits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "referral", Subsystem: "edits",
		Name: "commits_total",
		Help: "Committed amount/commission edit sessions.",
	})
	m.editRejections = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "referral", Subsystem: "edits",
		Name: "rejections_total",
		Help: "Edit commits rejected by validation or single-flight locking.",
	})
	m.rosterRebuildDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "referral", Subsystem: "roster",
		Name:    "rebuild_duration_seconds",
		Help:    "Time spent rebuilding the affiliate roster from the lead set.",
		Buckets: prometheus.DefBuckets,
	})
	m.rosterSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "referral", Subsystem: "roster",
		Name: "affiliates",
		Help: "Affiliates in the derived roster.",
	})
	m.wsClients = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "referral", Subsystem: "ws",
		Name: "clients",
		Help: "Connected websocket clients.",
	})
	return m
}

// Handler serves the scrape endpoint for the global manager.
func Handler() http.Handler {
	return promhttp.HandlerFor(globalManager.registry, promhttp.HandlerOpts{})
}

func SnapshotApplied(size int) {
	globalManager.snapshotsApplied.Inc()
	globalManager.snapshotSize.Set(float64(size))
}

func FeedDegraded() { globalManager.feedDegraded.Inc() }

func LeadCreated() { globalManager.leadsCreated.Inc() }

func StatusTransition(to string) {
	globalManager.statusTransitions.WithLabelValues(to).Inc()
}

func EditCommitted() { globalManager.editCommits.Inc() }

func EditRejected() { globalManager.editRejections.Inc() }

func RosterRebuilt(d time.Duration, affiliates int) {
	globalManager.rosterRebuildDuration.Observe(d.Seconds())
	globalManager.rosterSize.Set(float64(affiliates))
}

func WSClientConnected() { globalManager.wsClients.Inc() }

func WSClientDisconnected() { globalManager.wsClients.Dec() }
