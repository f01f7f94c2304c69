package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the application
type Metrics struct {
	SyncTotal           *prometheus.CounterVec
	SyncedRecords       *prometheus.CounterVec
	LookupDuration      prometheus.Histogram
	AcquisitionOutcomes *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	BrowserCacheTotal   *prometheus.CounterVec
	ShortenTotal        *prometheus.CounterVec
	PurgedDescriptors   prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SyncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvshowfetcher_sync_total",
			Help: "Catalog sync passes by scope and result",
		}, []string{"scope", "result"}),
		SyncedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvshowfetcher_synced_records_total",
			Help: "Records reconciled from the catalog by kind",
		}, []string{"kind"}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tvshowfetcher_lookup_duration_seconds",
			Help:    "Time spent in acquisition lookups",
			Buckets: prometheus.DefBuckets,
		}),
		AcquisitionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvshowfetcher_acquisition_outcomes_total",
			Help: "Acquisition outcomes by status",
		}, []string{"status"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvshowfetcher_notifications_total",
			Help: "Summary notifications by result",
		}, []string{"result"}),
		BrowserCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvshowfetcher_browser_cache_total",
			Help: "Directory listing cache lookups by result",
		}, []string{"result"}),
		ShortenTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvshowfetcher_shorten_total",
			Help: "Short URL creations by result",
		}, []string{"result"}),
		PurgedDescriptors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tvshowfetcher_purged_descriptors_total",
			Help: "Stale temporary descriptors removed",
		}),
	}
}
