package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WritesDirect counts creates that reached the API on the first attempt
	WritesDirect = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackbus_writes_direct_total",
		Help: "Total number of writes sent straight to the remote API",
	}, []string{"entity"})

	// WritesQueued counts creates accepted offline and parked in the outbox
	// A growing rate here means the device is spending its day disconnected
	WritesQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackbus_writes_queued_total",
		Help: "Total number of writes enqueued to the outbox",
	}, []string{"entity"})

	// JobsReplayed tracks drain throughput, labeled done/failed per entity
	JobsReplayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackbus_outbox_jobs_replayed_total",
		Help: "Total number of outbox job replay attempts by outcome",
	}, []string{"status", "entity"})

	// DrainDuration measures a full drain pass, empty-queue checks included
	DrainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blackbus_sync_drain_duration_seconds",
		Help:    "Duration of outbox drain passes in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DrainBatchSize tracks how many jobs each fetched batch actually held
	DrainBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blackbus_sync_drain_batch_size",
		Help:    "Number of outbox jobs fetched per batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100},
	})

	// OutboxBacklog is the primary lag indicator: pending jobs not yet replayed
	OutboxBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blackbus_outbox_backlog",
		Help: "Current number of pending jobs in the outbox",
	})

	// OutboxOldestAge tracks how long the head of the queue has been waiting
	OutboxOldestAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blackbus_outbox_oldest_job_age_seconds",
		Help: "Age in seconds of the oldest pending outbox job",
	})

	// Online mirrors the cached reachability signal (1 reachable, 0 not)
	Online = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blackbus_online",
		Help: "Current cached reachability signal (1 for online, 0 for offline)",
	})
)
