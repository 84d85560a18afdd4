// Package metrics exposes Prometheus collectors for the scraping service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksTotal            *prometheus.CounterVec
	combinationsTotal     prometheus.Counter
	rowsAppendedTotal     prometheus.Counter
	listingsSkippedTotal  *prometheus.CounterVec
	actorRunsTotal        *prometheus.CounterVec
	tasksInFlight         prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		tasksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadharvest_tasks_total",
				Help: "Total number of tasks finished, labeled by terminal status.",
			},
			[]string{"status"},
		)

		combinationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadharvest_combinations_total",
				Help: "Total number of (country, job) combinations processed.",
			},
		)

		rowsAppendedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadharvest_rows_appended_total",
				Help: "Total number of rows appended to the spreadsheet.",
			},
		)

		listingsSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadharvest_listings_skipped_total",
				Help: "Total number of listings skipped, labeled by reason.",
			},
			[]string{"reason"},
		)

		actorRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadharvest_actor_runs_total",
				Help: "Total number of scraper invocations, labeled by scraper and outcome.",
			},
			[]string{"scraper", "outcome"},
		)

		tasksInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadharvest_tasks_in_flight",
				Help: "Number of tasks currently being orchestrated.",
			},
		)
	})
}

// TaskFinished records a task reaching a terminal status.
func TaskFinished(status string) {
	if tasksTotal != nil {
		tasksTotal.WithLabelValues(status).Inc()
	}
}

// CombinationProcessed counts one processed combination.
func CombinationProcessed() {
	if combinationsTotal != nil {
		combinationsTotal.Inc()
	}
}

// RowAppended counts one appended spreadsheet row.
func RowAppended() {
	if rowsAppendedTotal != nil {
		rowsAppendedTotal.Inc()
	}
}

// ListingSkipped counts one skipped listing by reason.
func ListingSkipped(reason string) {
	if listingsSkippedTotal != nil {
		listingsSkippedTotal.WithLabelValues(reason).Inc()
	}
}

// ActorRun records one scraper invocation outcome.
func ActorRun(scraper, outcome string) {
	if actorRunsTotal != nil {
		actorRunsTotal.WithLabelValues(scraper, outcome).Inc()
	}
}

// TaskStarted marks a task entering orchestration.
func TaskStarted() {
	if tasksInFlight != nil {
		tasksInFlight.Inc()
	}
}

// TaskDone marks a task leaving orchestration.
func TaskDone() {
	if tasksInFlight != nil {
		tasksInFlight.Dec()
	}
}
