package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	subsystem = "ingest"

	batchesTotal          = "batches_total"
	fileSetsTotal         = "filesets_total"
	recoveriesTotal       = "recoveries_total"
	autoSaveFailuresTotal = "autosave_failures_total"
	rejectedFilesTotal    = "rejected_files_total"

	// Labels
	statusLabel    = "status"
	heuristicLabel = "heuristic"
	stepLabel      = "step"
	reasonLabel    = "reason"
)

var batchesTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      batchesTotal,
		Help:      "number of ingestion runs started",
	},
)

var fileSetsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      fileSetsTotal,
		Help:      "number of file sets by terminal status",
	},
	[]string{statusLabel},
)

var recoveriesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      recoveriesTotal,
		Help:      "number of payload repairs by effective heuristic",
	},
	[]string{heuristicLabel},
)

var autoSaveFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      autoSaveFailuresTotal,
		Help:      "number of failed auto-save steps",
	},
	[]string{stepLabel},
)

var rejectedFilesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      rejectedFilesTotal,
		Help:      "number of files refused before matching",
	},
	[]string{reasonLabel},
)

func IncreaseBatchesTotal() {
	batchesTotalMetric.Inc()
}

func IncreaseFileSetsTotal(status string) {
	fileSetsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseRecoveriesTotal(heuristic string) {
	recoveriesTotalMetric.With(prometheus.Labels{heuristicLabel: heuristic}).Inc()
}

func IncreaseAutoSaveFailuresTotal(step string) {
	autoSaveFailuresTotalMetric.With(prometheus.Labels{stepLabel: step}).Inc()
}

func IncreaseRejectedFilesTotal(reason string) {
	rejectedFilesTotalMetric.With(prometheus.Labels{reasonLabel: reason}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(batchesTotalMetric)
	prometheus.MustRegister(fileSetsTotalMetric)
	prometheus.MustRegister(recoveriesTotalMetric)
	prometheus.MustRegister(autoSaveFailuresTotalMetric)
	prometheus.MustRegister(rejectedFilesTotalMetric)
}
