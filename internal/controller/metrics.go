package controller

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsAssignedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "artd",
		Subsystem: "jobs",
		Name:      "assigned_total",
		Help:      "Total jobs assigned to workers",
	})

	jobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "artd",
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Total jobs finished by outcome",
		},
		[]string{"outcome"},
	)

	workersBusy = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "artd",
		Subsystem: "workers",
		Name:      "busy",
		Help:      "Workers currently running a job",
	})

	controllerPaused = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "artd",
		Subsystem: "controller",
		Name:      "paused",
		Help:      "1 while dispatch is paused",
	})

	sourceLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "artd",
			Subsystem: "source",
			Name:      "loads_total",
			Help:      "Prompt source loads by result",
		},
		[]string{"result"},
	)

	eventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "artd",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Events dropped because a subscriber was not keeping up",
	})
)

func init() {
	prometheus.MustRegister(jobsAssignedTotal, jobsFinishedTotal, workersBusy, controllerPaused, sourceLoadsTotal, eventsDroppedTotal)
}

// loadResult maps a LoadSource error to a low-cardinality label.
func loadResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsNotFound(err):
		return "not_found"
	case IsParseError(err):
		return "parse_error"
	case IsInvalidArgument(err):
		return "invalid_argument"
	default:
		return "error"
	}
}
