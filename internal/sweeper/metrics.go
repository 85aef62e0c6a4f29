package sweeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campuspass_sweeps_total",
		Help: "Number of cutoff sweeps started.",
	})
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campuspass_sweep_errors_total",
		Help: "Number of sweep iterations or per-visit applies that failed.",
	})
	finalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campuspass_visits_finalized_total",
		Help: "Visits force-finalized by the sweeper, by resulting status.",
	}, []string{"status"})
)
