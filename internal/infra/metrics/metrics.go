package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledger_operations_total",
	Help: "Ledger operations by name and outcome.",
}, []string{"op", "result"})

// ObserveOp records one ledger operation outcome.
func ObserveOp(op, result string) {
	operations.WithLabelValues(op, result).Inc()
}
