package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		commissionsTotal,
		commissionAmountTotal,
		commissionRetriesTotal,
	)
}

var (
	commissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commissions_total",
			Help: "Commission records by final status and sponsor level.",
		},
		[]string{"status", "level"},
	)

	commissionAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commission_amount_total",
			Help: "Total commission value posted, in minor units, by currency.",
		},
		[]string{"currency"},
	)

	commissionRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "commission_retries_total",
			Help: "Manual retries of failed commission records.",
		},
	)
)

func IncCommission(status string, level int) {
	commissionsTotal.WithLabelValues(norm(status), strconv.Itoa(level)).Inc()
}

func AddCommissionAmount(currency string, amount int64) {
	commissionAmountTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncCommissionRetry() {
	commissionRetriesTotal.Inc()
}
