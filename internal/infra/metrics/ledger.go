package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ledgerPostingsTotal,
		ledgerDebitRejectionsTotal,
	)
}

var (
	ledgerPostingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_postings_total",
			Help: "Ledger rows written, by effect (credit/debit/mirror) and type label.",
		},
		[]string{"effect", "type"},
	)

	ledgerDebitRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_debit_rejections_total",
			Help: "Debits rejected because they would overdraw a member wallet.",
		},
	)
)

func IncLedgerPosting(effect, txType string) {
	ledgerPostingsTotal.WithLabelValues(norm(effect), norm(txType)).Inc()
}

func IncDebitRejected() {
	ledgerDebitRejectionsTotal.Inc()
}
