package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		bonusPointsGrantedTotal,
		bonusPointsConvertedTotal,
		bonusConversionAmountTotal,
		bonusGrantPassMembers,
		bonusGrantPassErrors,
		tokensIssuedTotal,
		tokensRedeemedTotal,
		tokensExpiredTotal,
	)
}

var (
	bonusPointsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonus_points_granted_total",
			Help: "Bonus points granted, by frequency.",
		},
		[]string{"frequency"},
	)

	bonusPointsConvertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bonus_points_converted_total",
			Help: "Bonus points converted into wallet credits.",
		},
	)

	bonusConversionAmountTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bonus_conversion_amount_total",
			Help: "Monetary value credited by point conversions, in minor units.",
		},
	)

	bonusGrantPassMembers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonus_grant_pass_members_total",
			Help: "Members examined by grant passes, by frequency.",
		},
		[]string{"frequency"},
	)

	bonusGrantPassErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonus_grant_pass_errors_total",
			Help: "Per-member failures inside grant passes, by frequency.",
		},
		[]string{"frequency"},
	)

	tokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jetons_issued_total",
			Help: "Jetons issued alongside monthly grants.",
		},
	)

	tokensRedeemedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jetons_redeemed_total",
			Help: "Jetons redeemed before expiry.",
		},
	)

	tokensExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jetons_expired_total",
			Help: "Jetons expired by the sweep.",
		},
	)
)

func AddPointsGranted(frequency string, points int64) {
	bonusPointsGrantedTotal.WithLabelValues(norm(frequency)).Add(float64(points))
}

func AddPointsConverted(points, amount int64) {
	bonusPointsConvertedTotal.Add(float64(points))
	bonusConversionAmountTotal.Add(float64(amount))
}

func ObserveGrantPass(frequency string, members int, points int64, errs int) {
	bonusGrantPassMembers.WithLabelValues(norm(frequency)).Add(float64(members))
	bonusGrantPassErrors.WithLabelValues(norm(frequency)).Add(float64(errs))
}

func AddTokensIssued(n int)  { tokensIssuedTotal.Add(float64(n)) }
func IncTokenRedeemed()      { tokensRedeemedTotal.Inc() }
func AddTokensExpired(n int) { tokensExpiredTotal.Add(float64(n)) }
