package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	claimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blum_farmer_claims_total",
		Help: "Farming rewards claimed",
	}, []string{"account"})

	startsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blum_farmer_cycle_starts_total",
		Help: "Farming cycles started",
	}, []string{"account"})

	friendsClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blum_farmer_friends_claims_total",
		Help: "Friends rewards claimed",
	}, []string{"account"})

	refreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blum_farmer_token_refreshes_total",
		Help: "Access token refresh attempts by result",
	}, []string{"result"})

	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blum_farmer_iteration_failures_total",
		Help: "Failed farming iterations by error kind",
	}, []string{"kind"})

	availableBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blum_farmer_available_balance",
		Help: "Last seen available balance",
	}, []string{"account"})

	farmBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blum_farmer_farm_balance",
		Help: "Last seen balance of the running farming cycle",
	}, []string{"account"})
)

// Recorder exposes the farmer counters. The zero value is ready to use
type Recorder struct{}

func (Recorder) Claimed(accountID int) {
	claimsTotal.WithLabelValues(label(accountID)).Inc()
}

func (Recorder) Started(accountID int) {
	startsTotal.WithLabelValues(label(accountID)).Inc()
}

func (Recorder) FriendsClaimed(accountID int) {
	friendsClaimsTotal.WithLabelValues(label(accountID)).Inc()
}

func (Recorder) Refreshed(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	refreshesTotal.WithLabelValues(result).Inc()
}

func (Recorder) Failed(kind string) {
	failuresTotal.WithLabelValues(kind).Inc()
}

func (Recorder) Balance(accountID int, available, farm float64) {
	availableBalance.WithLabelValues(label(accountID)).Set(available)
	farmBalance.WithLabelValues(label(accountID)).Set(farm)
}

func label(accountID int) string {
	return strconv.Itoa(accountID)
}
