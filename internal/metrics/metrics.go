package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	votesCastTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballot_votes_cast_total",
		Help: "Total number of votes accepted",
	})
	voteRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballot_vote_rejections_total",
		Help: "Total number of vote attempts rejected, by reason",
	}, []string{"reason"})
	loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballot_logins_total",
		Help: "Total number of login attempts, by result",
	}, []string{"result"})
	panicsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ballot_http_panics_total",
		Help: "Total number of handler panics recovered, by route",
	}, []string{"route"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ballot_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(votesCastTotal, voteRejectionsTotal, loginsTotal, panicsTotal, requestDuration)
}

// IncVoteCast increments the accepted votes counter.
func IncVoteCast() { votesCastTotal.Inc() }

// IncVoteRejected increments the rejected votes counter for reason.
func IncVoteRejected(reason string) { voteRejectionsTotal.WithLabelValues(reason).Inc() }

// IncLogin increments the login counter for result ("success", "failure", "locked").
func IncLogin(result string) { loginsTotal.WithLabelValues(result).Inc() }

// IncPanic counts a recovered panic on route.
func IncPanic(route string) { panicsTotal.WithLabelValues(route).Inc() }

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(method, route, status string, seconds float64) {
	requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
