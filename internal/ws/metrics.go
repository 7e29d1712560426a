package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	MatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlor_matches_total",
			Help: "Sessions created by the matchmaker",
		},
		[]string{"game"},
	)
	MovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlor_moves_total",
			Help: "Move messages dispatched to games",
		},
		[]string{"game"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parlor_active_sessions",
			Help: "Live sessions in the registry",
		},
	)
	CleanupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parlor_session_cleanups_total",
			Help: "Sessions discarded after the disconnect grace period",
		},
	)
)

func init() {
	prometheus.MustRegister(MatchesTotal)
	prometheus.MustRegister(MovesTotal)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(CleanupsTotal)
}
