// Package metrics holds the Prometheus collectors for the session lifecycle.
// Collectors are package-level; the server registers them once at startup.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bistro"

var (
	GateDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gate",
		Name:      "decisions_total",
		Help:      "Authorization gate outcomes by rule.",
	}, []string{"outcome"})

	RefreshAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "refresh_total",
		Help:      "Token refresh attempts by result.",
	}, []string{"result"})

	Teardowns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "teardowns_total",
		Help:      "Session teardowns started after an HTTP 401.",
	})

	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "client_requests_total",
		Help:      "Outbound API calls by method and status class.",
	}, []string{"method", "class"})

	LoginThrottled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_throttled_total",
		Help:      "Login attempts rejected by the rate limiter.",
	})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{GateDecisions, RefreshAttempts, Teardowns, UpstreamRequests, LoginThrottled} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// StatusClass buckets an HTTP status for labels.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status == 401:
		return "401"
	case status == 422:
		return "422"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
