package controlplane

import "github.com/prometheus/client_golang/prometheus/promauto"
import "github.com/prometheus/client_golang/prometheus"

var sessionRequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mockling_session_requests_total",
	Help: "Number of control-plane session requests by outcome",
}, []string{"status"})

func observeSessionRequest(status string) {
	sessionRequestsCounter.WithLabelValues(status).Inc()
}
