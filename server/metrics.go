package server

import "github.com/prometheus/client_golang/prometheus/promauto"
import "github.com/prometheus/client_golang/prometheus"

var flightInfoRequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mockling_flight_info_requests_total",
	Help: "Number of GetFlightInfo requests by command type",
}, []string{"command"})

var doGetRequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mockling_do_get_requests_total",
	Help: "Number of DoGet requests by ticket kind",
}, []string{"kind"})

var queryFailuresCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mockling_query_failures_total",
	Help: "Number of queries that failed to plan or execute",
})

var activeStreamsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "mockling_active_streams",
	Help: "Number of DoGet streams currently open",
})

func observeFlightInfoRequest(command string) {
	flightInfoRequestsCounter.WithLabelValues(command).Inc()
}

func observeDoGetRequest(kind string) {
	doGetRequestsCounter.WithLabelValues(kind).Inc()
}

func observeQueryFailure() {
	queryFailuresCounter.Inc()
}

func observeStreamOpen() {
	activeStreamsGauge.Inc()
}

func observeStreamClosed() {
	activeStreamsGauge.Dec()
}
