// Package metrics contains middlewares and counters for metrics gathering.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP Requests total counter
var totalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP Requests.",
	},
	[]string{"path"},
)

// HTTP Response status
var duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_duration",
		Help: "HTTP Requests Duration",
	},
	[]string{"path"},
)

// Queue snapshot polls issued by the desk board, by result.
var queuePolls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "desk_queue_polls_total",
		Help: "Queue snapshot polls issued by the desk board.",
	},
	[]string{"result"},
)

// Mutating desk operations (schedule confirmations, patient routings), by operation and result.
var deskMutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "desk_mutations_total",
		Help: "Desk mutations issued against the clinic API.",
	},
	[]string{"operation", "result"},
)

func init() {
	err := prometheus.Register(totalRequests)
	if err != nil {
		panic(err)
	}
	err = prometheus.Register(duration)
	if err != nil {
		panic(err)
	}
	err = prometheus.Register(queuePolls)
	if err != nil {
		panic(err)
	}
	err = prometheus.Register(deskMutations)
	if err != nil {
		panic(err)
	}
}

// PrometheusMiddleware instruments the given request and register metrics.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(duration.WithLabelValues(r.RequestURI))
		next.ServeHTTP(w, r)
		totalRequests.WithLabelValues(r.RequestURI).Inc()
		timer.ObserveDuration()
	})
}

// CountQueuePoll registers a queue snapshot poll with the given result ("ok" or "error").
func CountQueuePoll(result string) {
	queuePolls.WithLabelValues(result).Inc()
}

// CountDeskMutation registers a desk mutation with the given result ("ok" or "error").
func CountDeskMutation(operation string, result string) {
	deskMutations.WithLabelValues(operation, result).Inc()
}
