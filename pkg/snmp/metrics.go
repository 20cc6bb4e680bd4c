package snmp

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus SNMP client metrics.
var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hpswitch_snmp_requests_total",
			Help: "Total number of SNMP operations by outcome.",
		},
		[]string{"op", "result"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hpswitch_snmp_request_duration_seconds",
			Help:    "SNMP operation duration in seconds, including retries and every step of a walk.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
}

// result label values.
const (
	resultOK = "ok"
)

func resultLabel(err error) string {
	if err == nil {
		return resultOK
	}
	var e *Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "error"
}
