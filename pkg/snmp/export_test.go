package snmp

import "github.com/prometheus/client_golang/prometheus"

// RequestsTotal exposes the request counter to external tests.
func RequestsTotal() *prometheus.CounterVec { return requestsTotal }
