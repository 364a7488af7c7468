package ringserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	streams  *prometheus.GaugeVec
	failures *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ringserver",
			Name:      "records_served_total",
			Help:      "Ring items sent to clients",
		}, []string{"ring"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ringserver",
			Name:      "bytes_served_total",
			Help:      "Ring item bytes sent to clients, before compression",
		}, []string{"ring"}),
		streams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ringserver",
			Name:      "streams_active",
			Help:      "Ring streams being served",
		}, []string{"ring", "protocol"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ringserver",
			Name:      "source_failures_total",
			Help:      "Ring sources that failed to open or broke while streaming",
		}, []string{"ring"}),
	}
	m.registry.MustRegister(
		m.records,
		m.bytes,
		m.streams,
		m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) served(ring string, size int) {
	m.records.WithLabelValues(ring).Inc()
	m.bytes.WithLabelValues(ring).Add(float64(size))
}
