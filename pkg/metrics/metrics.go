// Package metrics exports decode counters for the rtapd pipeline.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rtapmon/pkg/protocol"
	"rtapmon/pkg/radiotap"
)

// Metrics tracks decode outcomes. A nil *Metrics ignores every call.
type Metrics struct {
	framesTotal *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	fieldsTotal *prometheus.CounterVec
	headerBytes prometheus.Histogram
	hubDropped  prometheus.CounterFunc
}

func New() *Metrics {
	return &Metrics{
		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rtapmon",
				Subsystem: "decode",
				Name:      "frames_total",
				Help:      "Capture buffers decoded, by source.",
			},
			[]string{"source"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rtapmon",
				Subsystem: "decode",
				Name:      "errors_total",
				Help:      "Radiotap decode failures, by error kind.",
			},
			[]string{"kind"},
		),
		fieldsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rtapmon",
				Subsystem: "decode",
				Name:      "fields_total",
				Help:      "Field descriptors produced, by namespace kind.",
			},
			[]string{"namespace"},
		),
		headerBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "rtapmon",
				Subsystem: "decode",
				Name:      "header_bytes",
				Help:      "Declared radiotap header length in bytes.",
				Buckets:   []float64{8, 16, 24, 32, 48, 64, 96, 128, 256},
			},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	for _, c := range []prometheus.Collector{m.framesTotal, m.errorsTotal, m.fieldsTotal, m.headerBytes} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	if m.hubDropped != nil {
		return reg.Register(m.hubDropped)
	}
	return nil
}

// TrackDropped exports fn as rtapmon_hub_dropped_total. Call it before
// Register.
func (m *Metrics) TrackDropped(fn func() uint64) {
	if m == nil || fn == nil {
		return
	}
	m.hubDropped = prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: "rtapmon",
			Subsystem: "hub",
			Name:      "dropped_total",
			Help:      "Captures not delivered to a full subscriber.",
		},
		func() float64 { return float64(fn()) },
	)
}

// Observe records one decoded capture.
func (m *Metrics) Observe(c protocol.Capture) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(c.Source).Inc()
	if c.Header.Len() > 0 {
		m.headerBytes.Observe(float64(c.Header.Len()))
	}
	for _, f := range c.Fields {
		m.fieldsTotal.WithLabelValues(f.Namespace.Kind.String()).Inc()
	}
	if c.Err != nil {
		m.errorsTotal.WithLabelValues(errorKind(c.Err)).Inc()
	}
}

func errorKind(err error) string {
	kind := radiotap.KindOf(err)
	if kind == nil {
		return "other"
	}
	label := strings.TrimPrefix(kind.Error(), "radiotap: ")
	return strings.ReplaceAll(label, " ", "_")
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
