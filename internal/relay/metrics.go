package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's instrumentation. A dedicated registry keeps
// the /metrics output free of default-collector noise.
type Metrics struct {
	Registry *prometheus.Registry

	Connections     prometheus.Gauge
	FramesRelayed   prometheus.Counter
	MalformedFrames prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "wwsnb",
			Subsystem: "relay",
			Name:      "connections",
			Help:      "Number of websocket connections currently attached.",
		}),
		FramesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wwsnb",
			Subsystem: "relay",
			Name:      "frames_relayed_total",
			Help:      "State pushes delivered to members.",
		}),
		MalformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wwsnb",
			Subsystem: "relay",
			Name:      "malformed_frames_total",
			Help:      "Inbound frames dropped as malformed.",
		}),
	}
}
