package lmrdecode

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by the decode pipeline.
type Metrics struct {
	framesCaptured      *prometheus.CounterVec // Frames emitted by a framer (protocol, pattern)
	framesInvalid       *prometheus.CounterVec // Frames rejected by a message processor (protocol)
	messagesDecoded     *prometheus.CounterVec // Messages dispatched (protocol)
	listenerFaults      prometheus.Counter     // Listener panics recovered by a broadcaster
	frequencyCorrection *prometheus.GaugeVec   // Latest AFC estimate in Hz (pipeline)
	trafficChannels     *prometheus.GaugeVec   // Traffic channels currently allocated (pipeline)
	mqttDropped         prometheus.Counter     // Messages dropped by a full MQTT queue
}

// NewMetrics creates the collectors and registers them with reg.
// nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	var factory = promauto.With(reg)

	return &Metrics{
		framesCaptured: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lmrdecode",
				Name:      "frames_captured_total",
				Help:      "Frames captured after a sync pattern match",
			},
			[]string{"protocol", "pattern"},
		),
		framesInvalid: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lmrdecode",
				Name:      "frames_invalid_total",
				Help:      "Frames dropped by a message processor because they failed validation",
			},
			[]string{"protocol"},
		),
		messagesDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lmrdecode",
				Name:      "messages_decoded_total",
				Help:      "Protocol messages dispatched to listeners",
			},
			[]string{"protocol"},
		),
		listenerFaults: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lmrdecode",
				Name:      "listener_faults_total",
				Help:      "Listener panics recovered during fan-out",
			},
		),
		frequencyCorrection: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lmrdecode",
				Name:      "frequency_correction_hz",
				Help:      "Most recent automatic frequency correction estimate",
			},
			[]string{"pipeline"},
		),
		trafficChannels: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lmrdecode",
				Name:      "traffic_channels_active",
				Help:      "Traffic channels currently allocated from the pool",
			},
			[]string{"pipeline"},
		),
		mqttDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lmrdecode",
				Name:      "mqtt_dropped_total",
				Help:      "Messages dropped because the MQTT publish queue was full",
			},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.framesCaptured,
		m.framesInvalid,
		m.messagesDecoded,
		m.listenerFaults,
		m.frequencyCorrection,
		m.trafficChannels,
		m.mqttDropped,
	}
}

// The package collectors.  Unregistered until RegisterMetrics is called.
var metrics = NewMetrics(nil)

// RegisterMetrics registers the package collectors with reg.
// Registering twice with the same registry is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range metrics.collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
