// Package metrics exports codec and session activity to Prometheus.
//
// A Collector implements messages.Observer, so attaching it to a registry
// is enough to count every encode and decode:
//
//	m := metrics.New(metrics.WithRegistry(prometheus.NewRegistry()))
//	reg := messages.NewRegistry(messages.WithObserver(m))
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "gamewire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// SizeBuckets are the histogram buckets for payload sizes in bytes.
	// Default: powers of four from 16 bytes to 1MB.
	SizeBuckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Entries are the opcodes labelled by name. Anything else is
	// labelled "unknown" so hostile traffic cannot grow the label set.
	// Default: messages.Catalog()
	Entries []messages.Entry
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithSizeBuckets sets the payload size histogram buckets.
func WithSizeBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.SizeBuckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithEntries sets the opcodes labelled by name.
func WithEntries(entries []messages.Entry) Option {
	return func(c *Config) {
		c.Entries = entries
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:   "gamewire",
		SizeBuckets: prometheus.ExponentialBuckets(16, 4, 9),
		Registry:    prometheus.DefaultRegisterer,
		Entries:     messages.Catalog(),
	}
}

// Collector holds the codec and session metrics.
type Collector struct {
	messagesTotal     *prometheus.CounterVec
	payloadBytes      *prometheus.HistogramVec
	framesTotal       *prometheus.CounterVec
	activeConnections prometheus.Gauge
	connectionErrors  *prometheus.CounterVec

	names map[protocol.Opcode]string
}

// New registers the metrics with the configured registry. Registering
// twice with the same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	c := &Collector{
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_total",
			Help:        "Messages encoded or decoded, by opcode and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "opcode", "status"}),

		payloadBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "payload_bytes",
			Help:        "Size of successfully coded payloads in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.SizeBuckets,
		}, []string{"direction", "opcode"}),

		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_total",
			Help:        "Frames moved over sessions",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_connections",
			Help:        "Number of open sessions",
			ConstLabels: config.ConstLabels,
		}),

		connectionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connection_errors_total",
			Help:        "Session errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),

		names: make(map[protocol.Opcode]string, len(config.Entries)),
	}
	for _, e := range config.Entries {
		c.names[e.Opcode] = e.Name
	}
	return c
}

// Direction labels.
const (
	DirectionEncode = "encode"
	DirectionDecode = "decode"
	DirectionIn     = "in"
	DirectionOut    = "out"
)

// ObserveEncode implements messages.Observer.
func (c *Collector) ObserveEncode(op protocol.Opcode, size int, err error) {
	c.observe(DirectionEncode, op, size, err)
}

// ObserveDecode implements messages.Observer.
func (c *Collector) ObserveDecode(op protocol.Opcode, size int, err error) {
	c.observe(DirectionDecode, op, size, err)
}

func (c *Collector) observe(direction string, op protocol.Opcode, size int, err error) {
	name := c.opcodeLabel(op)
	c.messagesTotal.WithLabelValues(direction, name, Status(err)).Inc()
	if err == nil {
		c.payloadBytes.WithLabelValues(direction, name).Observe(float64(size))
	}
}

// FrameIn counts a frame read from a session.
func (c *Collector) FrameIn() { c.framesTotal.WithLabelValues(DirectionIn).Inc() }

// FrameOut counts a frame written to a session.
func (c *Collector) FrameOut() { c.framesTotal.WithLabelValues(DirectionOut).Inc() }

// ConnectionOpened increments the active connection gauge.
func (c *Collector) ConnectionOpened() { c.activeConnections.Inc() }

// ConnectionClosed decrements the active connection gauge.
func (c *Collector) ConnectionClosed() { c.activeConnections.Dec() }

// ConnectionError counts a session error of the given type.
func (c *Collector) ConnectionError(errorType string) {
	c.connectionErrors.WithLabelValues(errorType).Inc()
}

func (c *Collector) opcodeLabel(op protocol.Opcode) string {
	if name, ok := c.names[op]; ok {
		return name
	}
	return "unknown"
}

// Status classifies a codec error for the status label.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, messages.ErrUnknownOpcode):
		return "unknown_opcode"
	case errors.Is(err, protocol.ErrTruncated):
		return "truncated"
	case errors.Is(err, protocol.ErrBoundViolation), errors.Is(err, protocol.ErrAllocationTooLarge):
		return "bound"
	case errors.Is(err, schema.ErrTrailingData):
		return "trailing"
	case errors.Is(err, schema.ErrMissingLimit):
		return "missing_limit"
	case errors.Is(err, schema.ErrFieldOverflow), errors.Is(err, schema.ErrLengthMismatch):
		return "overflow"
	case errors.Is(err, protocol.ErrFrameTooLarge):
		return "frame_too_large"
	default:
		return "error"
	}
}
