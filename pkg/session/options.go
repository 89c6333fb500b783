package session

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/metrics"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

// Defaults for connection and server options.
const (
	DefaultWriteTimeout  = 10 * time.Second
	DefaultReadTimeout   = 60 * time.Second
	DefaultWebSocketPath = "/ws"
	DefaultMetricsPath   = "/metrics"
)

type options struct {
	logger       *slog.Logger
	metrics      *metrics.Collector
	gatherer     prometheus.Gatherer
	recorder     capture.Store
	writeTimeout time.Duration
	readTimeout  time.Duration
	maxFrameSize int

	maxConnsPerIP int

	wsPath         string
	metricsPath    string
	allowedOrigins []string
	checkOrigin    func(r *http.Request) bool
}

func defaultOptions() options {
	return options{
		logger:       slog.Default(),
		writeTimeout: DefaultWriteTimeout,
		readTimeout:  DefaultReadTimeout,
		maxFrameSize: protocol.MaxPayloadSize,
		wsPath:       DefaultWebSocketPath,
		metricsPath:  DefaultMetricsPath,
	}
}

// Option configures a Server or a dialed Conn.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics attaches a collector for frame and connection counts. When
// g is non-nil the server also serves it on the metrics path. Per-message
// counts come from the registry: build it with
// messages.WithObserver(c) to record them.
func WithMetrics(c *metrics.Collector, g prometheus.Gatherer) Option {
	return func(o *options) {
		o.metrics = c
		o.gatherer = g
	}
}

// WithRecorder stores every inbound frame in s.
func WithRecorder(s capture.Store) Option {
	return func(o *options) {
		o.recorder = s
	}
}

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// WithReadTimeout bounds the wait for each inbound frame. Zero disables
// the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithMaxFrameSize caps inbound payloads. Values outside
// (0, protocol.MaxPayloadSize] are ignored.
func WithMaxFrameSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= protocol.MaxPayloadSize {
			o.maxFrameSize = n
		}
	}
}

// WithMaxConnsPerIP limits concurrent sessions from one client address.
// Zero means no limit.
func WithMaxConnsPerIP(n int) Option {
	return func(o *options) {
		o.maxConnsPerIP = n
	}
}

// WithPaths sets the WebSocket and metrics routes.
func WithPaths(ws, metrics string) Option {
	return func(o *options) {
		if ws != "" {
			o.wsPath = ws
		}
		if metrics != "" {
			o.metricsPath = metrics
		}
	}
}

// WithAllowedOrigins accepts cross-origin upgrades from the listed
// origins in addition to same-origin requests.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		o.allowedOrigins = append(o.allowedOrigins, origins...)
	}
}

// WithCheckOrigin replaces the origin check entirely.
func WithCheckOrigin(f func(r *http.Request) bool) Option {
	return func(o *options) {
		o.checkOrigin = f
	}
}

// sameOrigin accepts requests without an Origin header, requests whose
// origin host matches the request host, and the allowed origins.
func sameOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if origin == a {
				return true
			}
		}
		u, err := url.Parse(origin)
		if err != nil || r.Host == "" {
			return false
		}
		return u.Host == r.Host
	}
}
