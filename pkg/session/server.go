package session

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

// Handler processes one decoded message. Returning an error closes the
// connection.
type Handler interface {
	ServeMessage(ctx context.Context, c *Conn, msg messages.Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, c *Conn, msg messages.Message) error

// ServeMessage implements Handler.
func (f HandlerFunc) ServeMessage(ctx context.Context, c *Conn, msg messages.Message) error {
	return f(ctx, c, msg)
}

// Server accepts WebSocket sessions and dispatches their messages.
//
// Routes:
//
//	GET <ws path>       WebSocket upgrade (default /ws)
//	GET <metrics path>  Prometheus exposition, when a gatherer is set
//	GET /healthz        liveness
type Server struct {
	router   chi.Router
	upgrader websocket.Upgrader
	registry *messages.Registry
	handler  Handler
	options  options

	mu    sync.Mutex
	conns map[*Conn]struct{}
	byIP  map[string]int
	wg    sync.WaitGroup
}

// ErrTooManyConnections is returned when a client address is at its
// session limit.
var ErrTooManyConnections = errors.New("session: too many connections from this address")

// NewServer creates a server that decodes with reg and hands each
// message to h.
func NewServer(reg *messages.Registry, h Handler, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	check := o.checkOrigin
	if check == nil {
		check = sameOrigin(o.allowedOrigins)
	}

	s := &Server{
		registry: reg,
		handler:  h,
		options:  o,
		conns:    make(map[*Conn]struct{}),
		byIP:     make(map[string]int),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     check,
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get(o.wsPath, s.handleWebSocket)
	if o.gatherer != nil {
		r.Handle(o.metricsPath, promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ActiveConnections returns the number of open sessions.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown closes every session with CloseGoingAway and waits for their
// loops to return or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.conns {
		c.CloseWith(websocket.CloseGoingAway, "server shutting down")
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acquire reserves a session slot for ip.
func (s *Server) acquire(ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.options.maxConnsPerIP > 0 && s.byIP[ip] >= s.options.maxConnsPerIP {
		return ErrTooManyConnections
	}
	s.byIP[ip]++
	s.wg.Add(1)
	return nil
}

func (s *Server) release(ip string, c *Conn) {
	s.mu.Lock()
	if c != nil {
		delete(s.conns, c)
	}
	s.byIP[ip]--
	if s.byIP[ip] <= 0 {
		delete(s.byIP, ip)
	}
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if err := s.acquire(ip); err != nil {
		s.options.logger.Warn("session rejected", "ip", ip, "error", err)
		if s.options.metrics != nil {
			s.options.metrics.ConnectionError("ip_limit")
		}
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release(ip, nil)
		s.options.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := newConn(ws, s.registry, s.options)

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	defer s.release(ip, c)

	s.options.logger.Info("session opened", "remote", c.RemoteAddr())
	s.serve(r.Context(), c)
	s.options.logger.Info("session closed", "remote", c.RemoteAddr())
}

// clientIP returns the host part of RemoteAddr, which RealIP has already
// rewritten from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// serve runs the read loop. Payloads that fail to decode are logged and
// skipped; malformed frames and handler errors end the session.
func (s *Server) serve(ctx context.Context, c *Conn) {
	defer c.Close()
	logger := s.options.logger.With("remote", c.RemoteAddr())

	for {
		msg, err := c.Receive(ctx)
		var decodeErr *messages.DecodeError
		switch {
		case err == nil:
		case errors.As(err, &decodeErr):
			logger.Warn("message rejected",
				"opcode", decodeErr.Opcode.String(),
				"name", s.registry.Name(decodeErr.Opcode),
				"error", decodeErr.Err)
			continue
		case errors.Is(err, protocol.ErrFrameTooLarge):
			c.CloseWith(websocket.CloseMessageTooBig, "frame too large")
			return
		case errors.Is(err, ErrNotBinary), errors.Is(err, ErrFrameLength), errors.Is(err, protocol.ErrTruncated):
			logger.Warn("malformed frame", "error", err)
			c.CloseWith(websocket.CloseProtocolError, "malformed frame")
			return
		default:
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				logger.Error("read error", "error", err)
			}
			return
		}

		if err := s.handler.ServeMessage(ctx, c, msg); err != nil {
			logger.Error("handler failed", "opcode", msg.Opcode().String(), "error", err)
			c.CloseWith(websocket.CloseInternalServerErr, "handler error")
			return
		}
	}
}
