package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
)

const tracerName = "gamewire/session"

// ErrClosed is returned by Send and Receive after Close.
var ErrClosed = errors.New("session: connection closed")

// Framing errors.
var (
	ErrNotBinary = errors.New("session: expected binary message")

	// ErrFrameLength is returned when a WebSocket message carries bytes
	// past the payload its frame header declares.
	ErrFrameLength = protocol.ErrFrameLength
)

// Conn carries catalog messages over a WebSocket, one frame per
// WebSocket binary message. Send is safe for concurrent use; Receive
// must be called from a single goroutine.
type Conn struct {
	ws       *websocket.Conn
	registry *messages.Registry
	options  options
	tracer   trace.Tracer
	remote   string

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(ws *websocket.Conn, reg *messages.Registry, o options) *Conn {
	ws.SetReadLimit(protocol.FrameHeaderSize + protocol.MaxPayloadSize)
	if o.metrics != nil {
		o.metrics.ConnectionOpened()
	}
	return &Conn{
		ws:       ws,
		registry: reg,
		options:  o,
		tracer:   otel.Tracer(tracerName),
		remote:   ws.RemoteAddr().String(),
		closed:   make(chan struct{}),
	}
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// Send encodes msg and writes it as one frame.
func (c *Conn) Send(ctx context.Context, msg messages.Message) error {
	name := c.registry.Name(msg.Opcode())
	_, span := c.tracer.Start(ctx, "gamewire.send "+name,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("gamewire.opcode", msg.Opcode().String())),
	)
	defer span.End()

	frame, err := c.registry.EncodeFrame(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("gamewire.payload_size", len(frame.Payload)))

	if err := c.WriteFrame(frame); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// WriteFrame writes a pre-encoded frame.
func (c *Conn) WriteFrame(f *protocol.Frame) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(c.options.writeTimeout))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		c.connectionError("write")
		return fmt.Errorf("session: write %s: %w", f.Opcode, err)
	}
	if c.options.metrics != nil {
		c.options.metrics.FrameOut()
	}
	return nil
}

// ReadFrame blocks until the next frame arrives. Frames are recorded to
// the capture store before they are returned.
func (c *Conn) ReadFrame(ctx context.Context) (*protocol.Frame, error) {
	if c.options.readTimeout > 0 {
		c.ws.SetReadDeadline(time.Now().Add(c.options.readTimeout))
	}
	typ, data, err := c.ws.ReadMessage()
	if err != nil {
		select {
		case <-c.closed:
			return nil, ErrClosed
		default:
		}
		return nil, err
	}
	if typ != websocket.BinaryMessage {
		c.connectionError("text_message")
		return nil, ErrNotBinary
	}
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		c.connectionError("frame")
		return nil, err
	}
	if len(f.Payload) > c.options.maxFrameSize {
		c.connectionError("frame")
		return nil, fmt.Errorf("session: %s payload of %d bytes: %w", f.Opcode, len(f.Payload), protocol.ErrFrameTooLarge)
	}
	if c.options.metrics != nil {
		c.options.metrics.FrameIn()
	}
	c.record(ctx, f)
	return f, nil
}

// Receive reads the next frame and decodes it. A frame that fails to
// decode is returned with a *messages.DecodeError; the connection stays
// usable.
func (c *Conn) Receive(ctx context.Context) (messages.Message, error) {
	f, err := c.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}
	_, span := c.tracer.Start(ctx, "gamewire.receive "+c.registry.Name(f.Opcode),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("gamewire.opcode", f.Opcode.String()),
			attribute.Int("gamewire.payload_size", len(f.Payload)),
		),
	)
	defer span.End()

	msg, err := c.registry.DecodeFrame(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return msg, nil
}

func (c *Conn) record(ctx context.Context, f *protocol.Frame) {
	if c.options.recorder == nil {
		return
	}
	rec := capture.NewRecord(f.Opcode, f.Payload, c.remote)
	if _, err := c.options.recorder.Put(ctx, rec); err != nil {
		c.options.logger.Warn("capture failed", "opcode", f.Opcode.String(), "error", err)
	}
}

func (c *Conn) connectionError(kind string) {
	if c.options.metrics != nil {
		c.options.metrics.ConnectionError(kind)
	}
}

// Close sends a close message and closes the socket.
func (c *Conn) Close() error {
	return c.CloseWith(websocket.CloseNormalClosure, "")
}

// CloseWith closes the socket with a specific close code.
func (c *Conn) CloseWith(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
		if c.options.metrics != nil {
			c.options.metrics.ConnectionClosed()
		}
	})
	return err
}

// Dial connects to a gamewire server at url (ws:// or wss://).
func Dial(ctx context.Context, url string, reg *messages.Registry, opts ...Option) (*Conn, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("session: dial %s: %w", url, err)
	}
	return newConn(ws, reg, o), nil
}
