// Package session moves catalog messages over WebSocket connections.
//
// Every WebSocket binary message carries exactly one frame: a 6 byte
// header (payload length, opcode) followed by the payload. A Conn decodes
// inbound frames with a messages.Registry and encodes outbound messages
// the same way.
//
// # Server
//
//	reg := messages.NewRegistry(messages.WithLimits(limits))
//	srv := session.NewServer(reg, session.HandlerFunc(
//	    func(ctx context.Context, c *session.Conn, msg messages.Message) error {
//	        return c.Send(ctx, reply(msg))
//	    }),
//	    session.WithMetrics(collector, promRegistry),
//	    session.WithRecorder(captureStore),
//	)
//	http.ListenAndServe(":7878", srv)
//
// A payload that fails to decode is logged and skipped. A malformed
// frame, a text message or an oversized payload closes the session with
// the matching WebSocket close code.
//
// # Client
//
//	c, err := session.Dial(ctx, "ws://localhost:7878/ws", reg)
//	c.Send(ctx, &messages.ChatMessage{Text: "hello"})
//	msg, err := c.Receive(ctx)
//
// Spans for every send and receive go to the global OpenTelemetry tracer
// provider.
package session
