package messages

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// ErrUnknownOpcode is returned when no schema is registered for an opcode.
var ErrUnknownOpcode = errors.New("messages: unknown opcode")

// DecodeError is returned by Registry.Decode. It carries the opcode of the
// rejected payload; Err is the underlying codec or schema error.
type DecodeError struct {
	Opcode protocol.Opcode
	Name   string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("messages: decode %s (%s): %v", e.Name, e.Opcode, e.Err)
	}
	return fmt.Sprintf("messages: decode %s: %v", e.Opcode, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Observer receives one call per encode or decode. pkg/metrics provides
// the Prometheus implementation.
type Observer interface {
	ObserveEncode(op protocol.Opcode, size int, err error)
	ObserveDecode(op protocol.Opcode, size int, err error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLimits sets the reference limits handed to every decode.
func WithLimits(l schema.Limits) RegistryOption {
	return func(r *Registry) { r.limits = l }
}

// WithLogger sets the logger used for rejected payloads.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver attaches an encode/decode observer.
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) { r.observer = o }
}

// WithEntries replaces the built-in catalog.
func WithEntries(entries ...Entry) RegistryOption {
	return func(r *Registry) {
		r.entries = make(map[protocol.Opcode]Entry, len(entries))
		for _, e := range entries {
			r.entries[e.Opcode] = e
		}
	}
}

// Registry maps opcodes to message schemas. It is immutable after
// NewRegistry and safe for concurrent use.
type Registry struct {
	entries  map[protocol.Opcode]Entry
	limits   schema.Limits
	logger   *slog.Logger
	observer Observer
}

// NewRegistry returns a registry holding the built-in catalog.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{logger: slog.Default()}
	WithEntries(Catalog()...)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the entry registered for op.
func (r *Registry) Lookup(op protocol.Opcode) (Entry, bool) {
	e, ok := r.entries[op]
	return e, ok
}

// Name returns the registered name of op, or its hex form.
func (r *Registry) Name(op protocol.Opcode) string {
	if e, ok := r.entries[op]; ok {
		return e.Name
	}
	return op.String()
}

// Entries returns every registered entry ordered by opcode.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Opcode < out[j].Opcode })
	return out
}

// Encode serializes msg.
func (r *Registry) Encode(msg Message) ([]byte, error) {
	data, err := schema.Encode(msg)
	if r.observer != nil {
		r.observer.ObserveEncode(msg.Opcode(), len(data), err)
	}
	if err != nil {
		return nil, fmt.Errorf("messages: encode %s: %w", r.Name(msg.Opcode()), err)
	}
	return data, nil
}

// EncodeFrame serializes msg and wraps it in a transport frame.
func (r *Registry) EncodeFrame(msg Message) (*protocol.Frame, error) {
	data, err := r.Encode(msg)
	if err != nil {
		return nil, err
	}
	if len(data) > protocol.MaxPayloadSize {
		return nil, fmt.Errorf("messages: encode %s: %w", r.Name(msg.Opcode()), protocol.ErrFrameTooLarge)
	}
	return protocol.NewFrame(msg.Opcode(), data), nil
}

// Decode deserializes data as the message registered for op. On failure
// the returned message is nil and the error is a *DecodeError.
func (r *Registry) Decode(op protocol.Opcode, data []byte) (Message, error) {
	msg, err := r.decode(op, data)
	if r.observer != nil {
		r.observer.ObserveDecode(op, len(data), err)
	}
	if err != nil {
		r.logger.Debug("decode rejected",
			"opcode", op.String(),
			"size", len(data),
			"error", err)
		return nil, err
	}
	return msg, nil
}

// DecodeFrame decodes the payload of f.
func (r *Registry) DecodeFrame(f *protocol.Frame) (Message, error) {
	return r.Decode(f.Opcode, f.Payload)
}

func (r *Registry) decode(op protocol.Opcode, data []byte) (Message, error) {
	e, ok := r.entries[op]
	if !ok {
		return nil, &DecodeError{Opcode: op, Err: ErrUnknownOpcode}
	}
	msg := e.New()
	if err := schema.Decode(data, msg, r.limits); err != nil {
		return nil, &DecodeError{Opcode: op, Name: e.Name, Err: err}
	}
	return msg, nil
}
