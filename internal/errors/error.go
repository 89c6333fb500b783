package errors

import (
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// Category represents the type of error.
type Category string

const (
	CategoryTruncation Category = "truncation"
	CategoryBounds     Category = "bounds"
	CategoryDispatch   Category = "dispatch"
	CategoryFraming    Category = "framing"
	CategorySchema     Category = "schema"
	CategoryConfig     Category = "config"
)

// maxDumpBytes caps the payload bytes rendered into Context.
const maxDumpBytes = 256

// Origin identifies the payload an error was raised for.
type Origin struct {
	Source string
	Opcode protocol.Opcode
	Name   string
	Size   int
}

// String returns the origin as a formatted string.
func (o *Origin) String() string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	if o.Source != "" {
		b.WriteString(o.Source)
		b.WriteString(": ")
	}
	if o.Name != "" {
		fmt.Fprintf(&b, "%s (%s)", o.Name, o.Opcode)
	} else {
		b.WriteString(o.Opcode.String())
	}
	fmt.Fprintf(&b, ", %d bytes", o.Size)
	return b.String()
}

// WireError is a structured codec error with origin and suggestions.
type WireError struct {
	// Code is a unique error identifier (e.g., "W001").
	Code string

	// Category is the error type (truncation, bounds, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Origin is the frame the error was raised for.
	Origin *Origin

	// Context holds a hex dump of the offending payload.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WireError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WireError) Unwrap() error {
	return e.Wrapped
}

// WithOrigin records the frame the error belongs to.
func (e *WireError) WithOrigin(source string, op protocol.Opcode, name string, size int) *WireError {
	e.Origin = &Origin{Source: source, Opcode: op, Name: name, Size: size}
	return e
}

// WithSource names where the payload came from (a capture, a peer).
func (e *WireError) WithSource(source string) *WireError {
	if e.Origin == nil {
		e.Origin = &Origin{}
	}
	e.Origin.Source = source
	return e
}

// WithPayload renders up to 256 bytes of payload as a hex dump and records
// its size on the origin.
func (e *WireError) WithPayload(payload []byte) *WireError {
	if e.Origin != nil {
		e.Origin.Size = len(payload)
	}
	if len(payload) > maxDumpBytes {
		payload = payload[:maxDumpBytes]
	}
	e.Context = strings.Split(strings.TrimRight(hex.Dump(payload), "\n"), "\n")
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WireError) WithSuggestion(s string) *WireError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *WireError) WithDetail(d string) *WireError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *WireError) Wrap(err error) *WireError {
	e.Wrapped = err
	return e
}

// New creates a WireError from a registered error code.
func New(code string) *WireError {
	template, ok := registry[code]
	if !ok {
		return &WireError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WireError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new WireError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WireError {
	return &WireError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WireError.
func FromError(err error, code string) *WireError {
	if err == nil {
		return nil
	}
	var we *WireError
	if stderrors.As(err, &we) {
		return we
	}
	return New(code).Wrap(err)
}

// Code returns the registered code matching a codec error, or "" when
// err is not a wire failure.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, protocol.ErrBoundViolation), stderrors.Is(err, protocol.ErrAllocationTooLarge):
		return "W002"
	case stderrors.Is(err, protocol.ErrTruncated):
		return "W001"
	case stderrors.Is(err, messages.ErrUnknownOpcode):
		return "W003"
	case stderrors.Is(err, schema.ErrTrailingData), stderrors.Is(err, protocol.ErrFrameLength):
		return "W004"
	case stderrors.Is(err, protocol.ErrFrameTooLarge):
		return "W005"
	case stderrors.Is(err, schema.ErrMissingLimit):
		return "W006"
	case stderrors.Is(err, schema.ErrFieldOverflow), stderrors.Is(err, schema.ErrLengthMismatch):
		return "W007"
	}
	return ""
}

// FromDecodeError maps a Registry.Decode failure to a WireError. The
// origin is filled from a *messages.DecodeError when err carries one.
func FromDecodeError(err error) *WireError {
	if err == nil {
		return nil
	}
	code := Code(err)
	var we *WireError
	if code == "" {
		we = Newf(CategorySchema, "%v", err).Wrap(err)
	} else {
		we = New(code).Wrap(err)
		we.Detail = err.Error()
	}
	var de *messages.DecodeError
	if stderrors.As(err, &de) {
		we.Origin = &Origin{Opcode: de.Opcode, Name: de.Name}
	}
	return we
}
