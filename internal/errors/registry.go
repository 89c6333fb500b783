package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	"W001": {
		Category:   CategoryTruncation,
		Message:    "Payload ended before the message was complete",
		Detail:     "A field needed more bytes than remained in the payload.",
		Suggestion: "Check the frame length and that both peers agree on the message layout.",
	},
	"W002": {
		Category:   CategoryBounds,
		Message:    "Count exceeds protocol bound",
		Detail:     "A decoded count or length is larger than the schema allows.",
		Suggestion: "The peer announced more elements than the schema allows. Treat the payload as hostile or corrupt.",
	},
	"W003": {
		Category:   CategoryDispatch,
		Message:    "Unknown opcode",
		Detail:     "No message schema is registered for this opcode.",
		Suggestion: "Run `gamewire opcodes` to list the registered messages.",
	},
	"W004": {
		Category:   CategoryTruncation,
		Message:    "Unread bytes after message",
		Detail:     "The schema or the frame header finished while bytes remained.",
		Suggestion: "The opcode probably maps to a different layout version.",
	},
	"W005": {
		Category:   CategoryFraming,
		Message:    "Frame payload too large",
		Detail:     "The frame header announced a payload over the configured limit.",
		Suggestion: "Raise maxFrameSize in gamewire.json if the peer is trusted.",
	},
	"W006": {
		Category:   CategoryConfig,
		Message:    "Reference limit not configured",
		Detail:     "The message is bounded by reference data that was not supplied.",
		Suggestion: "Set the table under limits in gamewire.json.",
	},
	"W007": {
		Category:   CategorySchema,
		Message:    "Value does not fit its field",
		Detail:     "An encoded value is wider than its field or disagrees with an announced length.",
		Suggestion: "Clamp the value before encoding.",
	},
	"W008": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No gamewire.json was found.",
		Suggestion: "Create gamewire.json or pass --config.",
	},
	"W009": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "gamewire.json could not be parsed or holds an invalid value.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
