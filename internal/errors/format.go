package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

// color wraps text in ANSI color codes if colors are enabled.
func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

// Format returns the error formatted for terminal display.
func (e *WireError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red(bold("ERROR ")))
		b.WriteString(white(bold(e.Code + ": ")))
		b.WriteString(white(e.Message))
	} else {
		b.WriteString(red(bold("ERROR: ")))
		b.WriteString(white(e.Message))
	}
	b.WriteString("\n\n")

	if e.Origin != nil {
		b.WriteString("  ")
		b.WriteString(cyan(e.Origin.String()))
		b.WriteString("\n\n")
	}

	if len(e.Context) > 0 {
		for _, line := range e.Context {
			b.WriteString("    ")
			b.WriteString(gray(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *WireError) FormatCompact() string {
	var b strings.Builder

	if e.Origin != nil {
		b.WriteString(e.Origin.String())
		b.WriteString(": ")
	}

	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	return b.String()
}

type jsonOrigin struct {
	Source string `json:"source,omitempty"`
	Opcode string `json:"opcode"`
	Name   string `json:"name,omitempty"`
	Size   int    `json:"size"`
}

type jsonError struct {
	Code       string      `json:"code,omitempty"`
	Category   Category    `json:"category"`
	Message    string      `json:"message"`
	Detail     string      `json:"detail,omitempty"`
	Origin     *jsonOrigin `json:"origin,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *WireError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Origin != nil {
		out.Origin = &jsonOrigin{
			Source: e.Origin.Source,
			Opcode: e.Origin.Opcode.String(),
			Name:   e.Origin.Name,
			Size:   e.Origin.Size,
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// PrintError prints a formatted error to w.
func PrintError(w io.Writer, err error) {
	var we *WireError
	if stderrors.As(err, &we) {
		fmt.Fprint(w, we.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}
