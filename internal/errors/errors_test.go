package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/gamewire/pkg/messages"
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "truncation",
			code:    "W001",
			wantMsg: "Payload ended before the message was complete",
			wantCat: CategoryTruncation,
		},
		{
			name:    "bounds",
			code:    "W002",
			wantMsg: "Count exceeds protocol bound",
			wantCat: CategoryBounds,
		},
		{
			name:    "framing",
			code:    "W005",
			wantMsg: "Frame payload too large",
			wantCat: CategoryFraming,
		},
		{
			name:    "unknown error code",
			code:    "W999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestWireError_Error(t *testing.T) {
	if got, want := New("W003").Error(), "W003: Unknown opcode"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := (&WireError{Message: "test error"}).Error(); got != "test error" {
		t.Errorf("Error() = %q, want %q", got, "test error")
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"truncated", protocol.ErrTruncated, "W001"},
		{"bound", &protocol.BoundError{Field: "items", Count: 9, Max: 4}, "W002"},
		{"allocation", protocol.ErrAllocationTooLarge, "W002"},
		{"unknown_opcode", &messages.DecodeError{Opcode: 1, Err: messages.ErrUnknownOpcode}, "W003"},
		{"trailing", fmt.Errorf("wrapped: %w", schema.ErrTrailingData), "W004"},
		{"frame", protocol.ErrFrameTooLarge, "W005"},
		{"frame_length", protocol.ErrFrameLength, "W004"},
		{"missing_limit", schema.ErrMissingLimit, "W006"},
		{"overflow", schema.ErrFieldOverflow, "W007"},
		{"other", stderrors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromDecodeError(t *testing.T) {
	if FromDecodeError(nil) != nil {
		t.Fatal("FromDecodeError(nil) should return nil")
	}

	r := messages.NewRegistry()
	payload := append(make([]byte, 22), 0x82)
	_, err := r.Decode(messages.CMSGAuctionSellItem, payload)
	if err == nil {
		t.Fatal("Decode() succeeded")
	}

	we := FromDecodeError(err).WithSource("capture-0007").WithPayload(payload)
	if we.Code != "W002" {
		t.Errorf("Code = %q, want W002", we.Code)
	}
	if !stderrors.Is(we, protocol.ErrBoundViolation) {
		t.Error("WireError should unwrap to ErrBoundViolation")
	}
	if we.Origin == nil || we.Origin.Name != "CMSG_AUCTION_SELL_ITEM" || we.Origin.Size != 23 {
		t.Fatalf("Origin = %+v", we.Origin)
	}
	want := "capture-0007: CMSG_AUCTION_SELL_ITEM (0x34D2), 23 bytes"
	if got := we.Origin.String(); got != want {
		t.Errorf("Origin.String() = %q, want %q", got, want)
	}
	if len(we.Context) != 2 {
		t.Errorf("Context = %d lines, want 2", len(we.Context))
	}

	plain := FromDecodeError(stderrors.New("boom"))
	if plain.Code != "" || plain.Category != CategorySchema {
		t.Errorf("FromDecodeError(other) = %+v", plain)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "W001") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	we := New("W001")
	if FromError(fmt.Errorf("ctx: %w", we), "W002") != we {
		t.Error("FromError should return a wrapped WireError as-is")
	}

	std := stderrors.New("test error")
	if got := FromError(std, "W001"); got.Wrapped != std {
		t.Error("Standard error should be wrapped")
	}
}

func TestOrigin_String(t *testing.T) {
	tests := []struct {
		name   string
		origin *Origin
		want   string
	}{
		{"nil", nil, ""},
		{"opcode_only", &Origin{Opcode: 0x2BC5, Size: 6}, "0x2BC5, 6 bytes"},
		{"named", &Origin{Opcode: 0x2BC5, Name: "SMSG_MOTD", Size: 6}, "SMSG_MOTD (0x2BC5), 6 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.origin.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("W001").
		WithOrigin("peer", 0x2BC5, "SMSG_MOTD", 0).
		WithPayload([]byte{0x01, 0x00}).
		WithSuggestion("Check the frame length")

	formatted := err.Format()
	for _, want := range []string{"W001", "Payload ended", "peer: SMSG_MOTD (0x2BC5), 2 bytes", "00000000  01 00", "Hint:"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("W004").WithOrigin("", 0x37E8, "CMSG_CHAT_MESSAGE_SAY", 9)
	want := "CMSG_CHAT_MESSAGE_SAY (0x37E8), 9 bytes: W004: Unread bytes after message"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	json := New("W002").WithOrigin("", 0x34D2, "CMSG_AUCTION_SELL_ITEM", 23).FormatJSON()
	for _, want := range []string{`"code":"W002"`, `"category":"bounds"`, `"opcode":"0x34D2"`, `"size":23`} {
		if !strings.Contains(json, want) {
			t.Errorf("FormatJSON() missing %s: %s", want, json)
		}
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	PrintError(&b, fmt.Errorf("wrapped: %w", New("W003")))
	if !strings.Contains(b.String(), "ERROR W003: Unknown opcode") {
		t.Errorf("PrintError() = %q", b.String())
	}

	b.Reset()
	PrintError(&b, stderrors.New("plain"))
	if !strings.Contains(b.String(), "ERROR: plain") {
		t.Errorf("PrintError() = %q", b.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) != 9 {
		t.Fatalf("GetAllCodes() = %v", codes)
	}
	if codes[0] != "W001" || codes[8] != "W009" {
		t.Errorf("GetAllCodes() not ordered: %v", codes)
	}
}

func TestRegister(t *testing.T) {
	Register("W999", ErrorTemplate{Category: CategorySchema, Message: "Custom test error"})
	defer delete(registry, "W999")

	if got := New("W999").Message; got != "Custom test error" {
		t.Errorf("Message = %q, want %q", got, "Custom test error")
	}
	if _, ok := GetTemplate("W999"); !ok {
		t.Error("W999 should exist")
	}
}

func TestWrapText(t *testing.T) {
	if got := wrapText("short text", 100); len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}
	if got := wrapText("this is a longer text that should be wrapped", 20); len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}
	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}
	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
