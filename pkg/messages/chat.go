package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// ChatMessage is a plain say/yell request from the client.
type ChatMessage struct {
	Language int32
	Text     string
}

// Opcode implements Message.
func (*ChatMessage) Opcode() protocol.Opcode { return CMSGChatMessageSay }

// Serialize implements schema.Composite.
func (m *ChatMessage) Serialize(s *schema.Stream) {
	s.Int32(&m.Language)
	n := schema.StringLength(s, m.Text, 11)
	if n > MaxChatTextLength {
		s.Fail(&protocol.BoundError{Field: "ChatMessage.Text", Count: uint64(n), Max: MaxChatTextLength})
		return
	}
	s.Flush()
	s.String(&m.Text, n)
}

// GuildEventMotd announces a new guild message of the day.
type GuildEventMotd struct {
	MotdText string
}

// Opcode implements Message.
func (*GuildEventMotd) Opcode() protocol.Opcode { return SMSGGuildEventMotd }

// Serialize implements schema.Composite.
func (m *GuildEventMotd) Serialize(s *schema.Stream) {
	n := schema.StringLength(s, m.MotdText, 10)
	if n > MaxGuildMotdLength {
		s.Fail(&protocol.BoundError{Field: "GuildEventMotd.MotdText", Count: uint64(n), Max: MaxGuildMotdLength})
		return
	}
	s.Flush()
	s.String(&m.MotdText, n)
}

// Motd carries the realm message of the day as zero-terminated lines.
type Motd struct {
	Lines []string
}

// Opcode implements Message.
func (*Motd) Opcode() protocol.Opcode { return SMSGMotd }

// Serialize implements schema.Composite.
func (m *Motd) Serialize(s *schema.Stream) {
	schema.ByteCount(s, &m.Lines, "Motd.Lines", MaxMotdLines)
	schema.Each(s, m.Lines, func(s *schema.Stream, line *string) {
		s.CString(line, MaxMotdLineLength)
	})
}
