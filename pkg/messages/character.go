package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// CharacterRenameResult answers a rename request. GUID is present only
// when the server resolved the character.
type CharacterRenameResult struct {
	Result uint8
	GUID   *GUID
	Name   string
}

// Opcode implements Message.
func (*CharacterRenameResult) Opcode() protocol.Opcode { return SMSGCharacterRenameResult }

// Serialize implements schema.Composite.
func (m *CharacterRenameResult) Serialize(s *schema.Stream) {
	s.Uint8(&m.Result)
	schema.Present(s, &m.GUID)
	n := schema.StringLength(s, m.Name, 6)
	s.Flush()
	if m.GUID != nil {
		s.PackedGUID(m.GUID)
	}
	s.String(&m.Name, n)
}
