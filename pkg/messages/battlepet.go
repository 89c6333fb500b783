package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// BattlePetJournalMask carries one bit per battle pet species the
// account has collected. Its size is bounded by the species table
// currently loaded, not by a protocol constant.
type BattlePetJournalMask struct {
	Mask []uint8
}

// Opcode implements Message.
func (*BattlePetJournalMask) Opcode() protocol.Opcode { return SMSGBattlePetJournalMask }

// Serialize implements schema.Composite.
func (m *BattlePetJournalMask) Serialize(s *schema.Stream) {
	max := protocol.BitmaskBytes(s.Bound(TableBattlePetSpecies))
	schema.Count(s, &m.Mask, "BattlePetJournalMask.Mask", 16, max)
	s.Flush()
	schema.Each(s, m.Mask, func(s *schema.Stream, b *uint8) { s.Uint8(b) })
}
