package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// PartyMemberAura is one aura shown on a party frame.
type PartyMemberAura struct {
	SpellID     int32
	Flags       uint16
	ActiveFlags uint32
	Points      []float32
}

// Serialize implements schema.Composite.
func (a *PartyMemberAura) Serialize(s *schema.Stream) {
	s.Int32(&a.SpellID)
	s.Uint16(&a.Flags)
	s.Uint32(&a.ActiveFlags)
	schema.Count(s, &a.Points, "PartyMemberAura.Points", 4, MaxAuraPoints)
	s.Flush()
	schema.Each(s, a.Points, func(s *schema.Stream, p *float32) { s.Float32(p) })
}

// PartyMemberPet is the pet summary attached to a party member.
type PartyMemberPet struct {
	GUID      GUID
	Name      string
	ModelID   int32
	Health    int32
	MaxHealth int32
}

// Serialize implements schema.Composite.
func (p *PartyMemberPet) Serialize(s *schema.Stream) {
	s.PackedGUID(&p.GUID)
	n := schema.StringLength(s, p.Name, 8)
	if n > MaxPetNameLength {
		s.Fail(&protocol.BoundError{Field: "PartyMemberPet.Name", Count: uint64(n), Max: MaxPetNameLength})
		return
	}
	s.Flush()
	s.String(&p.Name, n)
	s.Int32(&p.ModelID)
	s.Int32(&p.Health)
	s.Int32(&p.MaxHealth)
}

// PartyMemberAuras updates the aura list of one party member.
type PartyMemberAuras struct {
	MemberGUID GUID
	ForEnemy   bool
	Pet        *PartyMemberPet
	Auras      []PartyMemberAura
}

// Opcode implements Message.
func (*PartyMemberAuras) Opcode() protocol.Opcode { return SMSGPartyMemberAuras }

// Serialize implements schema.Composite.
func (m *PartyMemberAuras) Serialize(s *schema.Stream) {
	s.PackedGUID(&m.MemberGUID)
	s.Bit(&m.ForEnemy)
	schema.Present(s, &m.Pet)
	schema.Count(s, &m.Auras, "PartyMemberAuras.Auras", 9, MaxPartyAuras)
	s.Flush()
	schema.EachNested(s, m.Auras)
	if m.Pet != nil {
		s.Nested(m.Pet)
	}
}
