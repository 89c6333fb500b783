package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// SpellLogPowerData is one power bar snapshot in a combat log entry.
type SpellLogPowerData struct {
	PowerType int32
	Amount    int32
	Cost      int32
}

// Serialize implements schema.Composite.
func (p *SpellLogPowerData) Serialize(s *schema.Stream) {
	s.Int32(&p.PowerType)
	s.Int32(&p.Amount)
	s.Int32(&p.Cost)
}

// SpellCastLogData is the caster snapshot attached to advanced combat log
// entries.
type SpellCastLogData struct {
	Health      int64
	AttackPower int32
	SpellPower  int32
	Armor       int32
	PowerData   []SpellLogPowerData
}

// Serialize implements schema.Composite.
func (l *SpellCastLogData) Serialize(s *schema.Stream) {
	s.Int64(&l.Health)
	s.Int32(&l.AttackPower)
	s.Int32(&l.SpellPower)
	s.Int32(&l.Armor)
	schema.Count(s, &l.PowerData, "SpellCastLogData.PowerData", 9, MaxSpellPowerData)
	s.Flush()
	schema.EachNested(s, l.PowerData)
}

// ContentTuning carries level scaling applied to a damage event.
type ContentTuning struct {
	Type                    uint8
	PlayerLevelDelta        int16
	PlayerItemLevel         float32
	TargetItemLevel         float32
	ScalingHealthItemLevel  uint16
	TargetLevel             uint8
	Expansion               uint8
	TargetScalingLevelDelta int8
	ScalesWithItemLevel     bool
}

// Serialize implements schema.Composite.
func (c *ContentTuning) Serialize(s *schema.Stream) {
	s.Uint8(&c.Type)
	s.Int16(&c.PlayerLevelDelta)
	s.Float32(&c.PlayerItemLevel)
	s.Float32(&c.TargetItemLevel)
	s.Uint16(&c.ScalingHealthItemLevel)
	s.Uint8(&c.TargetLevel)
	s.Uint8(&c.Expansion)
	s.Int8(&c.TargetScalingLevelDelta)
	s.Bit(&c.ScalesWithItemLevel)
}

// SpellNonMeleeDamageLog reports spell damage dealt to a target.
type SpellNonMeleeDamageLog struct {
	Me                  GUID
	CasterGUID          GUID
	CastID              GUID
	SpellID             int32
	SpellXSpellVisualID int32
	Damage              int32
	OriginalDamage      int32
	Overkill            int32
	SchoolMask          uint8
	Absorbed            int32
	Resisted            int32
	ShieldBlock         int32
	Periodic            bool
	Flags               uint8
	LogData             *SpellCastLogData
	ContentTuning       *ContentTuning
}

// Opcode implements Message.
func (*SpellNonMeleeDamageLog) Opcode() protocol.Opcode { return SMSGSpellNonMeleeDamageLog }

// Serialize implements schema.Composite.
func (m *SpellNonMeleeDamageLog) Serialize(s *schema.Stream) {
	s.PackedGUID(&m.Me)
	s.PackedGUID(&m.CasterGUID)
	s.PackedGUID(&m.CastID)
	s.Int32(&m.SpellID)
	s.Int32(&m.SpellXSpellVisualID)
	s.Int32(&m.Damage)
	s.Int32(&m.OriginalDamage)
	s.Int32(&m.Overkill)
	s.Uint8(&m.SchoolMask)
	s.Int32(&m.Absorbed)
	s.Int32(&m.Resisted)
	s.Int32(&m.ShieldBlock)
	s.Bit(&m.Periodic)
	schema.BitsOf(s, &m.Flags, 7)
	schema.Present(s, &m.LogData)
	schema.Present(s, &m.ContentTuning)
	s.Flush()
	if m.LogData != nil {
		s.Section(func(s *schema.Stream) { m.LogData.Serialize(s) })
	}
	if m.ContentTuning != nil {
		s.Nested(m.ContentTuning)
	}
}
