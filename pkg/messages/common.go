package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// Protocol maxima for repeated fields.
const (
	MaxItemBonuses     = 32
	MaxItemModifiers   = 63
	MaxAuctionItems    = 64
	MaxBucketKeys      = 100
	MaxAuctionSorts    = 2
	MaxMotdLines       = 16
	MaxMotdLineLength  = 255
	MaxPartyAuras      = 255
	MaxAuraPoints      = 15
	MaxSpellPowerData  = 32
	MaxChatTextLength  = 255
	MaxPetNameLength   = 24
	MaxGuildMotdLength = 255
)

// Reference tables consulted through schema.Limits.
const (
	TableBattlePetSpecies = "BattlePetSpecies"
)

// Vector3 is a world position.
type Vector3 struct {
	X, Y, Z float32
}

// Serialize implements schema.Composite.
func (v *Vector3) Serialize(s *schema.Stream) {
	s.Float32(&v.X)
	s.Float32(&v.Y)
	s.Float32(&v.Z)
}

// AddOnInfo identifies the addon that tainted a protected request.
type AddOnInfo struct {
	Name     string
	Version  string
	Loaded   bool
	Disabled bool
}

// Serialize implements schema.Composite.
func (a *AddOnInfo) Serialize(s *schema.Stream) {
	nameLen := schema.StringLength(s, a.Name, 10)
	versionLen := schema.StringLength(s, a.Version, 10)
	s.Bit(&a.Loaded)
	s.Bit(&a.Disabled)
	s.Flush()
	s.String(&a.Name, nameLen)
	s.String(&a.Version, versionLen)
}

// ItemBonuses lists the bonus IDs applied to an item instance.
type ItemBonuses struct {
	Context      uint8
	BonusListIDs []int32
}

// Serialize implements schema.Composite.
func (b *ItemBonuses) Serialize(s *schema.Stream) {
	s.Uint8(&b.Context)
	schema.ByteCount(s, &b.BonusListIDs, "BonusListIDs", MaxItemBonuses)
	schema.Each(s, b.BonusListIDs, func(s *schema.Stream, id *int32) { s.Int32(id) })
}

// ItemMod is one item modifier value.
type ItemMod struct {
	Value int32
	Type  uint8
}

// Serialize implements schema.Composite.
func (m *ItemMod) Serialize(s *schema.Stream) {
	s.Int32(&m.Value)
	s.Uint8(&m.Type)
}

// ItemModList is the modifier list of an item instance.
type ItemModList struct {
	Values []ItemMod
}

// Serialize implements schema.Composite.
func (l *ItemModList) Serialize(s *schema.Stream) {
	schema.Count(s, &l.Values, "ItemModList.Values", 6, MaxItemModifiers)
	s.Flush()
	schema.EachNested(s, l.Values)
}

// ItemInstance describes one concrete item.
type ItemInstance struct {
	ItemID               int32
	RandomPropertiesSeed int32
	RandomPropertiesID   int32
	ItemBonus            *ItemBonuses
	Modifications        ItemModList
}

// Serialize implements schema.Composite.
func (i *ItemInstance) Serialize(s *schema.Stream) {
	s.Int32(&i.ItemID)
	s.Int32(&i.RandomPropertiesSeed)
	s.Int32(&i.RandomPropertiesID)
	schema.Present(s, &i.ItemBonus)
	s.Flush()
	s.Nested(&i.Modifications)
	if i.ItemBonus != nil {
		s.Nested(i.ItemBonus)
	}
}

// AuctionBucketKey identifies one auction house bucket.
type AuctionBucketKey struct {
	ItemID                      uint32
	ItemLevel                   uint16
	BattlePetSpeciesID          *uint16
	SuffixItemNameDescriptionID *uint16
}

// Serialize implements schema.Composite.
func (k *AuctionBucketKey) Serialize(s *schema.Stream) {
	s.Bits(&k.ItemID, 20)
	schema.Present(s, &k.BattlePetSpeciesID)
	schema.BitsOf(s, &k.ItemLevel, 11)
	schema.Present(s, &k.SuffixItemNameDescriptionID)
	s.Flush()
	if k.BattlePetSpeciesID != nil {
		s.Uint16(k.BattlePetSpeciesID)
	}
	if k.SuffixItemNameDescriptionID != nil {
		s.Uint16(k.SuffixItemNameDescriptionID)
	}
}

// GUID is the packed 128-bit entity identifier.
type GUID = protocol.GUID
