package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// Client opcodes.
const (
	CMSGAuctionSellItem                protocol.Opcode = 0x34D2
	CMSGAuctionListBucketsByBucketKeys protocol.Opcode = 0x34D0
	CMSGChatMessageSay                 protocol.Opcode = 0x37E8
)

// Server opcodes.
const (
	SMSGAuctionCommandResult   protocol.Opcode = 0x2731
	SMSGCharacterRenameResult  protocol.Opcode = 0x2743
	SMSGGuildEventMotd         protocol.Opcode = 0x29A5
	SMSGMotd                   protocol.Opcode = 0x2BC5
	SMSGMoveSetCollisionHeight protocol.Opcode = 0x2DF7
	SMSGMoveTeleport           protocol.Opcode = 0x2DD4
	SMSGBattlePetJournalMask   protocol.Opcode = 0x25A2
	SMSGPartyMemberAuras       protocol.Opcode = 0x2755
	SMSGSpellNonMeleeDamageLog protocol.Opcode = 0x2825
)

// Message is a catalog entry: a composite bound to its opcode.
type Message interface {
	schema.Composite
	Opcode() protocol.Opcode
}

// Entry describes one registered opcode.
type Entry struct {
	Opcode protocol.Opcode
	Name   string
	New    func() Message
}

// Catalog returns the built-in message table.
func Catalog() []Entry {
	return []Entry{
		{CMSGAuctionSellItem, "CMSG_AUCTION_SELL_ITEM", func() Message { return new(AuctionSellItem) }},
		{CMSGAuctionListBucketsByBucketKeys, "CMSG_AUCTION_LIST_BUCKETS_BY_BUCKET_KEYS", func() Message { return new(AuctionListBucketsByBucketKeys) }},
		{CMSGChatMessageSay, "CMSG_CHAT_MESSAGE_SAY", func() Message { return new(ChatMessage) }},
		{SMSGAuctionCommandResult, "SMSG_AUCTION_COMMAND_RESULT", func() Message { return new(AuctionCommandResult) }},
		{SMSGCharacterRenameResult, "SMSG_CHARACTER_RENAME_RESULT", func() Message { return new(CharacterRenameResult) }},
		{SMSGGuildEventMotd, "SMSG_GUILD_EVENT_MOTD", func() Message { return new(GuildEventMotd) }},
		{SMSGMotd, "SMSG_MOTD", func() Message { return new(Motd) }},
		{SMSGMoveSetCollisionHeight, "SMSG_MOVE_SET_COLLISION_HEIGHT", func() Message { return new(MoveSetCollisionHeight) }},
		{SMSGMoveTeleport, "SMSG_MOVE_TELEPORT", func() Message { return new(MoveTeleport) }},
		{SMSGBattlePetJournalMask, "SMSG_BATTLE_PET_JOURNAL_MASK", func() Message { return new(BattlePetJournalMask) }},
		{SMSGPartyMemberAuras, "SMSG_PARTY_MEMBER_AURAS", func() Message { return new(PartyMemberAuras) }},
		{SMSGSpellNonMeleeDamageLog, "SMSG_SPELL_NON_MELEE_DAMAGE_LOG", func() Message { return new(SpellNonMeleeDamageLog) }},
	}
}
