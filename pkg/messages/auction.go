package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// AuctionItemForSale is one stack offered in an AuctionSellItem request.
type AuctionItemForSale struct {
	GUID     GUID
	UseCount uint32
}

// Serialize implements schema.Composite.
func (a *AuctionItemForSale) Serialize(s *schema.Stream) {
	s.PackedGUID(&a.GUID)
	s.Uint32(&a.UseCount)
}

// AuctionSellItem is sent by the client to post items.
type AuctionSellItem struct {
	Auctioneer  GUID
	MinBid      uint64
	BuyoutPrice uint64
	RunTime     uint32
	TaintedBy   *AddOnInfo
	Items       []AuctionItemForSale
}

// Opcode implements Message.
func (*AuctionSellItem) Opcode() protocol.Opcode { return CMSGAuctionSellItem }

// Serialize implements schema.Composite.
func (m *AuctionSellItem) Serialize(s *schema.Stream) {
	s.PackedGUID(&m.Auctioneer)
	s.Uint64(&m.MinBid)
	s.Uint64(&m.BuyoutPrice)
	s.Uint32(&m.RunTime)
	schema.Present(s, &m.TaintedBy)
	schema.Count(s, &m.Items, "AuctionSellItem.Items", 7, MaxAuctionItems)
	s.Flush()
	if m.TaintedBy != nil {
		s.Nested(m.TaintedBy)
	}
	schema.EachNested(s, m.Items)
}

// AuctionSortType selects the column an auction listing is sorted by.
type AuctionSortType uint8

const (
	AuctionSortPrice AuctionSortType = iota
	AuctionSortName
	AuctionSortLevel
	AuctionSortBid
	AuctionSortBuyout
)

// AuctionSortDef is one sort criterion of a listing request.
type AuctionSortDef struct {
	SortOrder   AuctionSortType
	ReverseSort bool
}

// AuctionListBucketsByBucketKeys is sent by the client to list specific
// buckets.
type AuctionListBucketsByBucketKeys struct {
	Auctioneer GUID
	TaintedBy  *AddOnInfo
	BucketKeys []AuctionBucketKey
	Sorts      []AuctionSortDef
}

// Opcode implements Message.
func (*AuctionListBucketsByBucketKeys) Opcode() protocol.Opcode {
	return CMSGAuctionListBucketsByBucketKeys
}

// Serialize implements schema.Composite.
func (m *AuctionListBucketsByBucketKeys) Serialize(s *schema.Stream) {
	s.PackedGUID(&m.Auctioneer)
	schema.Present(s, &m.TaintedBy)
	schema.Count(s, &m.BucketKeys, "AuctionListBucketsByBucketKeys.BucketKeys", 7, MaxBucketKeys)
	schema.Count(s, &m.Sorts, "AuctionListBucketsByBucketKeys.Sorts", 2, MaxAuctionSorts)
	schema.Each(s, m.Sorts, func(s *schema.Stream, d *AuctionSortDef) {
		schema.BitsOf(s, &d.SortOrder, 4)
		s.Bit(&d.ReverseSort)
	})
	s.Flush()
	if m.TaintedBy != nil {
		s.Nested(m.TaintedBy)
	}
	schema.EachNested(s, m.BucketKeys)
}

// AuctionCommand is the auction action a result refers to.
type AuctionCommand int32

const (
	AuctionCommandSellItem AuctionCommand = iota
	AuctionCommandCancel
	AuctionCommandPlaceBid
)

// AuctionError is the outcome of an auction command.
type AuctionError int32

const (
	AuctionErrOK AuctionError = iota
	AuctionErrInventory
	AuctionErrDatabase
	AuctionErrNotEnoughMoney
	AuctionErrItemNotFound
	AuctionErrHigherBid
	AuctionErrBidIncrement
	AuctionErrBidOwn
)

// AuctionCommandResult is sent by the server after an auction command.
// MinIncrement and Money are only on the wire when ErrorCode is
// AuctionErrHigherBid; otherwise they decode as zero.
type AuctionCommandResult struct {
	AuctionID    uint32
	Command      AuctionCommand
	ErrorCode    AuctionError
	BagResult    int32
	GUID         GUID
	MinIncrement uint64
	Money        uint64
	DesiredDelay uint32
}

// Opcode implements Message.
func (*AuctionCommandResult) Opcode() protocol.Opcode { return SMSGAuctionCommandResult }

// Serialize implements schema.Composite.
func (m *AuctionCommandResult) Serialize(s *schema.Stream) {
	s.Uint32(&m.AuctionID)
	s.Int32((*int32)(&m.Command))
	s.Int32((*int32)(&m.ErrorCode))
	s.Int32(&m.BagResult)
	s.PackedGUID(&m.GUID)
	if m.ErrorCode == AuctionErrHigherBid {
		s.Uint64(&m.MinIncrement)
		s.Uint64(&m.Money)
	}
	s.Uint32(&m.DesiredDelay)
}
