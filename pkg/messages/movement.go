package messages

import (
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

// UpdateCollisionHeightReason says why a mover's collision height changed.
type UpdateCollisionHeightReason uint8

const (
	CollisionHeightScale UpdateCollisionHeightReason = iota
	CollisionHeightMount
	CollisionHeightForce
)

// MoveSetCollisionHeight changes the collision height of a mover.
type MoveSetCollisionHeight struct {
	MoverGUID      GUID
	SequenceIndex  uint32
	Height         float32
	Scale          float32
	Reason         UpdateCollisionHeightReason
	MountDisplayID uint32
	ScaleDuration  int32
}

// Opcode implements Message.
func (*MoveSetCollisionHeight) Opcode() protocol.Opcode { return SMSGMoveSetCollisionHeight }

// Serialize implements schema.Composite.
func (m *MoveSetCollisionHeight) Serialize(s *schema.Stream) {
	s.PackedGUID(&m.MoverGUID)
	s.Uint32(&m.SequenceIndex)
	s.Float32(&m.Height)
	s.Float32(&m.Scale)
	schema.BitsOf(s, &m.Reason, 2)
	s.Flush()
	s.Uint32(&m.MountDisplayID)
	s.Int32(&m.ScaleDuration)
}

// VehicleTeleport describes the seat a teleported mover leaves.
type VehicleTeleport struct {
	VehicleSeatIndex     uint8
	VehicleExitVoluntary bool
	VehicleExitTeleport  bool
}

// Serialize implements schema.Composite.
func (v *VehicleTeleport) Serialize(s *schema.Stream) {
	s.Uint8(&v.VehicleSeatIndex)
	s.Bit(&v.VehicleExitVoluntary)
	s.Bit(&v.VehicleExitTeleport)
}

// MoveTeleport moves a mover to a new position.
type MoveTeleport struct {
	MoverGUID     GUID
	SequenceIndex uint32
	Pos           Vector3
	Facing        float32
	PreloadWorld  uint8
	TransportGUID *GUID
	Vehicle       *VehicleTeleport
}

// Opcode implements Message.
func (*MoveTeleport) Opcode() protocol.Opcode { return SMSGMoveTeleport }

// Serialize implements schema.Composite.
func (m *MoveTeleport) Serialize(s *schema.Stream) {
	s.PackedGUID(&m.MoverGUID)
	s.Uint32(&m.SequenceIndex)
	s.Nested(&m.Pos)
	s.Float32(&m.Facing)
	s.Uint8(&m.PreloadWorld)
	schema.Present(s, &m.TransportGUID)
	schema.Present(s, &m.Vehicle)
	s.Flush()
	if m.TransportGUID != nil {
		s.PackedGUID(m.TransportGUID)
	}
	if m.Vehicle != nil {
		s.Nested(m.Vehicle)
	}
}
