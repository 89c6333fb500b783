package capture

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"github.com/vango-dev/gamewire/pkg/protocol"
)

// Record is one captured frame.
type Record struct {
	Opcode     protocol.Opcode `msgpack:"op"`
	Payload    []byte          `msgpack:"p"`
	Source     string          `msgpack:"src,omitempty"`
	CapturedAt time.Time       `msgpack:"t"`
	Note       string          `msgpack:"n,omitempty"`
}

// NewRecord captures payload under op at the current time.
func NewRecord(op protocol.Opcode, payload []byte, source string) *Record {
	return &Record{
		Opcode:     op,
		Payload:    payload,
		Source:     source,
		CapturedAt: time.Now().UTC(),
	}
}

// Frame returns the record as a transport frame.
func (r *Record) Frame() *protocol.Frame {
	return protocol.NewFrame(r.Opcode, r.Payload)
}

// Key returns the content address of the record: the hex BLAKE3-256
// digest of the framed bytes. Provenance fields do not affect it.
func (r *Record) Key() string {
	sum := blake3.Sum256(r.Frame().Encode())
	return hex.EncodeToString(sum[:])
}
