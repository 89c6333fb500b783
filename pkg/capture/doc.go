// Package capture stores reference frames recorded from an authoritative
// peer and replays them through the message catalog.
//
// A Record is one frame (opcode and payload) plus provenance. Records are
// content addressed: the key is the BLAKE3 digest of the framed bytes, so
// storing the same frame twice is a no-op. On disk, in bbolt and in S3 a
// record is a small container:
//
//	┌──────────┬─────────────┬──────────────────┬──────────────────────┐
//	│ "GWC1"   │ compression │ body size        │ body                 │
//	│ 4 bytes  │ 1 byte      │ uint32 LE        │ msgpack(Record)      │
//	└──────────┴─────────────┴──────────────────┴──────────────────────┘
//
// Verify decodes every stored record and encodes it again; a record whose
// bytes differ after the round trip exposes a schema that disagrees with
// the peer's layout.
package capture
