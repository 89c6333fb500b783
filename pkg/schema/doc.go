// Package schema implements the message layout convention shared by every
// game message.
//
// A message describes its wire layout once, in a Serialize method, and the
// same method runs for encoding and decoding:
//
//	func (m *CharacterRenameResult) Serialize(s *schema.Stream) {
//	    s.Uint8(&m.Result)
//	    schema.Present(s, &m.GUID)
//	    n := schema.StringLength(s, m.Name, 6)
//	    s.Flush()
//	    if m.GUID != nil {
//	        s.PackedGUID(m.GUID)
//	    }
//	    s.String(&m.Name, n)
//	}
//
// Because reader and writer share one description, the operation order
// cannot drift between the two paths.
//
// # Layout Rules
//
//   - Always-present scalars are byte aligned, in declaration order.
//   - Header bits (flags, small enums, presence bits, counts, string
//     lengths) form one bit group, flushed once.
//   - Optional payloads follow the flush in presence-bit order.
//   - Nested composites close their own bit group before returning.
//   - Counts are validated against a schema maximum before allocation.
//   - String bytes follow the flush of the group that carried the length.
package schema
