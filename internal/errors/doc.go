// Package errors turns codec failures into structured, actionable reports
// for the gamewire command line.
//
// Every wire failure maps to a registered code:
//   - W001: truncated input
//   - W002: count or length over its bound
//   - W003: opcode with no registered schema
//   - W004: unread bytes after a message
//   - W005: frame payload over the size limit
//   - W006: reference limit not configured
//   - W007: value does not fit its field
//   - W008, W009: missing or invalid gamewire.json
//
// # Usage
//
//	msg, err := registry.Decode(op, payload)
//	if err != nil {
//	    we := errors.FromDecodeError(err).WithPayload(payload)
//	    fmt.Print(we.Format())
//	}
//
//	// Output:
//	// ERROR W002: Count exceeds protocol bound
//	//
//	//   capture-0007: CMSG_AUCTION_SELL_ITEM (0x34D2), 23 bytes
//	//
//	//     00000000  00 00 00 00 00 00 00 00  00 00 00 00 00 00 00 00  |................|
//	//     00000010  00 00 00 00 00 00 82                              |.......|
//	//
//	//   Hint: The peer announced more elements than the schema allows.
package errors
