// Package websocket implements the subset of RFC 6455 this server speaks:
// the upgrade handshake, text/close/ping/pong frames, and the 7-bit and
// 16-bit payload length tiers. The 64-bit tier is deliberately
// unsupported; a frame announcing it terminates that connection.
package websocket

import "errors"

// Opcode is the 4-bit frame type tag.
type Opcode byte

// Supported opcodes per RFC 6455 Section 5.2.
const (
	OpcodeText  Opcode = 0x1
	OpcodeClose Opcode = 0x8
	OpcodePing  Opcode = 0x9
	OpcodePong  Opcode = 0xA
)

// Wire-level constants.
const (
	finBit  = 0x80
	maskBit = 0x80

	maskKeyLength = 4

	maxPayloadLen7Bit  = 125
	payloadLen16Bit    = 126
	payloadLen64Bit    = 127
	maxPayloadLen16Bit = 65535
)

// Frame codec errors.
var (
	// ErrPayloadTooLarge is returned when an outgoing payload exceeds the
	// 16-bit length tier. No frame is emitted.
	ErrPayloadTooLarge = errors.New("payload exceeds 16-bit length limit")

	// ErrUnsupportedLength is returned when an incoming frame announces a
	// 64-bit payload length. The connection must be closed.
	ErrUnsupportedLength = errors.New("64-bit payload length not supported")
)

// Frame is one decoded unit of the wire protocol. Frames are transient
// and never persisted.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	MaskKey [maskKeyLength]byte
	Payload []byte
}
