package websocket

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrameLengthTiers(t *testing.T) {
	tests := []struct {
		name       string
		payloadLen int
		wantHeader int
	}{
		{name: "empty", payloadLen: 0, wantHeader: 2},
		{name: "small", payloadLen: 10, wantHeader: 2},
		{name: "boundary 125 stays 7-bit", payloadLen: 125, wantHeader: 2},
		{name: "126 needs 16-bit extension", payloadLen: 126, wantHeader: 4},
		{name: "boundary 65535 stays 16-bit", payloadLen: 65535, wantHeader: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := bytes.Repeat([]byte{'x'}, tt.payloadLen)
			frame, err := EncodeFrame(OpcodeText, payload)
			require.NoError(t, err)
			assert.Len(t, frame, tt.wantHeader+tt.payloadLen)

			assert.Equal(t, byte(finBit|byte(OpcodeText)), frame[0])
			if tt.wantHeader == 2 {
				assert.Equal(t, byte(tt.payloadLen), frame[1])
			} else {
				assert.Equal(t, byte(payloadLen16Bit), frame[1])
				assert.Equal(t, uint16(tt.payloadLen), binary.BigEndian.Uint16(frame[2:4]))
			}
		})
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	payload := make([]byte, 65536)
	frame, err := EncodeFrame(OpcodeText, payload)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Nil(t, frame)
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		payloadLen int
	}{
		{name: "empty", payloadLen: 0},
		{name: "short", payloadLen: 42},
		{name: "7-bit boundary", payloadLen: 125},
		{name: "16-bit lower boundary", payloadLen: 126},
		{name: "16-bit upper boundary", payloadLen: 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := bytes.Repeat([]byte{'p'}, tt.payloadLen)
			encoded, err := EncodeFrame(OpcodeText, payload)
			require.NoError(t, err)

			var d Decoder
			d.Push(encoded)
			frame, err := d.Next()
			require.NoError(t, err)
			require.NotNil(t, frame)

			assert.True(t, frame.Fin)
			assert.Equal(t, OpcodeText, frame.Opcode)
			assert.False(t, frame.Masked)
			assert.Equal(t, payload, frame.Payload)

			// Buffer fully consumed.
			next, err := d.Next()
			require.NoError(t, err)
			assert.Nil(t, next)
		})
	}
}

func TestDecodeMaskedFrame(t *testing.T) {
	payload := []byte("masked payload")
	mask := [4]byte{0x1A, 0x2B, 0x3C, 0x4D}

	raw := []byte{finBit | byte(OpcodeText), maskBit | byte(len(payload))}
	raw = append(raw, mask[:]...)
	for i, b := range payload {
		raw = append(raw, b^mask[i%4])
	}

	var d Decoder
	d.Push(raw)
	frame, err := d.Next()
	require.NoError(t, err)
	require.NotNil(t, frame)

	assert.True(t, frame.Masked)
	assert.Equal(t, payload, frame.Payload)
}

func TestDecodePartialArrival(t *testing.T) {
	payload := bytes.Repeat([]byte{'z'}, 300)
	encoded, err := EncodeFrame(OpcodeText, payload)
	require.NoError(t, err)

	var d Decoder
	for i := 0; i < len(encoded); i += 7 {
		end := i + 7
		if end > len(encoded) {
			end = len(encoded)
		}
		d.Push(encoded[i:end])

		frame, err := d.Next()
		require.NoError(t, err)
		if end < len(encoded) {
			assert.Nil(t, frame, "frame must not surface before all bytes arrive")
		} else {
			require.NotNil(t, frame)
			assert.Equal(t, payload, frame.Payload)
		}
	}
}

func TestDecodeMultipleFramesInBuffer(t *testing.T) {
	first, err := EncodeFrame(OpcodeText, []byte("first"))
	require.NoError(t, err)
	second, err := EncodeFrame(OpcodePing, []byte("second"))
	require.NoError(t, err)

	var d Decoder
	d.Push(append(first, second...))

	frame, err := d.Next()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, OpcodeText, frame.Opcode)
	assert.Equal(t, []byte("first"), frame.Payload)

	frame, err = d.Next()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, OpcodePing, frame.Opcode)
	assert.Equal(t, []byte("second"), frame.Payload)
}

func TestDecode64BitLengthUnsupported(t *testing.T) {
	raw := []byte{finBit | byte(OpcodeText), payloadLen64Bit}
	raw = append(raw, make([]byte, 8)...)

	var d Decoder
	d.Push(raw)
	frame, err := d.Next()
	assert.ErrorIs(t, err, ErrUnsupportedLength)
	assert.Nil(t, frame)
}
