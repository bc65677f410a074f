package websocket

import "encoding/binary"

// EncodeFrame builds a server-to-client frame. Payloads up to 125 bytes
// use the single-byte length field; up to 65535 the 16-bit extension.
// Anything larger is rejected with ErrPayloadTooLarge. Server frames are
// never masked.
func EncodeFrame(opcode Opcode, payload []byte) ([]byte, error) {
	length := len(payload)

	var header []byte
	switch {
	case length <= maxPayloadLen7Bit:
		header = []byte{finBit | byte(opcode), byte(length)}
	case length <= maxPayloadLen16Bit:
		header = []byte{finBit | byte(opcode), payloadLen16Bit, 0, 0}
		binary.BigEndian.PutUint16(header[2:], uint16(length))
	default:
		return nil, ErrPayloadTooLarge
	}

	frame := make([]byte, 0, len(header)+length)
	frame = append(frame, header...)
	frame = append(frame, payload...)
	return frame, nil
}

// Decoder extracts complete frames from a per-connection byte stream.
// Bytes accumulate via Push; Next returns one frame at a time, or nil
// while the buffer holds less than a full frame.
type Decoder struct {
	buf []byte
}

// Push appends newly arrived bytes to the accumulation buffer.
func (d *Decoder) Push(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next extracts the next complete frame from the buffer. It returns
// (nil, nil) when more bytes are needed, and ErrUnsupportedLength when
// the frame announces the 64-bit length tier.
func (d *Decoder) Next() (*Frame, error) {
	if len(d.buf) < 2 {
		return nil, nil
	}

	frame := &Frame{
		Fin:    d.buf[0]&finBit != 0,
		Opcode: Opcode(d.buf[0] & 0x0F),
		Masked: d.buf[1]&maskBit != 0,
	}

	payloadLen := int(d.buf[1] & 0x7F)
	offset := 2

	switch payloadLen {
	case payloadLen16Bit:
		if len(d.buf) < offset+2 {
			return nil, nil
		}
		payloadLen = int(binary.BigEndian.Uint16(d.buf[offset:]))
		offset += 2
	case payloadLen64Bit:
		return nil, ErrUnsupportedLength
	}

	if frame.Masked {
		if len(d.buf) < offset+maskKeyLength {
			return nil, nil
		}
		copy(frame.MaskKey[:], d.buf[offset:offset+maskKeyLength])
		offset += maskKeyLength
	}

	if len(d.buf) < offset+payloadLen {
		return nil, nil
	}

	frame.Payload = make([]byte, payloadLen)
	copy(frame.Payload, d.buf[offset:offset+payloadLen])
	if frame.Masked {
		for i := range frame.Payload {
			frame.Payload[i] ^= frame.MaskKey[i%maskKeyLength]
		}
	}

	// Drop the consumed bytes; anything after them starts the next frame.
	d.buf = append(d.buf[:0], d.buf[offset+payloadLen:]...)
	return frame, nil
}
