/*
	slip-dfu-uploader
	Copyright (c) 2023 Arduino LLC.  All right reserved.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package protocol

import "fmt"

const (
	// HeaderSize is the size of the packed frame header
	HeaderSize = 4
	// MaxPayloadLength is the first length that doesn't fit the 12-bit length field
	MaxPayloadLength = 0x1000
	// PacketTypeVendor is the HCI packet type used for every DFU frame
	PacketTypeVendor = 14
)

// Header is the reliable-packet header that precedes every frame payload.
// See the Nordic nRF51 SDK serial DFU documentation for the bit layout.
type Header struct {
	Seq            uint8
	Ack            uint8
	IntegrityCheck bool
	Reliable       bool
	PacketType     uint8
	Length         uint16
}

// NewHeader returns the header used to send a payload of the given length
// with sequence number seq.
func NewHeader(seq uint8, length int) Header {
	return Header{
		Seq:            seq & 0x07,
		Ack:            (seq + 1) % 8,
		IntegrityCheck: true,
		Reliable:       true,
		PacketType:     PacketTypeVendor,
		Length:         uint16(length),
	}
}

// Pack encodes the header in its 4 bytes wire format. The last byte makes
// the sum of the four bytes zero.
func (h Header) Pack() [HeaderSize]byte {
	var b [HeaderSize]byte
	b[0] = h.Seq&0x07 | (h.Ack&0x07)<<3
	if h.IntegrityCheck {
		b[0] |= 1 << 6
	}
	if h.Reliable {
		b[0] |= 1 << 7
	}
	b[1] = h.PacketType&0x0F | byte(h.Length&0x00F)<<4
	b[2] = byte((h.Length & 0xFF0) >> 4)
	b[3] = ^(b[0] + b[1] + b[2]) + 1
	return b
}

// UnpackHeader decodes a header from the first 4 bytes of data.
func UnpackHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, &FramingError{Offset: len(data), Reason: "truncated header"}
	}
	if data[0]+data[1]+data[2]+data[3] != 0 {
		return Header{}, &FramingError{Offset: 3, Reason: fmt.Sprintf("bad header parity 0x%02X", data[3])}
	}
	return Header{
		Seq:            data[0] & 0x07,
		Ack:            (data[0] >> 3) & 0x07,
		IntegrityCheck: data[0]&(1<<6) != 0,
		Reliable:       data[0]&(1<<7) != 0,
		PacketType:     data[1] & 0x0F,
		Length:         uint16(data[1]>>4) | uint16(data[2])<<4,
	}, nil
}

// Sequence is the modulo 8 counter of outbound reliable frames.
// The zero value is ready to use and yields 1 on the first call to Next.
type Sequence struct {
	current uint8
}

// Next advances the counter and returns the new sequence number.
func (s *Sequence) Next() uint8 {
	s.current = (s.current + 1) % 8
	return s.current
}

// Current returns the last sequence number handed out.
func (s *Sequence) Current() uint8 {
	return s.current
}

// ExpectedAck returns the acknowledgement number the receiver must answer
// with after a frame sent with sequence number seq.
func ExpectedAck(seq uint8) uint8 {
	return (seq + 1) % 8
}
