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

import (
	"encoding/binary"
	"fmt"
)

// SLIP special bytes
const (
	End    = 0xC0
	Esc    = 0xDB
	EscEnd = 0xDC
	EscEsc = 0xDD
)

// Encode builds the frame carrying payload with sequence number seq:
// the packed header, the payload and the little endian checksum of both,
// escaped and delimited by End markers.
func Encode(seq uint8, payload []byte) ([]byte, error) {
	if len(payload) >= MaxPayloadLength {
		return nil, &ValidationError{Field: "payload length", Value: len(payload), Limit: MaxPayloadLength - 1}
	}
	header := NewHeader(seq, len(payload)).Pack()

	raw := make([]byte, 0, HeaderSize+len(payload)+2)
	raw = append(raw, header[:]...)
	raw = append(raw, payload...)
	raw = binary.LittleEndian.AppendUint16(raw, Checksum(raw))

	return Escape(raw), nil
}

// Escape wraps data in End markers, replacing any End or Esc byte inside
// with the corresponding two bytes escape sequence.
func Escape(data []byte) []byte {
	res := make([]byte, 0, len(data)+2)
	res = append(res, End)
	for _, b := range data {
		switch b {
		case End:
			res = append(res, Esc, EscEnd)
		case Esc:
			res = append(res, Esc, EscEsc)
		default:
			res = append(res, b)
		}
	}
	return append(res, End)
}

// Unescape reverts the escaping applied by Escape. Markers are not removed.
func Unescape(data []byte) ([]byte, error) {
	res := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != Esc {
			res = append(res, b)
			continue
		}
		if i+1 >= len(data) {
			return nil, &FramingError{Offset: i, Reason: "escape byte at end of data"}
		}
		i++
		switch data[i] {
		case EscEnd:
			res = append(res, End)
		case EscEsc:
			res = append(res, Esc)
		default:
			return nil, &FramingError{Offset: i, Reason: fmt.Sprintf("invalid byte 0x%02X after escape character", data[i])}
		}
	}
	return res, nil
}

// Decode strips one End marker from each end of frame and unescapes the
// rest, returning header, payload and checksum bytes.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < 2 || frame[0] != End || frame[len(frame)-1] != End {
		return nil, &FramingError{Offset: 0, Reason: "missing frame delimiters"}
	}
	return Unescape(frame[1 : len(frame)-1])
}

// DecodeAck extracts the acknowledgement number carried by an ack frame.
func DecodeAck(frame []byte) (uint8, error) {
	body, err := Decode(frame)
	if err != nil {
		return 0, err
	}
	if len(body) == 0 {
		return 0, &FramingError{Offset: 1, Reason: "empty acknowledgement"}
	}
	return (body[0] >> 3) & 0x07, nil
}

// FrameEnd returns the index right after the second End marker in data,
// or -1 if data doesn't contain a whole frame yet.
func FrameEnd(data []byte) int {
	seen := 0
	for i, b := range data {
		if b == End {
			seen++
			if seen == 2 {
				return i + 1
			}
		}
	}
	return -1
}
