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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	frame, err := Encode(1, NewStopPacket())
	require.NoError(t, err)
	require.Equal(t, []byte{0xC0, 0xD1, 0x4E, 0x00, 0xE1, 0x05, 0x00, 0x00, 0x00, 0x74, 0x82, 0xC0}, frame)

	frame, err = Encode(2, []byte{0xC0, 0xDB})
	require.NoError(t, err)
	require.Equal(t, []byte{0xC0, 0xDA, 0x2E, 0x00, 0xF8, 0xDB, 0xDC, 0xDB, 0xDD, 0x0B, 0xCD, 0xC0}, frame)
}

func TestEncodeTooLarge(t *testing.T) {
	_, err := Encode(1, make([]byte, MaxPayloadLength))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = Encode(1, make([]byte, MaxPayloadLength-1))
	require.NoError(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{0xC0},
		{0xDB},
		{0xDB, 0xDC, 0xC0, 0xDD, 0xDB},
		bytes.Repeat([]byte{0xC0, 0x01, 0xDB}, 200),
	}
	for seq := uint8(0); seq < 8; seq++ {
		for _, payload := range payloads {
			frame, err := Encode(seq, payload)
			require.NoError(t, err)

			// Markers only at the edges
			require.Equal(t, byte(End), frame[0])
			require.Equal(t, byte(End), frame[len(frame)-1])
			require.NotContains(t, frame[1:len(frame)-1], byte(End))

			body, err := Decode(frame)
			require.NoError(t, err)
			require.Len(t, body, HeaderSize+len(payload)+2)

			header, err := UnpackHeader(body)
			require.NoError(t, err)
			require.Equal(t, seq, header.Seq)
			require.Equal(t, uint16(len(payload)), header.Length)
			require.Equal(t, payload, body[HeaderSize:HeaderSize+len(payload)])

			crc := binary.LittleEndian.Uint16(body[len(body)-2:])
			require.Equal(t, Checksum(body[:len(body)-2]), crc)
		}
	}
}

func TestUnescape(t *testing.T) {
	res, err := Unescape([]byte{0x01, Esc, EscEnd, Esc, EscEsc, 0x02})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, End, Esc, 0x02}, res)

	for _, bad := range [][]byte{
		{Esc, 0x00},
		{0x01, Esc, End},
		{Esc, Esc},
		{0x01, Esc},
	} {
		_, err := Unescape(bad)
		var framingErr *FramingError
		require.ErrorAs(t, err, &framingErr, "input % X", bad)
	}
}

func TestDecodeAck(t *testing.T) {
	ack, err := DecodeAck([]byte{End, 0x18, End})
	require.NoError(t, err)
	require.Equal(t, uint8(3), ack)

	ack, err = DecodeAck([]byte{End, Esc, EscEnd, End})
	require.NoError(t, err)
	require.Equal(t, uint8(0), ack)

	_, err = DecodeAck([]byte{End, End})
	require.Error(t, err)
	_, err = DecodeAck([]byte{0x18, End})
	require.Error(t, err)
	_, err = DecodeAck([]byte{End, Esc, 0x01, End})
	var framingErr *FramingError
	require.ErrorAs(t, err, &framingErr)
}

func TestFrameEnd(t *testing.T) {
	require.Equal(t, -1, FrameEnd(nil))
	require.Equal(t, -1, FrameEnd([]byte{End, 0x01, 0x02}))
	require.Equal(t, 3, FrameEnd([]byte{End, 0x01, End, 0x55}))
	require.Equal(t, 4, FrameEnd([]byte{0x00, End, 0x01, End}))
}
