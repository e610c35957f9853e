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

func TestStartPacket(t *testing.T) {
	require.Equal(t, []byte{
		0x03, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x00, 0x00,
	}, NewStartPacket(1025))
}

func TestInitPacket(t *testing.T) {
	image := []byte("123456789")
	pkt := NewInitPacket(image)
	require.Len(t, pkt, 4+12+2+2)
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, pkt[:4])
	require.Equal(t, initPacketPreamble, pkt[4:16])
	require.Equal(t, uint16(0x29B1), binary.LittleEndian.Uint16(pkt[16:18]))
	require.Equal(t, []byte{0x00, 0x00}, pkt[18:])
}

func TestDataPacket(t *testing.T) {
	pkt, err := NewDataPacket([]byte{0xAA, 0xBB})
	require.NoError(t, err)
	require.Equal(t, []byte{0x04, 0x00, 0x00, 0x00, 0xAA, 0xBB}, pkt)

	_, err = NewDataPacket(make([]byte, MaxDataSize))
	require.NoError(t, err)

	_, err = NewDataPacket(make([]byte, MaxDataSize+1))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, MaxDataSize, validationErr.Limit)
}

func TestStopPacket(t *testing.T) {
	require.Equal(t, []byte{0x05, 0x00, 0x00, 0x00}, NewStopPacket())
}

func TestChunks(t *testing.T) {
	image := bytes.Repeat([]byte{0x5A}, 1025)
	chunks := Chunks(image)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 512)
	require.Len(t, chunks[1], 512)
	require.Len(t, chunks[2], 1)

	require.Empty(t, Chunks(nil))
	require.Len(t, Chunks(make([]byte, 512)), 1)
}
