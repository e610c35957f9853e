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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{"empty", []byte{}, 0xFFFF},
		{"zero byte", []byte{0x00}, 0xE1F0},
		{"ascii digits", []byte("123456789"), 0x29B1},
		{"reserved bytes", []byte{0xC0, 0xDB}, 0x714D},
		{"sequence", []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, 0x3B37},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Checksum(tt.data))
			require.Equal(t, Checksum(tt.data), Checksum(tt.data))
		})
	}
}

func TestChecksumWithSeed(t *testing.T) {
	require.Equal(t, uint16(0x1021), ChecksumWithSeed([]byte{0x01}, 0))
	// Feeding the data in two pieces gives the same result.
	require.Equal(t, Checksum([]byte("123456789")), ChecksumWithSeed([]byte("6789"), Checksum([]byte("12345"))))
}

func TestChecksumDetectsSingleByteChange(t *testing.T) {
	data := []byte("firmware image payload")
	reference := Checksum(data)
	for i := range data {
		altered := append([]byte{}, data...)
		altered[i] ^= 0x01
		require.NotEqual(t, reference, Checksum(altered), "change at offset %d not detected", i)
	}
}

// bitwiseChecksum is the byte-at-a-time formulation used by the bootloader
// firmware, kept to check the table driven implementation against it.
func bitwiseChecksum(data []byte, seed uint16) uint16 {
	crc := seed
	for _, b := range data {
		crc = crc>>8 | crc<<8
		crc ^= uint16(b)
		crc ^= (crc & 0x00FF) >> 4
		crc ^= (crc << 8) << 4
		crc ^= ((crc & 0x00FF) << 4) << 1
	}
	return crc
}

func TestChecksumMatchesBootloaderFormulation(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		data := make([]byte, rnd.Intn(600))
		rnd.Read(data)
		seed := uint16(rnd.Intn(0x10000))
		require.Equal(t, bitwiseChecksum(data, ChecksumSeed), Checksum(data))
		require.Equal(t, bitwiseChecksum(data, seed), ChecksumWithSeed(data, seed))
	}
}
