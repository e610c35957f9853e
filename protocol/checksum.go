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

import "github.com/sigurn/crc16"

// ChecksumSeed is the initial value of the frame checksum accumulator.
const ChecksumSeed uint16 = 0xFFFF

// The bootloader checksum is CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF,
// no reflection, no final xor.
var checksumTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum computes the 16-bit integrity code used in frame trailers and in
// the DFU init packet.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, checksumTable)
}

// ChecksumWithSeed continues a checksum computation from seed. Passing the
// result of a previous call allows checksumming data in several pieces.
func ChecksumWithSeed(data []byte, seed uint16) uint16 {
	return crc16.Complete(crc16.Update(seed, data, checksumTable), checksumTable)
}
