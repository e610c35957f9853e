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

import "encoding/binary"

// DFU control packet types
const (
	InitPacket  uint32 = 1
	StartPacket uint32 = 3
	DataPacket  uint32 = 4
	StopPacket  uint32 = 5
)

// MaxDataSize is the maximum number of image bytes carried by a data packet
const MaxDataSize = 512

// startUpdateMode is the "application" update mode expected by the bootloader
const startUpdateMode = 4

// initPacketPreamble is the device type, revision, application version and
// supported softdevice list that the bootloader expects before the image crc.
var initPacketPreamble = []byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0x00, 0xFE, 0xFF,
}

func appendWords(buf []byte, words ...uint32) []byte {
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	return buf
}

// NewStartPacket builds the packet that announces an image of imageSize bytes.
func NewStartPacket(imageSize uint32) []byte {
	return appendWords(nil, StartPacket, startUpdateMode, 0, 0, imageSize)
}

// NewInitPacket builds the init packet. It embeds the checksum of the whole
// image, which the bootloader checks once every data packet has arrived.
func NewInitPacket(image []byte) []byte {
	res := appendWords(nil, InitPacket)
	res = append(res, initPacketPreamble...)
	res = binary.LittleEndian.AppendUint16(res, Checksum(image))
	// padding
	return append(res, 0x00, 0x00)
}

// NewDataPacket builds a packet carrying one chunk of the image.
func NewDataPacket(chunk []byte) ([]byte, error) {
	if len(chunk) > MaxDataSize {
		return nil, &ValidationError{Field: "data chunk size", Value: len(chunk), Limit: MaxDataSize}
	}
	res := appendWords(make([]byte, 0, 4+len(chunk)), DataPacket)
	return append(res, chunk...), nil
}

// NewStopPacket builds the packet that ends the transfer.
func NewStopPacket() []byte {
	return appendWords(nil, StopPacket)
}

// Chunks splits image in consecutive slices of at most MaxDataSize bytes.
func Chunks(image []byte) [][]byte {
	var res [][]byte
	for start := 0; start < len(image); start += MaxDataSize {
		end := start + MaxDataSize
		if end > len(image) {
			end = len(image)
		}
		res = append(res, image[start:end])
	}
	return res
}
