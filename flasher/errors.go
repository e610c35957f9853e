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

package flasher

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when the bootloader doesn't acknowledge a frame
// within the serial timeout.
var ErrTimeout = errors.New("timed out waiting for acknowledgement")

// IOError is a failure of the underlying transport.
type IOError struct {
	Address string
	Op      string
	Err     error
}

func (e *IOError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("failed to %s serial port: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s serial port %s: %s", e.Op, e.Address, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// SequenceMismatchError is returned when the bootloader acknowledges a
// different frame than the one just sent. The whole transmission must be
// retried, frames can't be resent individually.
type SequenceMismatchError struct {
	Sent     uint8
	Expected uint8
	Got      uint8
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("received invalid sequence number %d (expected %d after frame %d), retry transmission", e.Got, e.Expected, e.Sent)
}
