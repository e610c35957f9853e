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
	"fmt"
	"io"
	"time"

	"github.com/embedded-lab/slip-dfu-uploader/protocol"
	"github.com/sirupsen/logrus"
)

// Timings are the delays of the upload procedure. The settle intervals
// are required by the bootloader firmware, it drops data sent earlier.
type Timings struct {
	StartSettle time.Duration
	InitSettle  time.Duration
	PostWrite   time.Duration
	AckTimeout  time.Duration
}

// DefaultTimings returns the timings that work with the bootloader.
func DefaultTimings() Timings {
	return Timings{
		StartSettle: 2 * time.Second,
		InitSettle:  time.Second,
		PostWrite:   40 * time.Millisecond,
		AckTimeout:  SerialTimeout,
	}
}

// Progress is reported after each data packet is acknowledged
type Progress struct {
	Chunk      int
	Total      int
	Percentage float64
}

// DFUFlasher uploads images through a DFU bootloader.
type DFUFlasher struct {
	port             Port
	session          *Session
	timings          Timings
	progressCallback func(Progress)
}

// NewDFUFlasher creates a flasher talking on an already opened port.
// Operator hints about unresponsive boards go to hintOut.
func NewDFUFlasher(port Port, timings Timings, hintOut io.Writer) *DFUFlasher {
	return &DFUFlasher{
		port:    port,
		session: NewSession(port, timings, hintOut),
		timings: timings,
	}
}

// SetProgressCallback sets the function called after every data packet.
func (f *DFUFlasher) SetProgressCallback(callback func(Progress)) {
	f.progressCallback = callback
}

// Close the port used by this flasher
func (f *DFUFlasher) Close() error {
	return f.port.Close()
}

// FlashFirmware runs the whole DFU transfer of image. Status messages are
// written to flasherOut.
func (f *DFUFlasher) FlashFirmware(image []byte, flasherOut io.Writer) error {
	if flasherOut == nil {
		flasherOut = io.Discard
	}

	fmt.Fprintln(flasherOut, "starting connection...")
	if err := f.session.SendReliable(protocol.NewStartPacket(uint32(len(image)))); err != nil {
		logrus.Error(err)
		return fmt.Errorf("sending start packet: %w", err)
	}
	time.Sleep(f.timings.StartSettle)

	fmt.Fprintln(flasherOut, "initializing upload...")
	if err := f.session.SendReliable(protocol.NewInitPacket(image)); err != nil {
		logrus.Error(err)
		return fmt.Errorf("sending init packet: %w", err)
	}
	time.Sleep(f.timings.InitSettle)

	chunks := protocol.Chunks(image)
	fmt.Fprintf(flasherOut, "uploading in %d chunks (%.2fkb)...\n", len(chunks), float64(len(image))/1024)
	for i, chunk := range chunks {
		packet, err := protocol.NewDataPacket(chunk)
		if err != nil {
			return err
		}
		if err := f.session.SendReliable(packet); err != nil {
			logrus.Error(err)
			return fmt.Errorf("sending data packet %d of %d: %w", i+1, len(chunks), err)
		}
		logrus.Debugf("Flashing chunk: %d/%d", i+1, len(chunks))
		if f.progressCallback != nil {
			f.progressCallback(Progress{
				Chunk:      i + 1,
				Total:      len(chunks),
				Percentage: float64(i+1) * 100 / float64(len(chunks)),
			})
		}
	}

	fmt.Fprintln(flasherOut, "finalizing upload...")
	if err := f.session.SendReliable(protocol.NewStopPacket()); err != nil {
		logrus.Error(err)
		return fmt.Errorf("sending stop packet: %w", err)
	}
	fmt.Fprintln(flasherOut, "done")
	logrus.Info("Flashed all the things")
	return nil
}
