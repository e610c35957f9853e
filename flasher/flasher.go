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

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// SerialTimeout bounds every blocking read on the serial port
const SerialTimeout = 5 * time.Second

// This matches the UART configuration of the bootloader
const baudRate = 921600

// Port is the transport used to talk with the bootloader.
// serial.Port satisfies it.
type Port interface {
	io.ReadWriter
	Close() error
}

// Opener opens the transport identified by address.
type Opener func(address string) (Port, error)

type ExecOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// FlashResult contains the result of an upload
type FlashResult struct {
	Port    string      `json:"port"`
	DryRun  bool        `json:"dry_run"`
	Flasher *ExecOutput `json:"flasher,omitempty"`
}

func (r *FlashResult) Data() interface{} {
	return r
}

func (r *FlashResult) String() string {
	if r.DryRun {
		return fmt.Sprintf("Port %s is available (dry run, nothing uploaded)", r.Port)
	}
	return fmt.Sprintf("Firmware uploaded through %s", r.Port)
}

// OpenSerial opens and configures the serial port at portAddress for the
// upload: 921600 8N1, 5 seconds read timeout and empty buffers.
func OpenSerial(portAddress string) (Port, error) {
	port, err := serial.Open(portAddress, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		InitialStatusBits: &serial.ModemOutputBits{
			RTS: true,
			DTR: true,
		},
	})
	if err != nil {
		return nil, &IOError{Address: portAddress, Op: "open", Err: err}
	}
	logrus.Infof("Opened port %s at %d", portAddress, baudRate)

	if err := port.SetReadTimeout(SerialTimeout); err != nil {
		port.Close()
		err = &IOError{Address: portAddress, Op: "set timeout on", Err: err}
		logrus.Error(err)
		return nil, err
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, &IOError{Address: portAddress, Op: "flush", Err: err}
	}
	if err := port.ResetOutputBuffer(); err != nil {
		port.Close()
		return nil, &IOError{Address: portAddress, Op: "flush", Err: err}
	}
	return port, nil
}
