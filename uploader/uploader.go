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

package uploader

import (
	"fmt"
	"io"

	"github.com/embedded-lab/slip-dfu-uploader/flasher"
	"github.com/embedded-lab/slip-dfu-uploader/ports"
	"github.com/sirupsen/logrus"
)

// NoPortWorkedError is returned when every candidate port failed.
// The single failures have been reported as warnings already.
type NoPortWorkedError struct {
	Errors []error
}

func (e *NoPortWorkedError) Error() string {
	return "uploading failed because none of the ports tried worked (see previous warnings)"
}

func (e *NoPortWorkedError) Unwrap() []error {
	return e.Errors
}

// Uploader uploads images to the boards reachable through the serial ports.
// The zero value uses the real serial ports and no interactive chooser.
type Uploader struct {
	// Open opens a port, defaults to flasher.OpenSerial
	Open flasher.Opener
	// Enumerate lists the ports, defaults to ports.SerialEnumerator
	Enumerate ports.Enumerator
	// Choose picks a port when the operator must decide
	Choose ports.Chooser
	// Out receives status messages, Err receives warnings
	Out io.Writer
	Err io.Writer
	// Warn reports a failed port that is skipped, defaults to a
	// WARNING line on Err
	Warn func(msg string)
	// Timings of the upload procedure, defaults to flasher.DefaultTimings
	Timings *flasher.Timings
	// Progress is called after each data packet
	Progress func(flasher.Progress)
}

func (u *Uploader) opener() flasher.Opener {
	if u.Open == nil {
		return flasher.OpenSerial
	}
	return u.Open
}

func (u *Uploader) timings() flasher.Timings {
	if u.Timings == nil {
		return flasher.DefaultTimings()
	}
	return *u.Timings
}

func (u *Uploader) warn(msg string) {
	if u.Warn != nil {
		u.Warn(msg)
		return
	}
	fmt.Fprintf(writerOrDiscard(u.Err), "WARNING: %s\n", msg)
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// Upload sends image to the board on one of the ports selected by mode and
// returns the address of the port used. With dryRun nothing is sent, the
// first port that can be opened is returned.
func (u *Uploader) Upload(mode ports.Mode, image []byte, dryRun bool) (string, error) {
	if err := ports.Validate(mode, dryRun); err != nil {
		return "", err
	}
	selector := &ports.Selector{Enumerate: u.Enumerate, Choose: u.Choose}
	plan, err := selector.Resolve(mode)
	if err != nil {
		return "", err
	}

	var errs []error
	for _, address := range plan.Candidates {
		err := u.tryPort(address, image, dryRun)
		if err == nil {
			return address, nil
		}
		if plan.StopOnFirstError || len(plan.Candidates) == 1 {
			return "", err
		}
		logrus.Warn(err)
		u.warn(err.Error())
		errs = append(errs, err)
	}
	return "", &NoPortWorkedError{Errors: errs}
}

func (u *Uploader) tryPort(address string, image []byte, dryRun bool) error {
	logrus.Infof("Trying port %s", address)
	port, err := u.opener()(address)
	if err != nil {
		logrus.Error(err)
		return err
	}
	defer port.Close()

	if dryRun {
		return nil
	}

	f := flasher.NewDFUFlasher(port, u.timings(), writerOrDiscard(u.Out))
	f.SetProgressCallback(u.Progress)
	if err := f.FlashFirmware(image, writerOrDiscard(u.Out)); err != nil {
		return fmt.Errorf("failed to upload to port %s: %w", address, err)
	}
	return nil
}
