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
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/embedded-lab/slip-dfu-uploader/protocol"
	"github.com/sirupsen/logrus"
)

// acknowledgements are read in windows of this size
const ackReadWindow = 6

const timeoutHint = "Your read operation seems to be timing out. Make sure you reset your board before uploading a program\n" +
	"and try turning it off and on again. We'll keep trying to send data, but most likely the upload has failed now."

// Session delivers frames to the bootloader one at a time, waiting for each
// to be acknowledged. A Session owns the sequence counter of one connection
// and must not be shared between goroutines.
type Session struct {
	port       Port
	seq        protocol.Sequence
	out        io.Writer
	ackTimeout time.Duration
	postWrite  time.Duration
}

// NewSession returns a session on port with a fresh sequence counter.
// Operator hints are printed to out.
func NewSession(port Port, timings Timings, out io.Writer) *Session {
	if out == nil {
		out = io.Discard
	}
	if timings.AckTimeout <= 0 {
		timings.AckTimeout = SerialTimeout
	}
	return &Session{
		port:       port,
		out:        out,
		ackTimeout: timings.AckTimeout,
		postWrite:  timings.PostWrite,
	}
}

// SendReliable sends payload in a frame and waits until the bootloader
// acknowledges it.
func (s *Session) SendReliable(payload []byte) error {
	// the counter only advances once the frame is going on the wire
	next := s.seq
	seq := next.Next()
	frame, err := protocol.Encode(seq, payload)
	if err != nil {
		return err
	}
	s.seq = next

	logrus.Debugf("send frame %d: % X", seq, frame)
	if err := writeAll(s.port, frame); err != nil {
		return &IOError{Op: "write to", Err: err}
	}
	if s.postWrite > 0 {
		time.Sleep(s.postWrite)
	}

	ack, err := s.waitForAck()
	if err != nil {
		return fmt.Errorf("waiting for message acknowledgement. If this is due to a timeout, try resetting your board, or turning it off and on again: %w", err)
	}
	if expected := protocol.ExpectedAck(seq); ack != expected {
		return &SequenceMismatchError{Sent: seq, Expected: expected, Got: ack}
	}
	return nil
}

func (s *Session) waitForAck() (uint8, error) {
	done := make(chan struct{})
	go s.watch(done)
	defer close(done)

	var response []byte
	window := make([]byte, ackReadWindow)
	for protocol.FrameEnd(response) < 0 {
		n, err := s.port.Read(window)
		if err != nil {
			return 0, &IOError{Op: "read from", Err: err}
		}
		if n == 0 {
			return 0, ErrTimeout
		}
		response = append(response, window[:n]...)
	}
	logrus.Debugf("received: % X", response)

	start := bytes.IndexByte(response, protocol.End)
	return protocol.DecodeAck(response[start:protocol.FrameEnd(response)])
}

// watch prints a hint for the operator if the acknowledgement doesn't
// arrive in time. It doesn't interfere with the pending read.
func (s *Session) watch(done <-chan struct{}) {
	timer := time.NewTimer(s.ackTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logrus.Warn("acknowledgement is taking longer than expected")
		fmt.Fprintln(s.out, timeoutHint)
	}
}

func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		logrus.Tracef("Sent %d bytes out of %d", n, len(data))
		data = data[n:]
	}
	return nil
}
