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

// Package flashertest provides an in-memory bootloader for flasher tests.
package flashertest

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/embedded-lab/slip-dfu-uploader/flasher"
	"github.com/embedded-lab/slip-dfu-uploader/protocol"
)

// Bootloader is a fake serial port that acknowledges every frame written
// to it and records the payloads.
type Bootloader struct {
	// AckFor computes the acknowledgement for a frame; defaults to the
	// correct one.
	AckFor func(seq uint8) uint8
	// Silent makes the bootloader never answer, reads behave like a
	// serial port timeout.
	Silent bool
	// ReadDelay is slept before every read
	ReadDelay time.Duration
	// WriteErr is returned by every write
	WriteErr error

	mu       sync.Mutex
	payloads [][]byte
	seqs     []uint8
	pending  []byte
	closed   bool
}

// Write decodes the frame in data and queues its acknowledgement.
func (b *Bootloader) Write(data []byte) (int, error) {
	if b.WriteErr != nil {
		return 0, b.WriteErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, os.ErrClosed
	}

	body, err := protocol.Decode(data)
	if err != nil {
		return 0, err
	}
	header, err := protocol.UnpackHeader(body)
	if err != nil {
		return 0, err
	}
	if len(body) != protocol.HeaderSize+int(header.Length)+2 {
		return 0, fmt.Errorf("frame length %d doesn't match header length %d", len(body), header.Length)
	}
	b.seqs = append(b.seqs, header.Seq)
	b.payloads = append(b.payloads, append([]byte{}, body[protocol.HeaderSize:protocol.HeaderSize+int(header.Length)]...))

	if !b.Silent {
		ack := protocol.ExpectedAck(header.Seq)
		if b.AckFor != nil {
			ack = b.AckFor(header.Seq)
		}
		b.pending = append(b.pending, AckFrame(ack)...)
	}
	return len(data), nil
}

// Read returns queued acknowledgements. With nothing queued it returns
// 0 bytes and no error, as a serial port does on timeout.
func (b *Bootloader) Read(p []byte) (int, error) {
	if b.ReadDelay > 0 {
		time.Sleep(b.ReadDelay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, os.ErrClosed
	}
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

// Close marks the port as closed.
func (b *Bootloader) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("port already closed")
	}
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *Bootloader) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Payloads returns the payloads received so far.
func (b *Bootloader) Payloads() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte{}, b.payloads...)
}

// Sequences returns the sequence numbers of the frames received so far.
func (b *Bootloader) Sequences() []uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint8{}, b.seqs...)
}

// AckFrame builds the frame a bootloader sends to acknowledge up to ack.
func AckFrame(ack uint8) []byte {
	header := protocol.Header{Ack: ack}.Pack()
	return protocol.Escape(header[:])
}

// Bench is a set of fake boards addressable by port name.
type Bench struct {
	Boards map[string]*Bootloader

	mu     sync.Mutex
	opened []string
}

// NewBench creates an empty Bench.
func NewBench() *Bench {
	return &Bench{Boards: map[string]*Bootloader{}}
}

// Open implements flasher.Opener. Unknown addresses fail like a missing
// device node.
func (b *Bench) Open(address string) (flasher.Port, error) {
	b.mu.Lock()
	b.opened = append(b.opened, address)
	b.mu.Unlock()

	board, ok := b.Boards[address]
	if !ok {
		return nil, &flasher.IOError{Address: address, Op: "open", Err: os.ErrNotExist}
	}
	return board, nil
}

// Opened returns the addresses passed to Open, in order.
func (b *Bench) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.opened...)
}
