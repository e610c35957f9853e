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

package flasher_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/embedded-lab/slip-dfu-uploader/flasher"
	"github.com/embedded-lab/slip-dfu-uploader/flasher/flashertest"
	"github.com/embedded-lab/slip-dfu-uploader/protocol"
	"github.com/stretchr/testify/require"
)

// no delays, and a watcher that never fires during a test
var testTimings = flasher.Timings{AckTimeout: time.Minute}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSendReliable(t *testing.T) {
	board := &flashertest.Bootloader{}
	session := flasher.NewSession(board, testTimings, io.Discard)

	for i := 0; i < 10; i++ {
		require.NoError(t, session.SendReliable([]byte{byte(i)}))
	}
	require.Equal(t, []uint8{1, 2, 3, 4, 5, 6, 7, 0, 1, 2}, board.Sequences())
	require.Len(t, board.Payloads(), 10)
	require.Equal(t, []byte{9}, board.Payloads()[9])
}

func TestSendReliableSequenceMismatch(t *testing.T) {
	board := &flashertest.Bootloader{
		// acknowledge the frame number itself instead of the next one
		AckFor: func(seq uint8) uint8 { return seq },
	}
	session := flasher.NewSession(board, testTimings, io.Discard)

	err := session.SendReliable([]byte{0x01})
	var mismatch *flasher.SequenceMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, uint8(1), mismatch.Sent)
	require.Equal(t, uint8(2), mismatch.Expected)
	require.Equal(t, uint8(1), mismatch.Got)
}

func TestSendReliableTimeout(t *testing.T) {
	board := &flashertest.Bootloader{Silent: true}
	session := flasher.NewSession(board, testTimings, io.Discard)

	err := session.SendReliable([]byte{0x01})
	require.ErrorIs(t, err, flasher.ErrTimeout)
}

func TestSendReliableWriteError(t *testing.T) {
	board := &flashertest.Bootloader{WriteErr: errors.New("device disconnected")}
	session := flasher.NewSession(board, testTimings, io.Discard)

	err := session.SendReliable([]byte{0x01})
	var ioErr *flasher.IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "write to", ioErr.Op)
}

type scriptedPort struct {
	reads [][]byte
}

func (p *scriptedPort) Write(data []byte) (int, error) { return len(data), nil }
func (p *scriptedPort) Close() error                   { return nil }
func (p *scriptedPort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		return 0, nil
	}
	n := copy(b, p.reads[0])
	p.reads[0] = p.reads[0][n:]
	if len(p.reads[0]) == 0 {
		p.reads = p.reads[1:]
	}
	return n, nil
}

func TestSendReliableFragmentedAck(t *testing.T) {
	// leading noise, and the ack split across several reads
	ack := flashertest.AckFrame(2)
	port := &scriptedPort{reads: [][]byte{{0x00}, ack[:2], ack[2:5], ack[5:]}}
	session := flasher.NewSession(port, testTimings, io.Discard)
	require.NoError(t, session.SendReliable([]byte{0x01}))
}

func TestSendReliableMalformedAck(t *testing.T) {
	port := &scriptedPort{reads: [][]byte{{protocol.End, protocol.Esc, 0x42, protocol.End}}}
	session := flasher.NewSession(port, testTimings, io.Discard)

	err := session.SendReliable([]byte{0x01})
	var framingErr *protocol.FramingError
	require.ErrorAs(t, err, &framingErr)
}

func TestSendReliablePayloadTooLarge(t *testing.T) {
	board := &flashertest.Bootloader{}
	session := flasher.NewSession(board, testTimings, io.Discard)

	err := session.SendReliable(make([]byte, protocol.MaxPayloadLength))
	var validationErr *protocol.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Empty(t, board.Payloads())

	// the rejected payload doesn't consume a sequence number
	require.NoError(t, session.SendReliable([]byte{1}))
	require.Equal(t, []uint8{1}, board.Sequences())
}

func TestSlowAckPrintsHint(t *testing.T) {
	board := &flashertest.Bootloader{ReadDelay: 100 * time.Millisecond}
	out := &lockedBuffer{}
	session := flasher.NewSession(board, flasher.Timings{AckTimeout: 10 * time.Millisecond}, out)

	require.NoError(t, session.SendReliable([]byte{0x01}))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("reset your board"))
	}, time.Second, 10*time.Millisecond)
}

func TestFastAckPrintsNothing(t *testing.T) {
	board := &flashertest.Bootloader{}
	out := &lockedBuffer{}
	session := flasher.NewSession(board, flasher.Timings{AckTimeout: 50 * time.Millisecond}, out)

	require.NoError(t, session.SendReliable([]byte{0x01}))
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, out.String())
}
