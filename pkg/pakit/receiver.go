// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

package pakit

import (
	"encoding/binary"
	"fmt"
)

// Receiver implements the Packit frame receiver state machine.
//
// A Receiver accumulates bytes into a fixed-capacity buffer and advances
// through the header fields and payload. It holds at most one completed
// frame at a time; feeding a byte after completion implicitly resets the
// machine and treats that byte as the start of a new frame.
//
// A Receiver is not safe for concurrent use. One logical stream consumer
// owns it at a time.
type Receiver struct {
	buffer          []byte
	received        int
	headerComplete  bool
	expectedPayload int
	state           int
}

// NewReceiver creates a receiver in its initial state, ready for the first
// SOP byte. No allocation occurs after construction.
func NewReceiver() *Receiver {
	return &Receiver{
		buffer: make([]byte, MaxFrameSize),
	}
}

// Reset returns the receiver to its initial state. Any partially or fully
// accumulated frame is discarded. Resetting an already-reset receiver is
// harmless.
func (r *Receiver) Reset() {
	r.received = 0
	r.headerComplete = false
	r.expectedPayload = 0
	r.state = stateSOP
}

// ReceiveByte processes a single byte through the state machine.
//
// It returns (true, nil) when the byte completes a frame, (false, nil) when
// more bytes are needed, and (false, err) when the byte was rejected. On
// ErrInvalidSOP and ErrSizeTooLarge the receiver has already reset itself,
// so the very next byte is scanned as a fresh SOP. Malformed input never
// requires caller-side recovery beyond noting the error.
func (r *Receiver) ReceiveByte(b byte) (bool, error) {
	// A byte arriving after completion belongs to the next frame
	if r.state == stateComplete {
		r.Reset()
	}

	if r.received >= len(r.buffer) {
		return false, fmt.Errorf("%w: %d bytes buffered", ErrOverflow, r.received)
	}

	r.buffer[r.received] = b
	r.received++

	switch r.state {
	case stateSOP:
		if r.received == SOPSize {
			if r.buffer[0] != SOP0 || r.buffer[1] != SOP1 {
				b0, b1 := r.buffer[0], r.buffer[1]
				r.Reset()
				return false, fmt.Errorf("%w: got 0x%02X 0x%02X, want 0x%02X 0x%02X",
					ErrInvalidSOP, b0, b1, SOP0, SOP1)
			}
			r.state = stateType
		}

	case stateType:
		// Type is opaque to the framer, no validation
		if r.received == countOffset {
			r.state = stateCount
		}

	case stateCount:
		// Sequence continuity is the caller's concern, no validation
		if r.received == sizeOffset {
			r.state = stateSize
		}

	case stateSize:
		if r.received == HeaderSize {
			size := binary.BigEndian.Uint16(r.buffer[sizeOffset:HeaderSize])
			if int(size) > MaxPayloadSize {
				r.Reset()
				return false, fmt.Errorf("%w: declared %d bytes (max %d)",
					ErrSizeTooLarge, size, MaxPayloadSize)
			}
			r.expectedPayload = int(size)
			r.headerComplete = true
			if size == 0 {
				r.state = stateComplete
				return true, nil
			}
			r.state = statePayload
		}

	case statePayload:
		if r.received >= HeaderSize+r.expectedPayload {
			r.state = stateComplete
			return true, nil
		}
	}

	return false, nil
}

// ReceiveBuffer processes bytes from buf starting at offset, feeding them
// one at a time until the buffer is exhausted, a frame completes, or a byte
// is rejected.
//
// The returned offset is the position just past the last byte consumed,
// letting the caller resume from there on the next call, e.g. to extract
// back-to-back frames packed into one buffer. A completed frame stops
// processing immediately; remaining bytes are left unconsumed.
//
// A negative offset is treated as 0. A nil buf yields ErrNilBuffer.
func (r *Receiver) ReceiveBuffer(buf []byte, offset int) (int, bool, error) {
	if buf == nil {
		return offset, false, ErrNilBuffer
	}
	if offset < 0 {
		offset = 0
	}

	for offset < len(buf) {
		complete, err := r.ReceiveByte(buf[offset])
		offset++
		if err != nil {
			return offset, false, err
		}
		if complete {
			return offset, true, nil
		}
	}

	return offset, false, nil
}

// Pending returns the number of bytes accumulated toward the current
// frame since the last reset
func (r *Receiver) Pending() int {
	return r.received
}

// CompletedPacket returns the decoded frame once one is fully accumulated.
//
// This is a pure query: it does not consume the frame, and repeated calls
// before the next feed or reset return identical data. The packet's payload
// is a zero-copy view into the receiver's buffer: it is valid only until
// the receiver is reset or fed further bytes; callers that need the bytes
// past that point must copy them.
func (r *Receiver) CompletedPacket() (*Packet, bool) {
	if !r.headerComplete {
		return nil, false
	}

	size := binary.BigEndian.Uint16(r.buffer[sizeOffset:HeaderSize])
	if r.received < HeaderSize+int(size) {
		return nil, false
	}

	p := &Packet{
		count:   binary.BigEndian.Uint16(r.buffer[countOffset:sizeOffset]),
		size:    size,
		payload: r.buffer[HeaderSize : HeaderSize+int(size)],
	}
	copy(p.sop[:], r.buffer[sopOffset:typeOffset])
	copy(p.pktType[:], r.buffer[typeOffset:countOffset])

	return p, true
}
