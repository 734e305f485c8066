// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

package pakit

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Packet represents a decoded Packit frame.
//
// The payload slice is borrowed, never owned: packets produced by a
// Receiver alias its internal buffer, and packets built with NewPacket
// alias the caller's buffer. Either way the payload is valid only as long
// as the backing storage is.
type Packet struct {
	sop     [SOPSize]byte
	pktType [TypeSize]byte
	count   uint16
	size    uint16
	payload []byte
}

// NewPacket builds an outgoing packet from caller-supplied fields.
//
// The SOP marker is filled in and typeID is encoded big-endian into the
// two type bytes. The payload is referenced, not copied; ownership stays
// with the caller. A nil payload means a zero-size frame; a non-nil empty
// slice is rejected with ErrPayloadMismatch so that "no payload" has
// exactly one representation.
//
// The payload length is not checked against MaxPayloadSize; only lengths
// that cannot fit the 16-bit size field are rejected.
func NewPacket(typeID uint16, count uint16, payload []byte) (*Packet, error) {
	if payload != nil && len(payload) == 0 {
		return nil, fmt.Errorf("%w: non-nil payload with zero length", ErrPayloadMismatch)
	}
	if len(payload) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}

	p := &Packet{
		count:   count,
		size:    uint16(len(payload)),
		payload: payload,
	}
	p.sop[0] = SOP0
	p.sop[1] = SOP1
	binary.BigEndian.PutUint16(p.pktType[:], typeID)

	return p, nil
}

// SOP returns the frame's start-of-packet marker bytes
func (p *Packet) SOP() [SOPSize]byte {
	return p.sop
}

// Type returns the frame's raw type bytes
func (p *Packet) Type() [TypeSize]byte {
	return p.pktType
}

// TypeID returns the type field decoded as a big-endian uint16
func (p *Packet) TypeID() uint16 {
	return binary.BigEndian.Uint16(p.pktType[:])
}

// Count returns the frame's sequence number. The framer itself never
// validates continuity; gap detection belongs to the caller.
func (p *Packet) Count() uint16 {
	return p.count
}

// Size returns the payload length in bytes
func (p *Packet) Size() uint16 {
	return p.size
}

// Payload returns the borrowed payload bytes. Empty payloads are reported
// as a zero-length, non-nil slice by the receiver.
func (p *Packet) Payload() []byte {
	return p.payload
}
