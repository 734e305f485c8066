// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

package pakit

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Marshal serializes the packet to wire format: an 8-byte header followed
// by the payload. The returned slice is freshly allocated and safe to keep
// after the packet's borrowed payload goes away.
func (p *Packet) Marshal() ([]byte, error) {
	if len(p.payload) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(p.payload))
	}

	frame := make([]byte, HeaderSize+len(p.payload))
	frame[sopOffset] = p.sop[0]
	frame[sopOffset+1] = p.sop[1]
	copy(frame[typeOffset:countOffset], p.pktType[:])
	binary.BigEndian.PutUint16(frame[countOffset:sizeOffset], p.count)
	binary.BigEndian.PutUint16(frame[sizeOffset:HeaderSize], uint16(len(p.payload)))
	copy(frame[HeaderSize:], p.payload)

	return frame, nil
}

// EncodeFields builds and serializes a frame in one step. Equivalent to
// NewPacket followed by Marshal.
func EncodeFields(typeID uint16, count uint16, payload []byte) ([]byte, error) {
	p, err := NewPacket(typeID, count, payload)
	if err != nil {
		return nil, err
	}
	return p.Marshal()
}
