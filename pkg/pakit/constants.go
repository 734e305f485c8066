// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

// Package pakit provides a reference Go implementation of the Packit framing protocol.
//
// Packit is a length-delimited binary framing layer for byte-oriented
// transports (serial lines, sockets). This package provides the incremental
// receiver state machine, packet construction, wire encoding, and
// human-readable formatting.
package pakit

import "errors"

// Wire-format field sizes in bytes
const (
	SOPSize   = 2
	TypeSize  = 2
	CountSize = 2
	SizeSize  = 2

	// HeaderSize is the fixed frame header: SOP, type, count, size
	HeaderSize = SOPSize + TypeSize + CountSize + SizeSize
)

// Start-of-packet marker bytes
const (
	SOP0 = 0xB0
	SOP1 = 0xB2
)

// Payload and frame size limits.
//
// The SIZE field is a 16-bit quantity, but accepted payloads are capped at
// MaxPayloadSize. Declared sizes in [256, 65535] are rejected; raising the
// cap changes receiver buffer sizing and is a protocol decision, not an
// implementation one.
const (
	MaxPayloadSize = 255
	MaxFrameSize   = HeaderSize + MaxPayloadSize
)

// Field byte offsets within the frame header
const (
	sopOffset   = 0
	typeOffset  = SOPSize
	countOffset = SOPSize + TypeSize
	sizeOffset  = SOPSize + TypeSize + CountSize
)

// Receiver states (internal)
const (
	stateSOP = iota
	stateType
	stateCount
	stateSize
	statePayload
	stateComplete
)

// Receive-path errors. Errors returned by the receiver wrap one of these
// sentinels, so callers can classify with errors.Is.
var (
	// ErrInvalidSOP reports a frame whose first two bytes are not the SOP
	// marker. The receiver has already reset itself when this is returned.
	ErrInvalidSOP = errors.New("invalid SOP marker")

	// ErrSizeTooLarge reports a declared payload size above MaxPayloadSize.
	// The receiver has already reset itself when this is returned.
	ErrSizeTooLarge = errors.New("payload size too large")

	// ErrOverflow reports a write into an already-full receive buffer.
	// The size field is bounds-checked at header time, so this indicates a
	// state machine bug rather than a reachable protocol condition.
	ErrOverflow = errors.New("receive buffer overflow")

	// ErrNilBuffer reports a nil buffer passed to ReceiveBuffer.
	ErrNilBuffer = errors.New("nil buffer")
)

// Packet construction errors
var (
	// ErrPayloadMismatch reports inconsistent payload arguments: an empty
	// payload is representable only as a nil slice.
	ErrPayloadMismatch = errors.New("payload/size mismatch")

	// ErrPayloadTooLong reports a payload whose length does not fit the
	// 16-bit size field.
	ErrPayloadTooLong = errors.New("payload exceeds 16-bit size field")
)
