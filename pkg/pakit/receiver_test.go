// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

package pakit

import (
	"bytes"
	"errors"
	"testing"
)

// helloFrame is the canonical test frame: type 0x0103, count 1, payload "Hello"
var helloFrame = []byte{
	0xB0, 0xB2, // SOP
	0x01, 0x03, // type
	0x00, 0x01, // count (1)
	0x00, 0x05, // size (5)
	'H', 'e', 'l', 'l', 'o',
}

// buildFrame assembles a wire frame without going through the encoder,
// so receiver tests don't depend on the transmit path
func buildFrame(typeID, count uint16, payload []byte) []byte {
	frame := []byte{
		SOP0, SOP1,
		byte(typeID >> 8), byte(typeID),
		byte(count >> 8), byte(count),
		byte(len(payload) >> 8), byte(len(payload)),
	}
	return append(frame, payload...)
}

// feedFrame runs a whole frame through ReceiveByte and returns the final status
func feedFrame(t *testing.T, r *Receiver, frame []byte) (bool, error) {
	t.Helper()
	var complete bool
	var err error
	for _, b := range frame {
		complete, err = r.ReceiveByte(b)
		if err != nil {
			return complete, err
		}
	}
	return complete, err
}

// ============================================================
// Byte-at-a-Time Reception
// ============================================================

func TestReceiveByte_HelloFrame(t *testing.T) {
	r := NewReceiver()

	for i, b := range helloFrame {
		complete, err := r.ReceiveByte(b)
		if err != nil {
			t.Fatalf("byte %d (0x%02X): unexpected error: %v", i, b, err)
		}

		last := i == len(helloFrame)-1
		if complete != last {
			t.Errorf("byte %d: complete = %v, want %v", i, complete, last)
		}
	}

	p, ok := r.CompletedPacket()
	if !ok {
		t.Fatal("CompletedPacket returned no packet after full frame")
	}
	if p.SOP() != [2]byte{0xB0, 0xB2} {
		t.Errorf("SOP = %v, want {0xB0, 0xB2}", p.SOP())
	}
	if p.Type() != [2]byte{0x01, 0x03} {
		t.Errorf("Type = %v, want {0x01, 0x03}", p.Type())
	}
	if p.TypeID() != 0x0103 {
		t.Errorf("TypeID = 0x%04X, want 0x0103", p.TypeID())
	}
	if p.Count() != 1 {
		t.Errorf("Count = %d, want 1", p.Count())
	}
	if p.Size() != 5 {
		t.Errorf("Size = %d, want 5", p.Size())
	}
	if string(p.Payload()) != "Hello" {
		t.Errorf("Payload = %q, want %q", p.Payload(), "Hello")
	}
}

func TestReceiveByte_InvalidSOP(t *testing.T) {
	r := NewReceiver()

	// First byte alone cannot be judged yet
	complete, err := r.ReceiveByte(0xA0)
	if complete || err != nil {
		t.Fatalf("first byte: complete=%v err=%v, want in progress", complete, err)
	}

	// Error must surface exactly when the second SOP byte is consumed
	_, err = r.ReceiveByte(0xA2)
	if !errors.Is(err, ErrInvalidSOP) {
		t.Fatalf("second byte: err = %v, want ErrInvalidSOP", err)
	}
}

func TestReceiveByte_ResyncAfterInvalidSOP(t *testing.T) {
	r := NewReceiver()

	r.ReceiveByte(0xA0)
	_, err := r.ReceiveByte(0xA2)
	if !errors.Is(err, ErrInvalidSOP) {
		t.Fatalf("expected ErrInvalidSOP, got %v", err)
	}

	// The error already reset the receiver; a valid frame decodes cleanly
	complete, err := feedFrame(t, r, helloFrame)
	if err != nil {
		t.Fatalf("frame after resync: %v", err)
	}
	if !complete {
		t.Fatal("frame after resync did not complete")
	}

	p, ok := r.CompletedPacket()
	if !ok || string(p.Payload()) != "Hello" {
		t.Errorf("resynced packet wrong: ok=%v payload=%q", ok, p.Payload())
	}
}

func TestReceiveByte_ZeroPayload(t *testing.T) {
	r := NewReceiver()
	frame := buildFrame(0xBEEF, 7, nil)

	for i, b := range frame {
		complete, err := r.ReceiveByte(b)
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		// Completes on the size field's second byte, with nothing after
		if complete != (i == HeaderSize-1) {
			t.Errorf("byte %d: complete = %v", i, complete)
		}
	}

	p, ok := r.CompletedPacket()
	if !ok {
		t.Fatal("no packet after zero-payload frame")
	}
	if p.Size() != 0 {
		t.Errorf("Size = %d, want 0", p.Size())
	}
	if p.Payload() == nil {
		t.Error("Payload is nil, want empty non-nil slice")
	}
	if len(p.Payload()) != 0 {
		t.Errorf("Payload length = %d, want 0", len(p.Payload()))
	}
}

func TestReceiveByte_SizeTooLarge(t *testing.T) {
	// 256 is the first rejected declared size
	r := NewReceiver()
	frame := []byte{SOP0, SOP1, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00}

	for i, b := range frame[:HeaderSize-1] {
		if _, err := r.ReceiveByte(b); err != nil {
			t.Fatalf("byte %d: premature error: %v", i, err)
		}
	}

	_, err := r.ReceiveByte(frame[HeaderSize-1])
	if !errors.Is(err, ErrSizeTooLarge) {
		t.Fatalf("err = %v, want ErrSizeTooLarge", err)
	}

	// Self-reset: a valid frame decodes immediately afterwards
	if complete, err := feedFrame(t, r, helloFrame); err != nil || !complete {
		t.Errorf("frame after ErrSizeTooLarge: complete=%v err=%v", complete, err)
	}
}

func TestReceiveByte_MaxPayloadAccepted(t *testing.T) {
	r := NewReceiver()
	payload := bytes.Repeat([]byte{0x5A}, MaxPayloadSize)
	frame := buildFrame(0x0001, 0, payload)

	complete, err := feedFrame(t, r, frame)
	if err != nil {
		t.Fatalf("max-size frame rejected: %v", err)
	}
	if !complete {
		t.Fatal("max-size frame did not complete")
	}

	p, _ := r.CompletedPacket()
	if int(p.Size()) != MaxPayloadSize {
		t.Errorf("Size = %d, want %d", p.Size(), MaxPayloadSize)
	}
	if !bytes.Equal(p.Payload(), payload) {
		t.Error("payload mismatch on max-size frame")
	}
}

func TestReceiveByte_ImplicitResetOnComplete(t *testing.T) {
	r := NewReceiver()

	if complete, err := feedFrame(t, r, helloFrame); err != nil || !complete {
		t.Fatalf("first frame: complete=%v err=%v", complete, err)
	}

	// No explicit Reset: the next frame's first byte restarts the machine
	second := buildFrame(0x0204, 2, []byte("world"))
	complete, err := feedFrame(t, r, second)
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if !complete {
		t.Fatal("second frame did not complete")
	}

	p, ok := r.CompletedPacket()
	if !ok {
		t.Fatal("no packet after second frame")
	}
	if p.TypeID() != 0x0204 || p.Count() != 2 || string(p.Payload()) != "world" {
		t.Errorf("second packet wrong: type=0x%04X count=%d payload=%q",
			p.TypeID(), p.Count(), p.Payload())
	}
}

func TestReceiveByte_Overflow(t *testing.T) {
	// Unreachable through the protocol (size is checked at header time),
	// so force the guard condition directly
	r := NewReceiver()
	r.received = len(r.buffer)

	_, err := r.ReceiveByte(0x00)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

// ============================================================
// Buffer Reception
// ============================================================

func TestReceiveBuffer_SingleFrame(t *testing.T) {
	r := NewReceiver()

	offset, complete, err := r.ReceiveBuffer(helloFrame, 0)
	if err != nil {
		t.Fatalf("ReceiveBuffer: %v", err)
	}
	if !complete {
		t.Fatal("frame did not complete")
	}
	if offset != len(helloFrame) {
		t.Errorf("offset = %d, want %d", offset, len(helloFrame))
	}
}

func TestReceiveBuffer_NilBuffer(t *testing.T) {
	r := NewReceiver()
	_, _, err := r.ReceiveBuffer(nil, 0)
	if !errors.Is(err, ErrNilBuffer) {
		t.Errorf("err = %v, want ErrNilBuffer", err)
	}
}

func TestReceiveBuffer_NegativeOffsetStartsAtZero(t *testing.T) {
	r := NewReceiver()
	offset, complete, err := r.ReceiveBuffer(helloFrame, -1)
	if err != nil || !complete {
		t.Fatalf("complete=%v err=%v", complete, err)
	}
	if offset != len(helloFrame) {
		t.Errorf("offset = %d, want %d", offset, len(helloFrame))
	}
}

func TestReceiveBuffer_PartialThenResume(t *testing.T) {
	r := NewReceiver()
	split := 6

	offset, complete, err := r.ReceiveBuffer(helloFrame[:split], 0)
	if err != nil || complete {
		t.Fatalf("partial feed: complete=%v err=%v", complete, err)
	}
	if offset != split {
		t.Errorf("offset after partial = %d, want %d", offset, split)
	}

	// Remaining bytes arrive as a second chunk
	_, complete, err = r.ReceiveBuffer(helloFrame[split:], 0)
	if err != nil || !complete {
		t.Fatalf("resumed feed: complete=%v err=%v", complete, err)
	}
}

func TestReceiveBuffer_BackToBackFrames(t *testing.T) {
	first := buildFrame(0x0103, 1, []byte("Hello"))
	second := buildFrame(0x0103, 2, []byte("World"))
	stream := append(append([]byte{}, first...), second...)

	r := NewReceiver()

	offset, complete, err := r.ReceiveBuffer(stream, 0)
	if err != nil || !complete {
		t.Fatalf("first extraction: complete=%v err=%v", complete, err)
	}
	if offset != len(first) {
		t.Fatalf("offset = %d, want %d (first byte after frame 1)", offset, len(first))
	}
	if p, _ := r.CompletedPacket(); string(p.Payload()) != "Hello" {
		t.Errorf("frame 1 payload = %q", p.Payload())
	}

	// Resume from the reported offset for the second frame
	r.Reset()
	offset, complete, err = r.ReceiveBuffer(stream, offset)
	if err != nil || !complete {
		t.Fatalf("second extraction: complete=%v err=%v", complete, err)
	}
	if offset != len(stream) {
		t.Errorf("offset = %d, want %d", offset, len(stream))
	}

	p, ok := r.CompletedPacket()
	if !ok {
		t.Fatal("no packet after second extraction")
	}
	if p.Count() != 2 || string(p.Payload()) != "World" {
		t.Errorf("frame 2 wrong: count=%d payload=%q", p.Count(), p.Payload())
	}
}

func TestReceiveBuffer_StopsAtError(t *testing.T) {
	r := NewReceiver()
	stream := append([]byte{0xA0, 0xA2}, helloFrame...)

	offset, complete, err := r.ReceiveBuffer(stream, 0)
	if !errors.Is(err, ErrInvalidSOP) {
		t.Fatalf("err = %v, want ErrInvalidSOP", err)
	}
	if complete {
		t.Error("complete = true alongside an error")
	}
	if offset != 2 {
		t.Errorf("offset = %d, want 2 (just past the rejected byte)", offset)
	}

	// Caller resumes from the reported offset and gets the valid frame
	_, complete, err = r.ReceiveBuffer(stream, offset)
	if err != nil || !complete {
		t.Fatalf("resume after error: complete=%v err=%v", complete, err)
	}
}

func TestReceiveBuffer_MatchesByteAtATime(t *testing.T) {
	streams := [][]byte{
		helloFrame,
		buildFrame(0xFFFF, 65535, bytes.Repeat([]byte{0x00}, 100)),
		buildFrame(0x0000, 0, nil),
		append([]byte{0x11, 0x22}, helloFrame...),
	}

	for i, stream := range streams {
		byteRx := NewReceiver()
		var byteComplete bool
		var byteErr error
		for _, b := range stream {
			byteComplete, byteErr = byteRx.ReceiveByte(b)
			if byteErr != nil || byteComplete {
				break
			}
		}

		bufRx := NewReceiver()
		_, bufComplete, bufErr := bufRx.ReceiveBuffer(stream, 0)

		if byteComplete != bufComplete {
			t.Errorf("stream %d: complete mismatch: byte=%v buffer=%v", i, byteComplete, bufComplete)
		}
		if (byteErr == nil) != (bufErr == nil) {
			t.Errorf("stream %d: error mismatch: byte=%v buffer=%v", i, byteErr, bufErr)
		}

		bp, bok := byteRx.CompletedPacket()
		fp, fok := bufRx.CompletedPacket()
		if bok != fok {
			t.Errorf("stream %d: packet availability mismatch", i)
			continue
		}
		if bok && !bytes.Equal(bp.Payload(), fp.Payload()) {
			t.Errorf("stream %d: payload mismatch", i)
		}
	}
}

// ============================================================
// Completion Query
// ============================================================

func TestCompletedPacket_NoneBeforeComplete(t *testing.T) {
	r := NewReceiver()

	if _, ok := r.CompletedPacket(); ok {
		t.Error("fresh receiver reported a packet")
	}

	// Header not yet finished
	for _, b := range helloFrame[:HeaderSize-1] {
		r.ReceiveByte(b)
	}
	if _, ok := r.CompletedPacket(); ok {
		t.Error("packet reported before header complete")
	}

	// Header done, payload still missing
	r.ReceiveByte(helloFrame[HeaderSize-1])
	r.ReceiveByte(helloFrame[HeaderSize])
	if _, ok := r.CompletedPacket(); ok {
		t.Error("packet reported before payload complete")
	}
}

func TestCompletedPacket_Idempotent(t *testing.T) {
	r := NewReceiver()
	feedFrame(t, r, helloFrame)

	p1, ok1 := r.CompletedPacket()
	p2, ok2 := r.CompletedPacket()
	if !ok1 || !ok2 {
		t.Fatal("repeated query lost the packet")
	}
	if p1.TypeID() != p2.TypeID() || p1.Count() != p2.Count() || p1.Size() != p2.Size() {
		t.Error("repeated queries returned different headers")
	}
	if !bytes.Equal(p1.Payload(), p2.Payload()) {
		t.Error("repeated queries returned different payloads")
	}
}

func TestCompletedPacket_ViewInvalidatedByFeed(t *testing.T) {
	r := NewReceiver()
	feedFrame(t, r, helloFrame)

	p, _ := r.CompletedPacket()
	got := string(p.Payload()) // copy while the borrow is valid
	if got != "Hello" {
		t.Fatalf("payload = %q", got)
	}

	// Feeding a new frame reuses the buffer underneath the old view
	feedFrame(t, r, buildFrame(0x0103, 2, []byte("xxxxx")))
	if string(p.Payload()) == "Hello" {
		t.Error("old payload view still intact; expected buffer reuse")
	}
}

func TestReset_Idempotent(t *testing.T) {
	r := NewReceiver()
	feedFrame(t, r, helloFrame)

	r.Reset()
	r.Reset()

	if _, ok := r.CompletedPacket(); ok {
		t.Error("packet survived reset")
	}
	if complete, err := feedFrame(t, r, helloFrame); err != nil || !complete {
		t.Errorf("frame after double reset: complete=%v err=%v", complete, err)
	}
}
