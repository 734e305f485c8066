// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

package pakit

import (
	"strings"
	"testing"
)

func mustPacket(t *testing.T, count uint16) *Packet {
	t.Helper()
	p, err := NewPacket(0x0001, count, nil)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	return p
}

func TestStatistics_Counters(t *testing.T) {
	s := NewStatistics()

	s.RecordPacket(mustPacket(t, 1))
	s.RecordPacket(mustPacket(t, 2))
	s.RecordError(ErrInvalidSOP)
	s.RecordError(ErrSizeTooLarge)
	s.RecordBytes(26)

	if s.Frames != 4 {
		t.Errorf("Frames = %d, want 4", s.Frames)
	}
	if s.ValidFrames != 2 {
		t.Errorf("ValidFrames = %d, want 2", s.ValidFrames)
	}
	if s.InvalidSOP != 1 || s.SizeTooLarge != 1 {
		t.Errorf("error counters = %d/%d, want 1/1", s.InvalidSOP, s.SizeTooLarge)
	}
	if s.BytesReceived != 26 {
		t.Errorf("BytesReceived = %d, want 26", s.BytesReceived)
	}
}

func TestStatistics_WrappedErrorsClassified(t *testing.T) {
	s := NewStatistics()

	r := NewReceiver()
	r.ReceiveByte(0xA0)
	_, err := r.ReceiveByte(0xA2)
	s.RecordError(err)

	if s.InvalidSOP != 1 {
		t.Errorf("wrapped ErrInvalidSOP not classified: InvalidSOP = %d", s.InvalidSOP)
	}
}

func TestStatistics_SequenceGaps(t *testing.T) {
	s := NewStatistics()

	s.RecordPacket(mustPacket(t, 10))
	s.RecordPacket(mustPacket(t, 11)) // in order
	s.RecordPacket(mustPacket(t, 14)) // gap of 2
	s.RecordPacket(mustPacket(t, 15)) // in order again

	if s.SequenceGaps != 1 {
		t.Errorf("SequenceGaps = %d, want 1", s.SequenceGaps)
	}
	if s.DroppedFrames != 2 {
		t.Errorf("DroppedFrames = %d, want 2", s.DroppedFrames)
	}
}

func TestStatistics_CountWraparound(t *testing.T) {
	s := NewStatistics()

	s.RecordPacket(mustPacket(t, 65535))
	s.RecordPacket(mustPacket(t, 0)) // natural uint16 wrap, not a gap

	if s.SequenceGaps != 0 {
		t.Errorf("wraparound counted as gap: SequenceGaps = %d", s.SequenceGaps)
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.RecordPacket(mustPacket(t, 1))
	s.RecordError(ErrInvalidSOP)

	out := s.String()
	if !strings.Contains(out, "Total Frames") {
		t.Errorf("summary missing totals: %q", out)
	}
	if !strings.Contains(out, "Invalid SOP") {
		t.Errorf("summary missing error line: %q", out)
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.RecordPacket(mustPacket(t, 1))
	s.RecordError(ErrOverflow)
	s.Reset()

	if s.Frames != 0 || s.ValidFrames != 0 || s.Overflows != 0 {
		t.Error("counters survived reset")
	}

	// Gap tracking starts over too
	s.RecordPacket(mustPacket(t, 100))
	if s.SequenceGaps != 0 {
		t.Error("first packet after reset counted as gap")
	}
}
