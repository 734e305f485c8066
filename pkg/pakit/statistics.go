// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

package pakit

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks stream health on top of a Receiver.
//
// The framer itself never inspects sequence numbers; this tracker implements
// the caller side of gap detection, plus per-error-kind counters and rates.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	BytesReceived uint64
	Frames        uint64
	ValidFrames   uint64
	InvalidSOP    uint64
	SizeTooLarge  uint64
	Overflows     uint64
	SequenceGaps  uint64
	DroppedFrames uint64 // frames missing according to COUNT deltas

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec

	lastCount uint16
	haveCount bool
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// RecordError classifies a receive error into its counter
func (s *Statistics) RecordError(err error) {
	s.Frames++
	switch {
	case errors.Is(err, ErrInvalidSOP):
		s.InvalidSOP++
	case errors.Is(err, ErrSizeTooLarge):
		s.SizeTooLarge++
	case errors.Is(err, ErrOverflow):
		s.Overflows++
	}
	s.LastUpdateTime = time.Now()
}

// RecordPacket counts a completed frame and checks its sequence number
// against the previous one
func (s *Statistics) RecordPacket(p *Packet) {
	s.RecordFrame(p.Count())
}

// RecordFrame counts a completed frame by its sequence number. A count
// delta greater than 1 (mod 65536) is a gap, with the missing frames
// added to DroppedFrames.
func (s *Statistics) RecordFrame(count uint16) {
	s.Frames++
	s.ValidFrames++

	if s.haveCount {
		delta := count - s.lastCount // wraps naturally on uint16
		if delta != 1 {
			s.SequenceGaps++
			if delta > 1 {
				s.DroppedFrames += uint64(delta - 1)
			}
		}
	}
	s.lastCount = count
	s.haveCount = true
	s.LastUpdateTime = time.Now()
}

// RecordBytes counts raw bytes handed to the receiver
func (s *Statistics) RecordBytes(n int) {
	s.BytesReceived += uint64(n)
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.Frames) / elapsed
		errorCount := s.InvalidSOP + s.SizeTooLarge + s.Overflows
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent float64
	if s.Frames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.Frames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Bytes Received:  %8d\n", s.BytesReceived)
	result += fmt.Sprintf("Total Frames:    %8d\n", s.Frames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.InvalidSOP > 0 {
		result += fmt.Sprintf("Invalid SOP:     %8d\n", s.InvalidSOP)
	}
	if s.SizeTooLarge > 0 {
		result += fmt.Sprintf("Size Too Large:  %8d\n", s.SizeTooLarge)
	}
	if s.Overflows > 0 {
		result += fmt.Sprintf("Overflows:       %8d\n", s.Overflows)
	}
	if s.SequenceGaps > 0 {
		result += fmt.Sprintf("Sequence Gaps:   %8d (%d frames dropped)\n", s.SequenceGaps, s.DroppedFrames)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	*s = Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}
