// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/NolanBrad/Packit/pkg/pakit"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

// captureRecord is one decoded frame in a capture file. Records are
// CBOR-encoded back to back; integer keys keep the files compact.
type captureRecord struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	TypeID    uint16    `cbor:"2,keyasint"`
	Count     uint16    `cbor:"3,keyasint"`
	Payload   []byte    `cbor:"4,keyasint,omitempty"`
}

var (
	captureMaxFrames int
)

var captureCmd = &cobra.Command{
	Use:   "capture <file>",
	Short: "Record decoded frames to a capture file",
	Long: `Decode arriving Packit frames and append them to a capture file.

Each frame is stored as a CBOR record with its receive timestamp, type,
sequence count, and payload. Capture files can be inspected or re-emitted
later with the replay command.

Stops after --max-frames frames (0 means run until interrupted).`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().IntVar(&captureMaxFrames, "max-frames", 0, "Stop after this many frames (0 = unlimited)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %v", err)
	}
	defer f.Close()

	enc := cbor.NewEncoder(f)

	fmt.Printf("Packit - Capture\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Capture file: %s\n", args[0])
	fmt.Printf("Press Ctrl+C to exit\n\n")

	receiver := pakit.NewReceiver()
	buf := make([]byte, 256)
	captured := 0

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == ErrConnectionClosed {
				log.Printf("Connection closed after %d frames", captured)
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		pos := 0
		for pos < n {
			var complete bool
			pos, complete, err = receiver.ReceiveBuffer(buf[:n], pos)
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if !complete {
				continue
			}

			packet, ok := receiver.CompletedPacket()
			if !ok {
				continue
			}

			// The payload view dies on the next feed; the record copies it
			rec := captureRecord{
				Timestamp: time.Now(),
				TypeID:    packet.TypeID(),
				Count:     packet.Count(),
				Payload:   append([]byte(nil), packet.Payload()...),
			}
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("failed to write capture record: %v", err)
			}
			captured++
			fmt.Printf("captured frame %d: type=0x%04X count=%d size=%d\n",
				captured, rec.TypeID, rec.Count, len(rec.Payload))

			if captureMaxFrames > 0 && captured >= captureMaxFrames {
				fmt.Printf("\nCapture complete: %d frames\n", captured)
				return nil
			}
		}
	}
}
