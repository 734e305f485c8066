// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/NolanBrad/Packit/pkg/pakit"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var (
	replayDelay   int
	replayPrint   bool
	replayRecount bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Re-emit frames from a capture file",
	Long: `Read a capture file and re-encode its frames onto the connection.

With --print the frames are listed on stdout instead, which needs no
connection and doubles as a capture file inspector. --delay inserts a pause
between frames; --renumber replaces the recorded sequence counts with a
fresh ascending series starting at 0.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().IntVar(&replayDelay, "delay", 0, "Delay between frames in milliseconds")
	replayCmd.Flags().BoolVar(&replayPrint, "print", false, "List frames on stdout instead of sending")
	replayCmd.Flags().BoolVar(&replayRecount, "renumber", false, "Renumber sequence counts from 0")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture file: %v", err)
	}
	defer f.Close()

	var conn Connection
	if !replayPrint {
		var connInfo string
		conn, connInfo, err = openConnection()
		if err != nil {
			return err
		}
		defer conn.Close()
		fmt.Printf("Replaying %s via %s\n\n", args[0], connInfo)
	}

	dec := cbor.NewDecoder(f)
	replayed := 0

	for {
		var rec captureRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("record %d: corrupt capture file: %v", replayed+1, err)
		}

		count := rec.Count
		if replayRecount {
			count = uint16(replayed)
		}

		var payload []byte
		if len(rec.Payload) > 0 {
			payload = rec.Payload
		}

		if replayPrint {
			packet, err := pakit.NewPacket(rec.TypeID, count, payload)
			if err != nil {
				return fmt.Errorf("record %d: %v", replayed+1, err)
			}
			fmt.Printf("[%s] %s", rec.Timestamp.Format("15:04:05.000"), pakit.FormatPacket(packet))
		} else {
			frame, err := pakit.EncodeFields(rec.TypeID, count, payload)
			if err != nil {
				return fmt.Errorf("record %d: %v", replayed+1, err)
			}
			if _, err := conn.Write(frame); err != nil {
				return fmt.Errorf("record %d: write failed: %v", replayed+1, err)
			}
		}
		replayed++

		if replayDelay > 0 {
			time.Sleep(time.Duration(replayDelay) * time.Millisecond)
		}
	}

	fmt.Printf("\n%d frames replayed\n", replayed)
	return nil
}
