// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NolanBrad/Packit/pkg/pakit"
	"github.com/spf13/cobra"
)

var (
	decodeHexInput bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode frames from a file or stdin",
	Long: `Decode all Packit frames contained in a file (or stdin when no file is given).

The input is treated as a raw byte stream: back-to-back frames are extracted
one after another, framing errors are reported with their byte offset, and
decoding continues from the next byte.

With --hex the input is parsed as hex text first (whitespace ignored), which
is handy for pasting logic-analyzer dumps.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVarP(&decodeHexInput, "hex", "x", false, "Parse input as hex text instead of raw bytes")
}

func runDecode(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %v", err)
	}

	if decodeHexInput {
		cleaned := strings.Join(strings.Fields(string(data)), "")
		data, err = hex.DecodeString(cleaned)
		if err != nil {
			return fmt.Errorf("invalid hex input: %v", err)
		}
	}

	receiver := pakit.NewReceiver()
	frames := 0
	errors := 0

	offset := 0
	for offset < len(data) {
		var complete bool
		offset, complete, err = receiver.ReceiveBuffer(data, offset)
		if err != nil {
			errors++
			fmt.Printf("[offset %d] ERROR: %v\n", offset-1, err)
			continue
		}
		if complete {
			frames++
			if packet, ok := receiver.CompletedPacket(); ok {
				fmt.Printf("Frame %d:\n  %s", frames, pakit.FormatPacket(packet))
			}
			continue
		}
		// Buffer exhausted mid-frame
		if n := receiver.Pending(); n > 0 {
			fmt.Printf("(trailing %d bytes of an incomplete frame)\n", n)
		}
	}

	fmt.Printf("\n%d frames decoded, %d errors\n", frames, errors)
	return nil
}
