// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/NolanBrad/Packit/pkg/pakit"
	"github.com/spf13/cobra"
)

var (
	sendTypeID     uint16
	sendCount      uint16
	sendPayload    string
	sendPayloadHex string
	sendDryRun     bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build a frame and transmit it",
	Long: `Build a Packit frame from the given fields and write it to the connection.

The payload comes from --payload (literal text) or --payload-hex (hex text,
whitespace ignored); omit both for a zero-size frame. With --dry-run the
encoded frame is printed as hex instead of transmitted, which needs no
connection at all.`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Uint16Var(&sendTypeID, "type", 0, "16-bit frame type identifier")
	sendCmd.Flags().Uint16Var(&sendCount, "count", 0, "16-bit sequence number")
	sendCmd.Flags().StringVar(&sendPayload, "payload", "", "Payload as literal text")
	sendCmd.Flags().StringVar(&sendPayloadHex, "payload-hex", "", "Payload as hex text")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "Print the encoded frame instead of sending it")
}

func runSend(cmd *cobra.Command, args []string) error {
	if sendPayload != "" && sendPayloadHex != "" {
		return fmt.Errorf("--payload and --payload-hex are mutually exclusive")
	}

	var payload []byte
	switch {
	case sendPayload != "":
		payload = []byte(sendPayload)
	case sendPayloadHex != "":
		cleaned := strings.Join(strings.Fields(sendPayloadHex), "")
		var err error
		payload, err = hex.DecodeString(cleaned)
		if err != nil {
			return fmt.Errorf("invalid --payload-hex: %v", err)
		}
	}
	if len(payload) == 0 {
		payload = nil
	}

	frame, err := pakit.EncodeFields(sendTypeID, sendCount, payload)
	if err != nil {
		return fmt.Errorf("failed to build frame: %v", err)
	}

	if sendDryRun {
		fmt.Printf("Frame (%d bytes):\n", len(frame))
		for i, b := range frame {
			if i > 0 && i%16 == 0 {
				fmt.Println()
			}
			fmt.Printf("%02X ", b)
		}
		fmt.Println()
		return nil
	}

	conn, connInfo, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("write failed: %v", err)
	}

	fmt.Printf("Sent %d-byte frame (type 0x%04X, count %d, %d payload bytes) via %s\n",
		len(frame), sendTypeID, sendCount, len(payload), connInfo)
	return nil
}
