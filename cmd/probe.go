// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/NolanBrad/Packit/pkg/pakit"
	"github.com/spf13/cobra"
)

var (
	probeTimeout int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connection by waiting for a valid frame",
	Long: `Wait for a valid Packit frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any
complete, well-framed packet, ignoring invalid bytes along the way.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking that a device is alive and actually speaking Packit.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

type probeResult struct {
	typeID       uint16
	count        uint16
	size         uint16
	invalidBytes int
}

func runProbe(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Packit - Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for valid Packit frame...\n\n")

	receiver := pakit.NewReceiver()
	buf := make([]byte, 256)

	resultChan := make(chan probeResult, 1)
	errChan := make(chan error, 1)

	go func() {
		invalidBytes := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			pos := 0
			for pos < n {
				var complete bool
				pos, complete, err = receiver.ReceiveBuffer(buf[:n], pos)
				if err != nil {
					// Not synced yet; count and keep scanning
					invalidBytes++
					continue
				}
				if complete {
					packet, ok := receiver.CompletedPacket()
					if !ok {
						continue
					}
					resultChan <- probeResult{
						typeID:       packet.TypeID(),
						count:        packet.Count(),
						size:         packet.Size(),
						invalidBytes: invalidBytes,
					}
					return
				}
			}
		}
	}()

	select {
	case res := <-resultChan:
		if res.invalidBytes > 0 {
			fmt.Printf("(skipped %d invalid bytes before sync)\n", res.invalidBytes)
		}
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Type: 0x%04X\n", res.typeID)
		fmt.Printf("  Count: %d\n", res.count)
		fmt.Printf("  Size: %d bytes\n", res.size)
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(probeTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", probeTimeout)
		os.Exit(1)
	}

	return nil
}
