// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/NolanBrad/Packit/pkg/pakit"
	"github.com/spf13/cobra"
)

var (
	logStatsInterval int
	logShowErrors    bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Display decoded frames in human-readable format",
	Long: `Continuously decode and display Packit frames as they arrive.

Each completed frame is printed with its type, sequence count, size, and
payload. Framing errors (bad SOP, oversized payloads) are printed inline;
the receiver resynchronizes automatically on the next byte.

Supports both serial and WebSocket connections.`,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVar(&logStatsInterval, "stats-interval", 0, "Print statistics every N seconds (0 to disable)")
	logCmd.Flags().BoolVar(&logShowErrors, "show-errors", true, "Print framing errors inline")
}

func runLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Packit - Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	receiver := pakit.NewReceiver()
	stats := pakit.NewStatistics()
	buf := make([]byte, 256)

	var statsC <-chan time.Time
	if logStatsInterval > 0 {
		ticker := time.NewTicker(time.Duration(logStatsInterval) * time.Second)
		defer ticker.Stop()
		statsC = ticker.C
	}

	for {
		select {
		case <-statsC:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}
		stats.RecordBytes(n)

		// A chunk may hold several frames; resume from the reported offset
		pos := 0
		for pos < n {
			var complete bool
			pos, complete, err = receiver.ReceiveBuffer(buf[:n], pos)
			if err != nil {
				stats.RecordError(err)
				if logShowErrors {
					fmt.Printf("[ERROR] %v\n", err)
				}
				continue
			}
			if complete {
				if packet, ok := receiver.CompletedPacket(); ok {
					stats.RecordPacket(packet)
					fmt.Printf("[%s] %s", time.Now().Format("15:04:05.000"), pakit.FormatPacket(packet))
				}
			}
		}
	}
}
