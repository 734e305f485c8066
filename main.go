// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Nolan Brad

// Packit - Binary Packet Framer and Stream Analyzer
//
// A CLI tool for decoding, monitoring and building Packit protocol
// frames carried over serial or WebSocket transports.

package main

import (
	"os"

	"github.com/NolanBrad/Packit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
