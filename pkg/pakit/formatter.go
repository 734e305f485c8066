// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Nolan Brad

package pakit

import (
	"fmt"
	"strings"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	result := fmt.Sprintf("TYPE=0x%02X%02X COUNT=%d SIZE=%d\n",
		p.pktType[0], p.pktType[1], p.count, p.size)

	if p.size > 0 {
		result += FormatPayload(p.payload)
	}

	return result
}

// FormatPayload renders payload bytes: quoted text when every byte is
// printable ASCII, a hex dump otherwise.
func FormatPayload(payload []byte) string {
	if isPrintable(payload) {
		return fmt.Sprintf("  Payload: '%s'\n", string(payload))
	}

	var b strings.Builder
	b.WriteString("  Payload: ")
	for i, c := range payload {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n           ")
		}
		fmt.Fprintf(&b, "%02X ", c)
	}
	b.WriteString("\n")
	return b.String()
}

func isPrintable(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, b := range data {
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}
