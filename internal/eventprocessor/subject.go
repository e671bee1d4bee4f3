// Relaygate - Real-time WebSocket Gateway and Streaming Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relaygate

package eventprocessor

import "strings"

// SubjectForPattern converts an AMQP-style binding pattern into a NATS
// subject. A "#" segment becomes ">" and "*" is kept. NATS only allows ">"
// as the last token, so a "#" in any other position becomes "*".
func SubjectForPattern(pattern string) string {
	segments := strings.Split(pattern, ".")
	for i, seg := range segments {
		if seg != "#" {
			continue
		}
		if i == len(segments)-1 {
			segments[i] = ">"
		} else {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, ".")
}
