// Package identity derives stable pseudo-identifiers for chat messages.
// The host page exposes no message IDs, so reactions are keyed by a
// deterministic digest of what the message looks like instead.
package identity

import (
	"encoding/base64"
	"strings"
)

// Length is the fixed size of a derived identity.
const Length = 32

const separator = "|"

// Derive computes the identity for a message from its visible author,
// body and timestamp text. The same triple always yields the same
// identity; two physically distinct messages with identical triples
// collide on purpose, since the system keys reactions by logical
// message, not DOM node.
func Derive(author, body, timestamp string) string {
	raw := author + separator + body + separator + timestamp
	encoded := base64.StdEncoding.EncodeToString([]byte(raw))

	var b strings.Builder
	b.Grow(Length)
	for _, r := range encoded {
		if isAlphanumeric(r) {
			b.WriteRune(r)
		}
		if b.Len() == Length {
			break
		}
	}
	return b.String()
}

func isAlphanumeric(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
