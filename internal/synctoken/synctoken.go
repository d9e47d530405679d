// Package synctoken generates and normalizes the RFC 6578 sync-token /
// getctag values shared by every calendar mutation (§4.A, §4.G).
package synctoken

import (
	"strings"

	"github.com/google/uuid"
)

// New mints a fresh token of the form "data:,sync-<uuidv7>". UUIDv7 is
// time-ordered, so tokens sort in issue order even though they are opaque
// to clients.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the runtime's random source is broken;
		// fall back to NewRandom rather than panicking mid-request.
		id = uuid.New()
	}
	return "data:,sync-" + id.String()
}

// EnsureURI wraps a legacy bare token (one with no ":") in "data:,", so
// every token returned to a client satisfies RFC 3986 URI syntax (§8
// invariant 7). Tokens already containing ":" pass through unchanged.
func EnsureURI(token string) string {
	if strings.Contains(token, ":") {
		return token
	}
	return "data:," + token
}
