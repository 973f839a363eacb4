package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// NewTicketID returns an identifier of the form TICKET-XXXXXXXX where X is
// an uppercase hex digit drawn from 4 cryptographically random bytes.
// Collisions are negligible but possible; callers must treat the ID as an
// opaque key and not assume monotonicity.
func NewTicketID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err == nil {
		return "TICKET-" + strings.ToUpper(hex.EncodeToString(buf))
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return "TICKET-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

// SanitizeChannelName lowercases a username and strips everything outside
// [a-z0-9] so it is safe inside a channel name.
func SanitizeChannelName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
