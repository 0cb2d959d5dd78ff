// Package ids normalises identifiers at the repository boundary.
package ids

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// EnsureUUID returns id unchanged when it is already a UUID. Any other value is
// re-encoded deterministically: the hex of each UTF-16 code unit, right-padded
// with zeros and cut to 32 digits, with version nibble 4 and variant nibble a.
func EnsureUUID(id string) string {
	if IsUUID(id) {
		return id
	}
	var b strings.Builder
	for _, unit := range utf16.Encode([]rune(id)) {
		fmt.Fprintf(&b, "%x", unit)
	}
	hex := b.String()
	if len(hex) < 32 {
		hex += strings.Repeat("0", 32-len(hex))
	}
	hex = hex[:32]
	return hex[0:8] + "-" + hex[8:12] + "-4" + hex[12:15] + "-a" + hex[15:18] + "-" + hex[18:30]
}

func IsUUID(id string) bool {
	return uuidPattern.MatchString(id)
}
