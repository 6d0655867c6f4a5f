package content

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/Kaushik-93/Engram-sub000/internal/domain"
)

// Normalize produces the canonical text of a concept used for hashing.
// Each field is lowercased, trimmed, and has its line endings normalized,
// so cosmetic edits in a source file do not register as new content.
func Normalize(c domain.Concept) string {
	clean := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	// Fields are joined with a newline so a concept ending in "x" with clue
	// "y" cannot collide with a concept ending in "xy".
	return strings.Join([]string{clean(c.Text), clean(c.Clue)}, "\n")
}

// Hash returns the SHA-256 of the normalized concept as a hex string.
// It identifies a concept across repeated source syncs.
func Hash(c domain.Concept) string {
	sum := sha256.Sum256([]byte(Normalize(c)))
	return fmt.Sprintf("%x", sum)
}
