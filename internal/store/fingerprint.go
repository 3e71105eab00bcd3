package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var digitRun = regexp.MustCompile(`\d+`)

// Fingerprint derives a stable identity key for recurring instances of the
// same alert signature. Digits in the title are collapsed to a placeholder
// so "Disk 85% full" and "Disk 92% full" hash identically.
func Fingerprint(service, host, title string) string {
	normalized := digitRun.ReplaceAllString(strings.ToLower(title), "x")
	h := xxhash.Sum64String(service + ":" + host + ":" + normalized)
	return fmt.Sprintf("%016x", h)
}
