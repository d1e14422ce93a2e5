package storage

import (
	"regexp"
	"strings"
)

var (
	nonASCII           = regexp.MustCompile(`[^\x00-\x7F]+`)
	repeatedUnderscore = regexp.MustCompile(`_{2,}`)
)

// SanitizeFilename makes a filename safe for object metadata, which only
// accepts ASCII. Non-ASCII runs become a single underscore, runs of
// underscores collapse, and leading/trailing underscores are trimmed.
// Sanitizing an already-clean name returns it unchanged.
func SanitizeFilename(name string) string {
	s := nonASCII.ReplaceAllString(name, "_")
	s = repeatedUnderscore.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
