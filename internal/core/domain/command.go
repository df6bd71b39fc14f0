package domain

import (
	"strings"
	"unicode"
)

// SplitCommand splits a message into its first whitespace-delimited token
// and the remainder with leading whitespace removed. Commands use it both
// for command-name resolution and for subcommand parsing inside a
// conversation.
func SplitCommand(message string) (string, string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", ""
	}

	i := strings.IndexFunc(trimmed, unicode.IsSpace)
	if i < 0 {
		return trimmed, ""
	}

	return trimmed[:i], strings.TrimLeftFunc(trimmed[i:], unicode.IsSpace)
}
