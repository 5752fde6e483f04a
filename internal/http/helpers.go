package http

import (
	"strings"
)

// sanitizeInput removes control characters except tab/newline/CR and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// nativeConfirmed stands in for the browser's confirm(). Desktop requests only
// arrive after hx-confirm was accepted; a declined confirm sends nothing.
func nativeConfirmed(string) bool { return true }
