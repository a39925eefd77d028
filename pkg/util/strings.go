package util

import "strings"

// NormalizeTicker upper-cases and trims an instrument code.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
