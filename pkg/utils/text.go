// Package utils provides small helpers shared by the CLI: logging and text layout.
package utils

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
// maxLen <= 0 returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
