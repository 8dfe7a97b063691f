package utils

import "fmt"

// Truncate shortens s to at most max runes, noting how many were dropped.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return fmt.Sprintf("%s... %d more", string(runes[:max]), len(runes)-max)
}
