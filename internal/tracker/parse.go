package tracker

import (
	"strconv"
	"strings"
)

// ParseQuantity parses a raw form or flag value, returning fallback when
// the value is empty or not an integer.
func ParseQuantity(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}
