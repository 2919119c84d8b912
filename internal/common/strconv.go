package common

import (
	"strconv"
	"strings"
)

// AtoiDefault parses value as an integer, returning def when it is blank or malformed.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
