package events

import (
	"strconv"
	"strings"
)

func normalizeDenom(denom string) string {
	trimmed := strings.TrimSpace(denom)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func boolToString(v bool) string {
	return strconv.FormatBool(v)
}
