package config

import (
	"os"
	"strings"
)

// ClampNegativeRemaining controls whether the PI→PO resolver floors
// per-item remaining quantities at zero when dispatches exceed the
// ordered quantity. Off by default: remaining is reported as computed,
// including negative values from over-dispatch.
//
// Set via env:
// - CLAMP_NEGATIVE_REMAINING=true
func ClampNegativeRemaining() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("CLAMP_NEGATIVE_REMAINING")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
