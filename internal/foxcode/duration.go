package foxcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var retentionUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// ParseRetentionInterval reads a backup retention interval such as "30d",
// "12h" or "1d12h". Units are d, h, m and s (case-insensitive); every number
// needs a unit and the total must be positive.
func ParseRetentionInterval(input string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, errors.New("empty retention interval (expected e.g. 30d or 1d12h)")
	}

	var total time.Duration
	for len(s) > 0 {
		digits := 0
		for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
			digits++
		}
		if digits == 0 || digits == len(s) {
			return 0, fmt.Errorf("invalid retention interval %q (expected e.g. 30d or 1d12h)", input)
		}
		unit, ok := retentionUnits[s[digits]]
		if !ok {
			return 0, fmt.Errorf("invalid retention interval %q: unknown unit %q", input, s[digits])
		}
		n, err := strconv.Atoi(s[:digits])
		if err != nil {
			return 0, fmt.Errorf("invalid retention interval %q: %w", input, err)
		}
		total += time.Duration(n) * unit
		s = s[digits+1:]
	}
	if total <= 0 {
		return 0, fmt.Errorf("retention interval %q must be greater than zero", input)
	}
	return total, nil
}
