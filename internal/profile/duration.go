package profile

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"wellness/internal/domain"
)

var durationRegexp = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseDuration accepts plan durations like "30m", "2h" or "1d". Units are
// case-insensitive and surrounding whitespace is ignored. Zero is rejected.
func ParseDuration(s string) (time.Duration, error) {
	m := durationRegexp.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, domain.ErrInvalidDuration
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.ErrInvalidDuration
	}

	var unit time.Duration
	switch m[2] {
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	// Reject values that overflow time.Duration.
	if n > int64(1<<63-1)/int64(unit) {
		return 0, domain.ErrInvalidDuration
	}
	return time.Duration(n) * unit, nil
}
