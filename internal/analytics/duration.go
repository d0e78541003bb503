package analytics

import (
	"fmt"
	"math"
	"strings"
)

const (
	minutesPerHour  = 60
	minutesPerDay   = 24 * minutesPerHour
	minutesPerMonth = 30 * minutesPerDay
	minutesPerYear  = 365 * minutesPerDay
)

// HumanDuration renders whole minutes as "1 year 2 months 3 days 4 hours 5 minutes",
// omitting zero units. Fractions are truncated and negative input reads as zero.
func HumanDuration(minutes float64) string {
	var rem int64
	if minutes > 0 && !math.IsInf(minutes, 1) {
		rem = int64(math.Floor(minutes))
	}

	units := []struct {
		name string
		size int64
	}{
		{"year", minutesPerYear},
		{"month", minutesPerMonth},
		{"day", minutesPerDay},
		{"hour", minutesPerHour},
	}

	var parts []string
	for _, u := range units {
		if n := rem / u.size; n > 0 {
			parts = append(parts, plural(n, u.name))
			rem %= u.size
		}
	}
	if rem > 0 || len(parts) == 0 {
		parts = append(parts, plural(rem, "minute"))
	}
	return strings.Join(parts, " ")
}

// plural keeps the singular for 0 and 1.
func plural(n int64, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}
	return fmt.Sprintf("%d %s", n, unit)
}
