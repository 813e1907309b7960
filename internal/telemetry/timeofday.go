package telemetry

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall clock reading without a date.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// SplitClock parses "HH:MM:SS". Segments are not range checked; a missing
// or non-numeric segment reads as zero.
func SplitClock(s string) TimeOfDay {
	parts := strings.Split(strings.TrimSpace(s), ":")
	seg := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		return parseInt(parts[i])
	}
	return TimeOfDay{Hour: seg(0), Minute: seg(1), Second: seg(2)}
}

// SplitTime takes the clock reading of t in t's own location.
func SplitTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// parseInt reads a decimal integer, truncating a fractional value and
// returning zero for anything unparseable.
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && math.Abs(f) < math.MaxInt32 {
		return int(f)
	}
	return 0
}

// parseFloat reads a decimal float, returning zero for anything unparseable.
// NaN and infinities read as zero since they cannot be JSON encoded.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
