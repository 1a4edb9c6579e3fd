package allgood

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Period is the recurring bucket a rate limit counts runs in.
type Period string

const (
	PeriodDay  Period = "day"
	PeriodHour Period = "hour"
)

// Rate bounds how many times a check may execute per period.
type Rate struct {
	MaxRuns int
	Period  Period
}

// MaxRunsPerPeriod caps how many runs a frequency string may ask for.
const MaxRunsPerPeriod = 1000

var frequencyPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s+times?\s+per\s+(day|hour)\s*$`)

// ParseFrequency parses strings like "5 times per day" or "1 time per
// hour". Anything else, negative counts and unknown period names included,
// is an unsupported format.
func ParseFrequency(s string) (Rate, error) {
	m := frequencyPattern.FindStringSubmatch(s)
	if m == nil {
		return Rate{}, fmt.Errorf("Unsupported format %q: use e.g. %q or %q",
			s, "5 times per day", "1 time per hour")
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// a count too large for int lands here
		return Rate{}, fmt.Errorf("Unsupported format %q: %v", s, err)
	}
	if n < 1 {
		return Rate{}, fmt.Errorf("run count must be positive, got %d", n)
	}
	if n > MaxRunsPerPeriod {
		return Rate{}, fmt.Errorf("Maximum %d runs per period, got %d", MaxRunsPerPeriod, n)
	}
	return Rate{MaxRuns: n, Period: Period(strings.ToLower(m[2]))}, nil
}
