package utils

import (
	"strconv"
	"time"
)

func ParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func ParseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns nil when the value
// is empty or unparseable.
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
