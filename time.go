package auth

import "time"

// IsWithinThresholdPeriod checks if t happened less than ttl ago
func IsWithinThresholdPeriod(t time.Time, ttl time.Duration) bool {
	return IsWithinThresholdPeriodAt(t, ttl, time.Now())
}

// IsWithinThresholdPeriodAt checks if t happened less than ttl before now
func IsWithinThresholdPeriodAt(t time.Time, ttl time.Duration, now time.Time) bool {
	return t.After(now.Add(-ttl))
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(t time.Time, ttl time.Duration) bool {
	return !IsWithinThresholdPeriod(t, ttl)
}

// IsOutsideThresholdPeriodAt is the negation of IsWithinThresholdPeriodAt
func IsOutsideThresholdPeriodAt(t time.Time, ttl time.Duration, now time.Time) bool {
	return !IsWithinThresholdPeriodAt(t, ttl, now)
}

// ParseThreshold parses a duration pattern such as "24h", falling back to def
func ParseThreshold(pattern string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(pattern)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
