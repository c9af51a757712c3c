package scenario

import (
	"strconv"
	"strings"
)

const (
	// StepsPerSecond is the simulation clock rate.
	StepsPerSecond = 10
	// MarketOpenHour is the wall-clock hour of step 0.
	MarketOpenHour = 8
)

// ScaleInterval converts seconds to steps.
func ScaleInterval(raw int) int {
	return raw * StepsPerSecond
}

// ScalePercentage converts a percentage to a fraction.
func ScalePercentage(raw float64) float64 {
	return raw / 100
}

// ParseStartTime converts "HH:MM" or "HH:MM:SS" to a step offset from the
// 08:00 open. Times before the open give a negative step. Malformed input
// yields 0.
func ParseStartTime(s string) int {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	seconds := 0
	if len(parts) > 2 {
		if seconds, err = strconv.Atoi(parts[2]); err != nil {
			return 0
		}
	}
	return ((hours-MarketOpenHour)*3600 + minutes*60 + seconds) * StepsPerSecond
}
