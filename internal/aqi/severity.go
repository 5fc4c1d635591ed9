package aqi

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for AQI values below zero.
var ErrOutOfRange = errors.New("aqi value out of range")

type bucket struct {
	low, high int
	symbol    string
}

// severity is scanned in ascending order; the first bucket holding the value wins.
var severity = []bucket{
	{0, 50, "🟢"},
	{51, 100, "🟡"},
	{101, 150, "🟠"},
	{151, 200, "🔴"},
	{201, 300, "🟣"},
	{301, 998, "🟤"},
}

// Severity returns the colour symbol for an AQI value. Values past the last
// bucket are clamped to it.
func Severity(value int) (string, error) {
	if value < 0 {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, value)
	}
	for _, b := range severity {
		if value >= b.low && value <= b.high {
			return b.symbol, nil
		}
	}
	return severity[len(severity)-1].symbol, nil
}

// Trend symbols.
const (
	TrendUp   = "⬆️"
	TrendDown = "⬇️"
	TrendFlat = "➡️"
)

// Trend compares tomorrow's average against today's.
func Trend(now, next int) string {
	switch {
	case next > now:
		return TrendUp
	case next < now:
		return TrendDown
	default:
		return TrendFlat
	}
}
