package utils

import (
	"time"
)

var marketLoc *time.Location

func init() {
	var err error
	marketLoc, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// Fallback to Local if timezone data is missing
		// In production docker, ensure tzdata is installed
		marketLoc = time.Local
	}
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// GetMarketTime returns current time in the fund market timezone (Asia/Shanghai)
func GetMarketTime() time.Time {
	return time.Now().In(marketLoc)
}

// GetStartOfDay returns 00:00:00 of the given time in the market timezone
func GetStartOfDay(t time.Time) time.Time {
	t = t.In(marketLoc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, marketLoc)
}

// GetLocation returns the market *time.Location
func GetLocation() *time.Location {
	return marketLoc
}
