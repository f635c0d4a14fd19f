package service

import (
	"time"
)

// rewardZone is the fixed reference offset for civil-day boundaries. Daily
// eligibility compares calendar days in this zone, not rolling 24h windows.
// The offset is always -8 hours and never follows daylight saving.
var rewardZone = time.FixedZone("UTC-08", -8*60*60)

// CivilDay truncates t to midnight of its civil day in the reward zone
func CivilDay(t time.Time) time.Time {
	local := t.In(rewardZone)
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, rewardZone)
}

// SameCivilDay reports whether a and b fall on the same civil day
func SameCivilDay(a, b time.Time) bool {
	return CivilDay(a).Equal(CivilDay(b))
}

// NextStreak computes the streak value for a claim at now, given the previous
// claim time. A claim on the very next civil day continues the streak; any
// gap resets it to 1.
func NextStreak(last *time.Time, now time.Time, current int) int {
	if last == nil {
		return 1
	}
	if CivilDay(*last).AddDate(0, 0, 1).Equal(CivilDay(now)) {
		return current + 1
	}
	return 1
}
