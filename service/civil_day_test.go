package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCivilDay_BoundaryAtMinusEight(t *testing.T) {
	// 07:59 UTC is 23:59 of the previous civil day; 08:00 UTC starts a new one
	beforeBoundary := time.Date(2024, 3, 15, 7, 59, 0, 0, time.UTC)
	afterBoundary := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	assert.False(t, SameCivilDay(beforeBoundary, afterBoundary))
	assert.Equal(t, 14, CivilDay(beforeBoundary).Day())
	assert.Equal(t, 15, CivilDay(afterBoundary).Day())
}

func TestSameCivilDay(t *testing.T) {
	t.Run("same utc day same civil day", func(t *testing.T) {
		a := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		b := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
		assert.True(t, SameCivilDay(a, b))
	})

	t.Run("different utc days same civil day", func(t *testing.T) {
		// 15th 09:00 UTC and 16th 07:00 UTC are both the civil 15th
		a := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
		b := time.Date(2024, 3, 16, 7, 0, 0, 0, time.UTC)
		assert.True(t, SameCivilDay(a, b))
	})

	t.Run("instants in other zones compare by civil day", func(t *testing.T) {
		// Same instant expressed in two zones is trivially the same civil day
		utc := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		tokyo := utc.In(time.FixedZone("JST", 9*60*60))
		assert.True(t, SameCivilDay(utc, tokyo))
	})
}

func TestCivilDay_IgnoresDaylightSaving(t *testing.T) {
	// US Pacific switched to DST on 2024-03-10; the reward boundary must not
	// move with it. 07:30 UTC stays in the previous civil day on both sides of
	// the transition.
	beforeDST := time.Date(2024, 3, 9, 7, 30, 0, 0, time.UTC)
	afterDST := time.Date(2024, 3, 11, 7, 30, 0, 0, time.UTC)

	assert.Equal(t, 8, CivilDay(beforeDST).Day())
	assert.Equal(t, 10, CivilDay(afterDST).Day())

	_, offsetBefore := CivilDay(beforeDST).Zone()
	_, offsetAfter := CivilDay(afterDST).Zone()
	assert.Equal(t, -8*60*60, offsetBefore)
	assert.Equal(t, offsetBefore, offsetAfter)
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("first claim starts at one", func(t *testing.T) {
		assert.Equal(t, 1, NextStreak(nil, now, 0))
	})

	t.Run("previous civil day continues the streak", func(t *testing.T) {
		last := now.AddDate(0, 0, -1)
		assert.Equal(t, 6, NextStreak(&last, now, 5))
	})

	t.Run("two day gap resets to one", func(t *testing.T) {
		last := now.AddDate(0, 0, -2)
		assert.Equal(t, 1, NextStreak(&last, now, 5))
	})

	t.Run("continuation across the civil boundary", func(t *testing.T) {
		// 07:00 UTC on the 15th is the civil 14th; 09:00 UTC is the civil
		// 15th. Same UTC day, consecutive civil days.
		last := time.Date(2024, 3, 15, 7, 0, 0, 0, time.UTC)
		claim := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, 3, NextStreak(&last, claim, 2))
	})
}
