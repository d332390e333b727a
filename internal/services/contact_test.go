package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBirthday(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		today time.Time
		want  time.Time
	}{
		{
			name:  "later this year",
			birth: day(1990, time.October, 5),
			today: day(2026, time.August, 31),
			want:  day(2026, time.October, 5),
		},
		{
			name:  "already passed rolls to next year",
			birth: day(1990, time.March, 1),
			today: day(2026, time.August, 31),
			want:  day(2027, time.March, 1),
		},
		{
			name:  "today counts as this year",
			birth: day(1990, time.August, 31),
			today: day(2026, time.August, 31),
			want:  day(2026, time.August, 31),
		},
		{
			name:  "feb 29 clamps to feb 28 in non-leap year",
			birth: day(1992, time.February, 29),
			today: day(2026, time.January, 10),
			want:  day(2026, time.February, 28),
		},
		{
			name:  "feb 29 kept in leap year",
			birth: day(1992, time.February, 29),
			today: day(2028, time.January, 10),
			want:  day(2028, time.February, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextBirthday(tt.birth, tt.today))
		})
	}
}

func TestBirthdayWithin(t *testing.T) {
	today := day(2026, time.August, 31)

	tests := []struct {
		name  string
		birth time.Time
		want  bool
	}{
		{"today", day(1990, time.August, 31), true},
		{"last day of window", day(1990, time.September, 7), true},
		{"just past the window", day(1990, time.September, 8), false},
		{"yesterday waits a year", day(1990, time.August, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, birthdayWithin(tt.birth, today, upcomingBirthdayWindow))
		})
	}
}

func TestBirthdayWithinYearWrap(t *testing.T) {
	today := day(2026, time.December, 28)

	assert.True(t, birthdayWithin(day(1990, time.January, 2), today, upcomingBirthdayWindow))
	assert.False(t, birthdayWithin(day(1990, time.January, 5), today, upcomingBirthdayWindow))
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, isLeapYear(2024))
	assert.True(t, isLeapYear(2000))
	assert.False(t, isLeapYear(2026))
	assert.False(t, isLeapYear(1900))
}

func TestGravatarURL(t *testing.T) {
	// Reference digest from the Gravatar docs.
	assert.Equal(t,
		"https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346",
		gravatarURL(" MyEmailAddress@example.com "))
}
