package marketdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	open, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	closeAt, err := ParseTimeOfDay("16:00")
	require.NoError(t, err)

	return NewCalendar(CalendarConfig{
		Location: loc,
		Open:     open,
		Close:    closeAt,
		Holidays: DefaultHolidays(),
	}, zerolog.Nop())
}

func nyTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, tod.Hour)
	assert.Equal(t, 30, tod.Minute)

	_, err = ParseTimeOfDay("930")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("09:61")
	assert.Error(t, err)
}

func TestIsOpen_RegularHours(t *testing.T) {
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday mid-session", nyTime(t, 2026, time.August, 28, 10, 0), true},
		{"weekday at open", nyTime(t, 2026, time.August, 28, 9, 30), true},
		{"weekday just before open", nyTime(t, 2026, time.August, 28, 9, 29), false},
		{"weekday at close", nyTime(t, 2026, time.August, 28, 16, 0), false},
		{"weekday after close", nyTime(t, 2026, time.August, 28, 17, 0), false},
		{"saturday", nyTime(t, 2026, time.August, 29, 10, 0), false},
		{"sunday", nyTime(t, 2026, time.August, 30, 10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsOpen(tt.at))
		})
	}
}

func TestIsOpen_Holiday(t *testing.T) {
	cal := newTestCalendar(t)

	// Labor Day 2026 falls on Monday September 7.
	assert.False(t, cal.IsOpen(nyTime(t, 2026, time.September, 7, 10, 0)))
	// The following Tuesday is a normal session.
	assert.True(t, cal.IsOpen(nyTime(t, 2026, time.September, 8, 10, 0)))
}

func TestIsOpen_FailsOpenBeforeHolidayData(t *testing.T) {
	cal := newTestCalendar(t)

	// 2020 predates the holiday table, so the calendar assumes open
	// rather than silently suppressing fetches. Even on a Saturday.
	assert.True(t, cal.IsOpen(nyTime(t, 2020, time.June, 6, 10, 0)))
}

func TestIsOpen_NoHolidayDataUsesWeekdayLogic(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	open, _ := ParseTimeOfDay("09:30")
	closeAt, _ := ParseTimeOfDay("16:00")
	cal := NewCalendar(CalendarConfig{Location: loc, Open: open, Close: closeAt}, zerolog.Nop())

	assert.True(t, cal.IsOpen(nyTime(t, 2020, time.June, 5, 10, 0)))  // Friday
	assert.False(t, cal.IsOpen(nyTime(t, 2020, time.June, 6, 10, 0))) // Saturday
}

func TestLastClose(t *testing.T) {
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{
			"saturday resolves to friday close",
			nyTime(t, 2026, time.August, 29, 10, 0),
			nyTime(t, 2026, time.August, 28, 16, 0),
		},
		{
			"mid-session resolves to previous day close",
			nyTime(t, 2026, time.August, 28, 10, 0),
			nyTime(t, 2026, time.August, 27, 16, 0),
		},
		{
			"after close resolves to same day close",
			nyTime(t, 2026, time.August, 28, 17, 0),
			nyTime(t, 2026, time.August, 28, 16, 0),
		},
		{
			"holiday monday resolves to friday close",
			nyTime(t, 2026, time.September, 7, 12, 0),
			nyTime(t, 2026, time.September, 4, 16, 0),
		},
		{
			"tuesday pre-open after holiday skips back to friday",
			nyTime(t, 2026, time.September, 8, 8, 0),
			nyTime(t, 2026, time.September, 4, 16, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, cal.LastClose(tt.at).Equal(tt.want),
				"LastClose(%s) = %s, want %s", tt.at, cal.LastClose(tt.at), tt.want)
		})
	}
}

func TestNextOpen(t *testing.T) {
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{
			"friday evening resolves to monday open",
			nyTime(t, 2026, time.August, 28, 17, 0),
			nyTime(t, 2026, time.August, 31, 9, 30),
		},
		{
			"saturday resolves to monday open",
			nyTime(t, 2026, time.August, 29, 10, 0),
			nyTime(t, 2026, time.August, 31, 9, 30),
		},
		{
			"pre-open resolves to same day open",
			nyTime(t, 2026, time.August, 28, 8, 0),
			nyTime(t, 2026, time.August, 28, 9, 30),
		},
		{
			"weekend before holiday monday skips to tuesday",
			nyTime(t, 2026, time.September, 5, 10, 0),
			nyTime(t, 2026, time.September, 8, 9, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, cal.NextOpen(tt.at).Equal(tt.want),
				"NextOpen(%s) = %s, want %s", tt.at, cal.NextOpen(tt.at), tt.want)
		})
	}
}
