// Package marketdata implements the market data core: the exchange calendar,
// the quote cache, and the demand-driven fetch coordinator. Nothing in this
// package runs in the background; every provider call is caused by an
// inbound request.
package marketdata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TimeOfDay is a local wall-clock time within a trading day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

// CalendarConfig holds calendar construction parameters. Holidays are
// configuration data supplied here, never fetched at runtime.
type CalendarConfig struct {
	Location *time.Location // exchange timezone
	Open     TimeOfDay      // session open, local time
	Close    TimeOfDay      // session close, local time
	Holidays []string       // YYYY-MM-DD dates the exchange is closed
}

// Calendar answers "is the market open at time T" and "what was the most
// recent close" for one exchange. Pure and deterministic: no I/O, no clock
// of its own.
type Calendar struct {
	loc          *time.Location
	open         TimeOfDay
	close        TimeOfDay
	holidays     map[string]bool
	dataStart    time.Time // earliest date covered by holiday data
	hasDataStart bool
	log          zerolog.Logger
}

// DefaultHolidays returns the built-in NYSE/NASDAQ holiday list for
// 2025-2027.
func DefaultHolidays() []string {
	return []string{
		// 2025
		"2025-01-01", // New Year's Day
		"2025-01-20", // MLK Day
		"2025-02-17", // Presidents Day
		"2025-04-18", // Good Friday
		"2025-05-26", // Memorial Day
		"2025-06-19", // Juneteenth
		"2025-07-04", // Independence Day
		"2025-09-01", // Labor Day
		"2025-11-27", // Thanksgiving
		"2025-12-25", // Christmas
		// 2026
		"2026-01-01",
		"2026-01-19",
		"2026-02-16",
		"2026-04-03",
		"2026-05-25",
		"2026-06-19",
		"2026-07-03", // Independence Day (observed)
		"2026-09-07",
		"2026-11-26",
		"2026-12-25",
		// 2027
		"2027-01-01",
		"2027-01-18",
		"2027-02-15",
		"2027-03-26",
		"2027-05-31",
		"2027-06-18", // Juneteenth (observed)
		"2027-07-05", // Independence Day (observed)
		"2027-09-06",
		"2027-11-25",
		"2027-12-24", // Christmas (observed)
	}
}

// NewCalendar creates a calendar for one exchange.
func NewCalendar(cfg CalendarConfig, log zerolog.Logger) *Calendar {
	c := &Calendar{
		loc:      cfg.Location,
		open:     cfg.Open,
		close:    cfg.Close,
		holidays: make(map[string]bool, len(cfg.Holidays)),
		log:      log.With().Str("service", "market_calendar").Logger(),
	}
	if c.loc == nil {
		c.loc = time.UTC
	}

	for _, h := range cfg.Holidays {
		d, err := time.ParseInLocation("2006-01-02", h, c.loc)
		if err != nil {
			c.log.Warn().Str("holiday", h).Msg("Ignoring unparseable holiday date")
			continue
		}
		c.holidays[h] = true
		if !c.hasDataStart || d.Before(c.dataStart) {
			c.dataStart = d
			c.hasDataStart = true
		}
	}

	return c
}

// IsOpen reports whether the market is open at t.
//
// When t predates all configured holiday data the calendar cannot tell
// holidays apart from trading days, so it fails open (reports the market as
// open) and logs a warning instead of refusing to ever show data.
func (c *Calendar) IsOpen(t time.Time) bool {
	local := t.In(c.loc)

	if c.beforeData(local) {
		c.log.Warn().
			Time("t", t).
			Time("data_start", c.dataStart).
			Msg("Time predates calendar data, failing open")
		return true
	}

	if !c.isTradingDay(local) {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	return minutes >= c.open.minutes() && minutes < c.close.minutes()
}

// LastClose returns the most recent session close at or before t. If t falls
// during market hours the previous session's close is returned; that close
// is the baseline for daily-change figures.
func (c *Calendar) LastClose(t time.Time) time.Time {
	local := t.In(c.loc)

	day := local
	if c.isTradingDay(day) && !local.Before(c.closeAt(day)) {
		return c.closeAt(day)
	}

	// Walk back to the previous trading day. Bounded: no exchange closes
	// for 30 consecutive days.
	for i := 0; i < 30; i++ {
		day = day.AddDate(0, 0, -1)
		if c.isTradingDay(day) {
			return c.closeAt(day)
		}
	}
	return c.closeAt(day)
}

// NextOpen returns the first session open strictly after the current or most
// recent session. Used as the expiry for quotes cached while the market is
// closed.
func (c *Calendar) NextOpen(t time.Time) time.Time {
	local := t.In(c.loc)

	if c.isTradingDay(local) {
		open := c.openAt(local)
		if local.Before(open) {
			return open
		}
	}

	day := local
	for i := 0; i < 30; i++ {
		day = day.AddDate(0, 0, 1)
		if c.isTradingDay(day) {
			return c.openAt(day)
		}
	}
	return c.openAt(day)
}

// isTradingDay reports whether the local date is a weekday and not a holiday.
func (c *Calendar) isTradingDay(local time.Time) bool {
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.holidays[local.Format("2006-01-02")]
}

func (c *Calendar) beforeData(local time.Time) bool {
	return c.hasDataStart && local.Before(c.dataStart)
}

func (c *Calendar) openAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.open.Hour, c.open.Minute, 0, 0, c.loc)
}

func (c *Calendar) closeAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.close.Hour, c.close.Minute, 0, 0, c.loc)
}
