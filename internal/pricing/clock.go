package pricing

import (
	"math"
	"time"
)

const (
	hoursPerDay  = 24.0
	daysPerYear  = 365.0
	minimumHours = 1.0 / 60.0 // one minute of calendar time
)

// ExpiryClock anchors time-to-expiration to a daily close in the exchange timezone.
type ExpiryClock struct {
	Location    *time.Location
	CloseHour   int
	CloseMinute int
}

// NewExpiryClock builds a clock for the named timezone and "HH:MM" close.
// Unknown timezones fall back to America/New_York, then a fixed ET offset.
func NewExpiryClock(timezone, closeTime string) ExpiryClock {
	if timezone == "" {
		timezone = "America/New_York"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		if fallbackLoc, err2 := time.LoadLocation("America/New_York"); err2 == nil {
			loc = fallbackLoc
		} else {
			// Minimal containers without tzdata
			loc = time.FixedZone("ET", -5*60*60)
		}
	}

	clock := ExpiryClock{Location: loc, CloseHour: 16}
	if closeTime != "" {
		if t, err := time.Parse("15:04", closeTime); err == nil {
			clock.CloseHour = t.Hour()
			clock.CloseMinute = t.Minute()
		}
	}
	return clock
}

// HoursToClose returns the hours between now and today's close in the exchange timezone.
// The result is negative after the close.
func (c ExpiryClock) HoursToClose(now time.Time) float64 {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	closeAt := time.Date(local.Year(), local.Month(), local.Day(), c.CloseHour, c.CloseMinute, 0, 0, loc)
	return closeAt.Sub(local).Hours()
}

// YearsToExpiration returns the remaining time for an option expiring dte
// sessions from now, after simulating hoursForward of elapsed time.
// Same-day expirations use hours to close; multi-day ones add the fractional
// day to the whole days. After the close that fraction is negative, which rolls
// the anchor forward to the next session's close. The result is floored at one minute.
func (c ExpiryClock) YearsToExpiration(now time.Time, dte int, hoursForward float64) float64 {
	hours := c.HoursToClose(now)
	if dte > 0 {
		hours += float64(dte) * hoursPerDay
	}
	if !math.IsNaN(hoursForward) && hoursForward > 0 {
		hours -= hoursForward
	}
	if math.IsNaN(hours) || hours < minimumHours {
		hours = minimumHours
	}
	return hours / hoursPerDay / daysPerYear
}

// EffectiveDaysRemaining is the nominal DTE minus simulated elapsed days, floored at zero
func EffectiveDaysRemaining(dte int, hoursForward float64) float64 {
	if math.IsNaN(hoursForward) || hoursForward < 0 {
		hoursForward = 0
	}
	return math.Max(0, float64(dte)-hoursForward/hoursPerDay)
}
