// Package model holds the transit data model: calendars, days patterns, stops,
// transfers, vehicle journeys and the base snapshot loaded from a dataset.
package model

import (
	"fmt"
	"time"
)

// MaxDaysInCalendar bounds a Calendar to a little over 100 years, comfortably
// inside a uint16 day offset.
const MaxDaysInCalendar = 100 * 366

// DayOffset is a small integer day index relative to a Calendar's first date.
type DayOffset uint16

// Calendar fixes the first and last valid service date of a dataset and
// converts between calendar dates and DayOffset values.
type Calendar struct {
	firstDate    time.Time
	lastDate     time.Time
	lastDayOffset DayOffset
}

// NewCalendar builds a Calendar spanning [firstDate, lastDate], both
// normalized to midnight UTC. Returns an error if the range is inverted or
// exceeds MaxDaysInCalendar days.
func NewCalendar(firstDate, lastDate time.Time) (*Calendar, error) {
	first := normalizeDate(firstDate)
	last := normalizeDate(lastDate)
	if last.Before(first) {
		return nil, fmt.Errorf("model: calendar last date %s is before first date %s", last, first)
	}
	days := int(last.Sub(first).Hours() / 24)
	if days > MaxDaysInCalendar {
		return nil, fmt.Errorf("model: calendar spans %d days, exceeds maximum of %d", days, MaxDaysInCalendar)
	}
	return &Calendar{
		firstDate:     first,
		lastDate:      last,
		lastDayOffset: DayOffset(days),
	}, nil
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FirstDate returns the first valid date of the calendar.
func (c *Calendar) FirstDate() time.Time { return c.firstDate }

// LastDate returns the last valid date of the calendar.
func (c *Calendar) LastDate() time.Time { return c.lastDate }

// NbOfDays returns the number of valid day offsets, including both endpoints.
func (c *Calendar) NbOfDays() int { return int(c.lastDayOffset) + 1 }

// OffsetOf returns the DayOffset of date, failing if date falls outside the
// calendar's range.
func (c *Calendar) OffsetOf(date time.Time) (DayOffset, error) {
	d := normalizeDate(date)
	if d.Before(c.firstDate) || d.After(c.lastDate) {
		return 0, fmt.Errorf("model: date %s is outside calendar range [%s, %s]", d, c.firstDate, c.lastDate)
	}
	days := int(d.Sub(c.firstDate).Hours() / 24)
	return DayOffset(days), nil
}

// DateOf returns the date corresponding to offset, failing if offset exceeds
// the calendar's last day offset.
func (c *Calendar) DateOf(offset DayOffset) (time.Time, error) {
	if offset > c.lastDayOffset {
		return time.Time{}, fmt.Errorf("model: day offset %d exceeds calendar's last offset %d", offset, c.lastDayOffset)
	}
	return c.firstDate.AddDate(0, 0, int(offset)), nil
}
