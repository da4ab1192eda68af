package model

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestNewCalendarRejectsInvertedRange(t *testing.T) {
	is := is.New(t)

	_, err := NewCalendar(
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	is.True(err != nil)
}

func TestNewCalendarRejectsTooLarge(t *testing.T) {
	is := is.New(t)

	_, err := NewCalendar(
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	is.True(err != nil)
}

func TestCalendarOffsetRoundTrip(t *testing.T) {
	is := is.New(t)

	cal, err := NewCalendar(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	is.NoErr(err)
	is.Equal(cal.NbOfDays(), 31)

	offset, err := cal.OffsetOf(time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC))
	is.NoErr(err)
	is.Equal(offset, DayOffset(14))

	date, err := cal.DateOf(offset)
	is.NoErr(err)
	is.Equal(date, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
}

func TestCalendarOffsetOfOutOfRange(t *testing.T) {
	is := is.New(t)

	cal, err := NewCalendar(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	is.NoErr(err)

	_, err = cal.OffsetOf(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	is.True(err != nil)

	_, err = cal.OffsetOf(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	is.True(err != nil)
}

func TestCalendarDateOfOutOfRange(t *testing.T) {
	is := is.New(t)

	cal, err := NewCalendar(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	)
	is.NoErr(err)

	_, err = cal.DateOf(DayOffset(5))
	is.True(err != nil)
}

func TestCalendarBoundaryEndpoints(t *testing.T) {
	is := is.New(t)

	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	cal, err := NewCalendar(first, last)
	is.NoErr(err)

	firstOffset, err := cal.OffsetOf(first)
	is.NoErr(err)
	is.Equal(firstOffset, DayOffset(0))

	lastOffset, err := cal.OffsetOf(last)
	is.NoErr(err)
	is.Equal(lastOffset, DayOffset(9))
}
