package model

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestIsScheduledInBaseConsultsCalendarAndService(t *testing.T) {
	is := is.New(t)

	calendar, err := NewCalendar(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	)
	is.NoErr(err)
	days := NewDaysPatterns(calendar.NbOfDays())
	service, err := days.FromDays([]DayOffset{1})
	is.NoErr(err)

	stops := NewStopRegistry()
	a := stops.EnsureBaseStop("sp:a")
	b := stops.EnsureBaseStop("sp:b")

	board0, _ := NewSecondsTz(0)
	board1, _ := NewSecondsTz(600)
	vj := &VehicleJourney{
		Idx: NewBaseVJIdx(0),
		Id:  "vj:1",
		StopTimes: []StopTime{
			{Stop: a, BoardTime: board0, DebarkTime: board0, Flow: BoardOnly},
			{Stop: b, BoardTime: board1, DebarkTime: board1, Flow: DebarkOnly},
		},
		Service: service,
	}

	base := NewBaseModel(calendar, days, stops, NewTransferIndex(), []*VehicleJourney{vj})

	is.True(base.IsScheduledInBase(vj.Idx, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)))
	is.True(!base.IsScheduledInBase(vj.Idx, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)))

	// out-of-calendar date
	is.True(!base.IsScheduledInBase(vj.Idx, time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)))

	// a New VJIdx is never scheduled in the base
	is.True(!base.IsScheduledInBase(NewNewVJIdx(0), time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)))

	// an out-of-range base VJIdx reports not scheduled rather than panicking
	is.True(!base.IsScheduledInBase(NewBaseVJIdx(99), time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)))
}
