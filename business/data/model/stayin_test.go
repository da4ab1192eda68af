package model

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func stayInTz(t *testing.T, seconds int32) SecondsTz {
	t.Helper()
	s, err := NewSecondsTz(seconds)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStayInIndexNextFindsLaterBlockTrip(t *testing.T) {
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

	block := BlockId("block-1")

	first := &VehicleJourney{
		Idx: NewBaseVJIdx(0),
		Id:  "vj:1",
		StopTimes: []StopTime{
			{Stop: a, BoardTime: stayInTz(t, 28800), DebarkTime: stayInTz(t, 28800), Flow: BoardOnly},
			{Stop: b, BoardTime: stayInTz(t, 29400), DebarkTime: stayInTz(t, 29400), Flow: DebarkOnly},
		},
		Service: service,
		BlockId: &block,
	}
	second := &VehicleJourney{
		Idx: NewBaseVJIdx(1),
		Id:  "vj:2",
		StopTimes: []StopTime{
			{Stop: b, BoardTime: stayInTz(t, 32400), DebarkTime: stayInTz(t, 32400), Flow: BoardOnly},
			{Stop: a, BoardTime: stayInTz(t, 33000), DebarkTime: stayInTz(t, 33000), Flow: DebarkOnly},
		},
		Service: service,
		BlockId: &block,
	}

	base := NewBaseModel(calendar, days, stops, NewTransferIndex(), []*VehicleJourney{first, second})
	stayIns := BuildStayInIndex([]*VehicleJourney{first, second})

	next, ok := stayIns.Next(base, first, 1, days)
	is.True(ok)
	is.Equal(next, second.Idx)

	prev, ok := stayIns.Previous(base, second, 1, days)
	is.True(ok)
	is.Equal(prev, first.Idx)
}

func TestStayInIndexNextAbsentWithoutBlockId(t *testing.T) {
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

	vj := &VehicleJourney{
		Idx: NewBaseVJIdx(0),
		Id:  "vj:1",
		StopTimes: []StopTime{
			{Stop: a, BoardTime: stayInTz(t, 28800), DebarkTime: stayInTz(t, 28800), Flow: BoardOnly},
			{Stop: b, BoardTime: stayInTz(t, 29400), DebarkTime: stayInTz(t, 29400), Flow: DebarkOnly},
		},
		Service: service,
	}

	base := NewBaseModel(calendar, days, stops, NewTransferIndex(), []*VehicleJourney{vj})
	stayIns := BuildStayInIndex([]*VehicleJourney{vj})

	_, ok := stayIns.Next(base, vj, 1, days)
	is.True(!ok)
}

func TestStayInIndexNextRejectsCandidateNotRunningThatDay(t *testing.T) {
	is := is.New(t)

	calendar, err := NewCalendar(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	)
	is.NoErr(err)
	days := NewDaysPatterns(calendar.NbOfDays())
	serviceDay1, err := days.FromDays([]DayOffset{1})
	is.NoErr(err)
	serviceDay2, err := days.FromDays([]DayOffset{2})
	is.NoErr(err)

	stops := NewStopRegistry()
	a := stops.EnsureBaseStop("sp:a")
	b := stops.EnsureBaseStop("sp:b")

	block := BlockId("block-1")

	first := &VehicleJourney{
		Idx: NewBaseVJIdx(0),
		Id:  "vj:1",
		StopTimes: []StopTime{
			{Stop: a, BoardTime: stayInTz(t, 28800), DebarkTime: stayInTz(t, 28800), Flow: BoardOnly},
			{Stop: b, BoardTime: stayInTz(t, 29400), DebarkTime: stayInTz(t, 29400), Flow: DebarkOnly},
		},
		Service: serviceDay1,
		BlockId: &block,
	}
	// runs a different day: can never continue first's block on day offset 1.
	second := &VehicleJourney{
		Idx: NewBaseVJIdx(1),
		Id:  "vj:2",
		StopTimes: []StopTime{
			{Stop: b, BoardTime: stayInTz(t, 32400), DebarkTime: stayInTz(t, 32400), Flow: BoardOnly},
			{Stop: a, BoardTime: stayInTz(t, 33000), DebarkTime: stayInTz(t, 33000), Flow: DebarkOnly},
		},
		Service: serviceDay2,
		BlockId: &block,
	}

	base := NewBaseModel(calendar, days, stops, NewTransferIndex(), []*VehicleJourney{first, second})
	stayIns := BuildStayInIndex([]*VehicleJourney{first, second})

	_, ok := stayIns.Next(base, first, 1, days)
	is.True(!ok)
}
