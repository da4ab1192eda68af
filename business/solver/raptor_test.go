package solver

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
	"github.com/transitcore/pathfinder/business/timetable"
)

func mustNewSecondsTz(t *testing.T, seconds int32) model.SecondsTz {
	t.Helper()
	s, err := model.NewSecondsTz(seconds)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// buildSingleTripNetwork builds a two-stop, one-trip-a-day base model:
// stop A boards at 08:00, stop B debarks at 08:10, running on day offset 1
// of a 10-day calendar starting 2024-01-01.
func buildSingleTripNetwork(t *testing.T) (*model.BaseModel, *timetable.Store, model.StopIdx, model.StopIdx) {
	t.Helper()

	calendar, err := model.NewCalendar(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	days := model.NewDaysPatterns(calendar.NbOfDays())
	service, err := days.FromDays([]model.DayOffset{1})
	if err != nil {
		t.Fatal(err)
	}

	stops := model.NewStopRegistry()
	stopA := stops.EnsureBaseStop("sp:a")
	stopB := stops.EnsureBaseStop("sp:b")

	vj := &model.VehicleJourney{
		Idx: model.NewBaseVJIdx(0),
		Id:  "vj:1",
		StopTimes: []model.StopTime{
			{Stop: stopA, BoardTime: mustNewSecondsTz(t, 28800), DebarkTime: mustNewSecondsTz(t, 28800), Flow: model.BoardOnly},
			{Stop: stopB, BoardTime: mustNewSecondsTz(t, 29400), DebarkTime: mustNewSecondsTz(t, 29400), Flow: model.DebarkOnly},
		},
		TimezoneOffsetSeconds: 0,
		Service:               service,
	}

	base := model.NewBaseModel(calendar, days, stops, model.NewTransferIndex(), []*model.VehicleJourney{vj})

	store := timetable.NewStore()
	if err := store.Insert(vj, make([]occupancy.Level, 1)); err != nil {
		t.Fatal(err)
	}
	return base, store, stopA, stopB
}

func TestSolveFindsSingleLegJourney(t *testing.T) {
	is := is.New(t)
	base, store, stopA, stopB := buildSingleTripNetwork(t)
	data := NewBaseData(base, store)

	startTime, err := model.NewInstant(1, model.SecondsUtc{})
	is.NoErr(err)
	startTime = startTime.Plus(model.NewPositiveDuration(7, 0, 0)) // 07:00 on day offset 1

	maxDuration := model.NewPositiveDuration(2, 0, 0)
	req := Request{
		Seeds:              map[Stop]model.PositiveDuration{stopA: model.ZeroDuration},
		Targets:            map[Stop]model.PositiveDuration{stopB: model.ZeroDuration},
		StartTime:          startTime,
		MaxNbOfLegs:        3,
		MaxJourneyDuration: maxDuration,
		TooLateThreshold:   startTime.Plus(maxDuration),
		Comparator:         BasicComparator{},
	}

	result := Solve(context.Background(), data, req)
	is.True(!result.Partial)
	is.True(len(result.Labels) >= 1)

	expectedArrival, err := model.NewInstant(1, model.SecondsUtc{})
	is.NoErr(err)
	expectedArrival = expectedArrival.Plus(model.NewPositiveDuration(8, 10, 0))

	var found *Label
	for _, l := range result.Labels {
		if l.Criteria.Legs == 1 && l.Criteria.Arrival == expectedArrival {
			found = l
		}
	}
	is.True(found != nil)
	is.True(found.Predecessor != nil)
	// found wraps the debark label at stopB; the chain's root is the seed.
	is.Equal(Unwind(found)[0].Criteria.Legs, 0)
}

func TestSolveRespectsTooLateThreshold(t *testing.T) {
	is := is.New(t)
	base, store, stopA, stopB := buildSingleTripNetwork(t)
	data := NewBaseData(base, store)

	startTime, err := model.NewInstant(1, model.SecondsUtc{})
	is.NoErr(err)
	startTime = startTime.Plus(model.NewPositiveDuration(7, 0, 0))

	// a threshold before the trip's debark time means no destination
	// candidate can be collected at all.
	threshold := startTime.Plus(model.NewPositiveDuration(0, 30, 0))

	req := Request{
		Seeds:              map[Stop]model.PositiveDuration{stopA: model.ZeroDuration},
		Targets:            map[Stop]model.PositiveDuration{stopB: model.ZeroDuration},
		StartTime:          startTime,
		MaxNbOfLegs:        3,
		MaxJourneyDuration: model.NewPositiveDuration(2, 0, 0),
		TooLateThreshold:   threshold,
		Comparator:         BasicComparator{},
	}

	result := Solve(context.Background(), data, req)
	is.Equal(len(result.Labels), 0)
}

func TestSolveNoTripOnUnservicedDay(t *testing.T) {
	is := is.New(t)
	base, store, stopA, stopB := buildSingleTripNetwork(t)
	data := NewBaseData(base, store)

	// day offset 2 carries no service for this vehicle journey (only day
	// offset 1 does), so no trip should be boardable.
	startTime, err := model.NewInstant(2, model.SecondsUtc{})
	is.NoErr(err)
	startTime = startTime.Plus(model.NewPositiveDuration(7, 0, 0))

	req := Request{
		Seeds:              map[Stop]model.PositiveDuration{stopA: model.ZeroDuration},
		Targets:            map[Stop]model.PositiveDuration{stopB: model.ZeroDuration},
		StartTime:          startTime,
		MaxNbOfLegs:        3,
		MaxJourneyDuration: model.NewPositiveDuration(2, 0, 0),
		TooLateThreshold:   startTime.Plus(model.NewPositiveDuration(2, 0, 0)),
		Comparator:         BasicComparator{},
	}

	result := Solve(context.Background(), data, req)
	is.Equal(len(result.Labels), 0)
}
