package query

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/transitcore/pathfinder/business/data/model"
)

func buildResolveBase(t *testing.T) *model.BaseModel {
	t.Helper()
	calendar, err := model.NewCalendar(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	days := model.NewDaysPatterns(calendar.NbOfDays())
	stops := model.NewStopRegistry()
	stops.EnsureBaseStop("sp:a")
	stops.EnsureBaseStop("sp:b")
	return model.NewBaseModel(calendar, days, stops, model.NewTransferIndex(), nil)
}

func TestResolveRejectsMissingOrigin(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Destinations:  []Place{{StopPointId: "sp:b"}},
		DepartureTime: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
	_, err := resolve(base, req)
	is.Equal(err, ErrMissingOrigin)
}

func TestResolveRejectsMissingDestination(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Origins:       []Place{{StopPointId: "sp:a"}},
		DepartureTime: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
	_, err := resolve(base, req)
	is.Equal(err, ErrMissingDestination)
}

func TestResolveRejectsUnresolvedOrigin(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Origins:       []Place{{StopPointId: "sp:unknown"}},
		Destinations:  []Place{{StopPointId: "sp:b"}},
		DepartureTime: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
	_, err := resolve(base, req)
	var unresolved *UnresolvedPlaceError
	is.True(errors.As(err, &unresolved))
	is.Equal(unresolved.StopPointId, "sp:unknown")
}

func TestResolveRejectsOutOfCalendarTimestamp(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Origins:       []Place{{StopPointId: "sp:a"}},
		Destinations:  []Place{{StopPointId: "sp:b"}},
		DepartureTime: time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC),
	}
	_, err := resolve(base, req)
	var outOfCalendar *TimestampOutOfCalendarError
	is.True(errors.As(err, &outOfCalendar))
}

func TestResolveForwardSearchUsesOriginsAsSeeds(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Origins:       []Place{{StopPointId: "sp:a"}},
		Destinations:  []Place{{StopPointId: "sp:b"}},
		DepartureTime: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
	r, err := resolve(base, req)
	is.NoErr(err)
	is.True(!r.backward)

	stopA, _ := base.Stops.StopPointIdx("sp:a")
	stopB, _ := base.Stops.StopPointIdx("sp:b")
	_, hasSeed := r.solverReq.Seeds[stopA]
	_, hasTarget := r.solverReq.Targets[stopB]
	is.True(hasSeed)
	is.True(hasTarget)
}

func TestResolveBackwardSearchSwapsSeedsAndTargets(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Origins:     []Place{{StopPointId: "sp:a"}},
		Destinations: []Place{{StopPointId: "sp:b"}},
		ArrivalTime: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
	r, err := resolve(base, req)
	is.NoErr(err)
	is.True(r.backward)

	stopA, _ := base.Stops.StopPointIdx("sp:a")
	stopB, _ := base.Stops.StopPointIdx("sp:b")
	_, hasSeed := r.solverReq.Seeds[stopB]
	_, hasTarget := r.solverReq.Targets[stopA]
	is.True(hasSeed)
	is.True(hasTarget)
	is.True(r.solverReq.TooLateThreshold.Before(r.solverReq.StartTime) || r.solverReq.TooLateThreshold == r.solverReq.StartTime)
}

func TestResolveRejectsRequestWithNeitherTime(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Origins:      []Place{{StopPointId: "sp:a"}},
		Destinations: []Place{{StopPointId: "sp:b"}},
	}
	_, err := resolve(base, req)
	is.True(err != nil)
}

func TestResolveAppliesDefaultsWhenUnset(t *testing.T) {
	is := is.New(t)
	base := buildResolveBase(t)

	req := Request{
		Origins:       []Place{{StopPointId: "sp:a"}},
		Destinations:  []Place{{StopPointId: "sp:b"}},
		DepartureTime: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
	}
	r, err := resolve(base, req)
	is.NoErr(err)
	is.Equal(r.solverReq.MaxNbOfLegs, DefaultMaxNbOfLegs)
	is.Equal(r.solverReq.MaxJourneyDuration, DefaultMaxJourneyDuration)
}
