package query

import (
	"fmt"
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/solver"
)

// resolved is a Request translated into the solver's stop-index/Instant
// vocabulary, plus the direction the search should run in.
type resolved struct {
	solverReq solver.Request
	backward  bool
}

// instantOfWallClock converts a caller-supplied wall-clock time (assumed UTC,
// per the RPC surface's datetimes[] field) into the dataset-relative Instant
// the solver operates on.
func instantOfWallClock(calendar *model.Calendar, t time.Time) (model.Instant, error) {
	day, err := calendar.OffsetOf(t)
	if err != nil {
		return model.Instant{}, &TimestampOutOfCalendarError{Err: err}
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	secondsInDay := int32(t.Sub(midnight).Seconds())
	utc, err := model.NewSecondsUtc(secondsInDay)
	if err != nil {
		return model.Instant{}, fmt.Errorf("query: %w", err)
	}
	instant, err := model.NewInstant(day, utc)
	if err != nil {
		return model.Instant{}, fmt.Errorf("query: %w", err)
	}
	return instant, nil
}

// resolvePlaces resolves a list of Places against stops, returning a
// solver-ready stop -> fallback-walk map. Unresolved stop-point URIs are
// dropped with an UnresolvedPlaceError collected into errs rather than
// failing the whole request outright, matching spec.md's "unknown prefixes
// dropped with a warning" place-resolution policy; the caller decides
// whether a request with zero resolved places is fatal.
func resolvePlaces(stops *model.StopRegistry, places []Place) (map[solver.Stop]model.PositiveDuration, []error) {
	out := make(map[solver.Stop]model.PositiveDuration, len(places))
	var errs []error
	for _, p := range places {
		idx, ok := stops.StopPointIdx(p.StopPointId)
		if !ok {
			errs = append(errs, &UnresolvedPlaceError{StopPointId: string(p.StopPointId)})
			continue
		}
		out[idx] = p.Walking
	}
	return out, errs
}

// resolve translates req into a solver.Request, resolving stop-point places
// and the single departure/arrival timestamp against base's calendar.
func resolve(base *model.BaseModel, req Request) (resolved, error) {
	req = req.withDefaults()

	if len(req.Origins) == 0 {
		return resolved{}, ErrMissingOrigin
	}
	if len(req.Destinations) == 0 {
		return resolved{}, ErrMissingDestination
	}

	backward := !req.ArrivalTime.IsZero()
	anchor := req.DepartureTime
	if backward {
		anchor = req.ArrivalTime
	}
	if anchor.IsZero() {
		return resolved{}, fmt.Errorf("query: request has neither a departure nor an arrival time")
	}

	startTime, err := instantOfWallClock(base.Calendar, anchor)
	if err != nil {
		return resolved{}, err
	}

	origins, originErrs := resolvePlaces(base.Stops, req.Origins)
	destinations, destErrs := resolvePlaces(base.Stops, req.Destinations)
	if len(origins) == 0 {
		if len(originErrs) > 0 {
			return resolved{}, originErrs[0]
		}
		return resolved{}, ErrMissingOrigin
	}
	if len(destinations) == 0 {
		if len(destErrs) > 0 {
			return resolved{}, destErrs[0]
		}
		return resolved{}, ErrMissingDestination
	}

	seeds, targets := origins, destinations
	if backward {
		seeds, targets = destinations, origins
	}

	tooLate := req.MaxJourneyDuration
	threshold := startTime.Plus(tooLate)
	if backward {
		var err error
		threshold, err = startTime.Minus(tooLate)
		if err != nil {
			return resolved{}, ErrMaxDurationTooLarge
		}
	}

	solverReq := solver.Request{
		Seeds:              seeds,
		Targets:            targets,
		StartTime:          startTime,
		MaxNbOfLegs:        req.MaxNbOfLegs,
		MaxJourneyDuration: req.MaxJourneyDuration,
		TooLateThreshold:   threshold,
		Comparator:         req.comparator(),
		Penalties:          req.Penalties,
		VJFilter:           req.VJFilter,
	}

	return resolved{solverReq: solverReq, backward: backward}, nil
}
