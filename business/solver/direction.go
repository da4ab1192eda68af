package solver

import (
	"context"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

// transferEdge is one walking edge direction can relax over: reachable stop
// and the duration it costs.
type transferEdge struct {
	Stop     Stop
	Duration model.PositiveDuration
}

// direction abstracts the asymmetry between a departure-time (forward) and
// an arrival-time (backward) search: which way the clock moves, which end
// of a trip counts as "boarding" versus "getting off", and which walking
// edges and stay-in links run forward from a stop rather than backward into
// it.
type direction struct {
	tripSearch func(d *Data, waitingTime model.Instant, mission Mission, position Position, filter func(model.VJIdx) bool) (Trip, model.Instant, occupancy.Level, bool)
	// onTime reports the instant a trip boarded upstream can be got off at
	// position, the check that turns a boarding into a debarkable label.
	onTime func(d *Data, trip Trip, position Position) (model.Instant, bool)

	firstPosition func(d *Data, mission Mission) Position
	nextPosition  func(d *Data, mission Mission, p Position) (Position, bool)

	transfers func(d *Data, stop Stop) []transferEdge
	stayIn    func(d *Data, trip Trip) (Trip, bool)

	// advance moves an instant further in the search's direction of travel
	// by a walking duration (Plus for forward, Minus for backward).
	advance func(i model.Instant, d model.PositiveDuration) model.Instant
	// elapsed returns the PositiveDuration a journey from start to current
	// has taken, whichever of the two runs earlier in real time.
	elapsed func(start, current model.Instant) (model.PositiveDuration, error)
	// tooLate reports whether candidate has crossed threshold in the
	// direction that makes it unusable.
	tooLate func(candidate, threshold model.Instant) bool
}

var forwardDirection = direction{
	tripSearch:    (*Data).EarliestTripToBoard,
	onTime:        (*Data).DebarkTimeOf,
	firstPosition: func(d *Data, mission Mission) Position { return d.FirstOnMission(mission) },
	nextPosition:  func(d *Data, mission Mission, p Position) (Position, bool) { return d.NextOnMission(mission, p) },
	transfers: func(d *Data, stop Stop) []transferEdge {
		edges := d.TransfersFrom(stop)
		out := make([]transferEdge, len(edges))
		for i, e := range edges {
			out[i] = transferEdge{Stop: e.To, Duration: e.Durations.TotalDuration}
		}
		return out
	},
	stayIn:  func(d *Data, trip Trip) (Trip, bool) { return d.StayInNext(trip) },
	advance: func(i model.Instant, dur model.PositiveDuration) model.Instant { return i.Plus(dur) },
	elapsed: func(start, current model.Instant) (model.PositiveDuration, error) { return current.Sub(start) },
	tooLate: func(candidate, threshold model.Instant) bool { return candidate.After(threshold) },
}

var backwardDirection = direction{
	tripSearch:    (*Data).LatestTripThatDebark,
	onTime:        (*Data).BoardTimeOf,
	firstPosition: func(d *Data, mission Mission) Position { return d.LastOnMission(mission) },
	nextPosition:  func(d *Data, mission Mission, p Position) (Position, bool) { return d.PreviousOnMission(mission, p) },
	transfers: func(d *Data, stop Stop) []transferEdge {
		edges := d.TransfersTo(stop)
		out := make([]transferEdge, len(edges))
		for i, e := range edges {
			out[i] = transferEdge{Stop: e.From, Duration: e.Durations.TotalDuration}
		}
		return out
	},
	stayIn: func(d *Data, trip Trip) (Trip, bool) { return d.StayInPrevious(trip) },
	advance: func(i model.Instant, dur model.PositiveDuration) model.Instant {
		out, err := i.Minus(dur)
		if err != nil {
			return model.Instant{}
		}
		return out
	},
	elapsed: func(start, current model.Instant) (model.PositiveDuration, error) { return start.Sub(current) },
	tooLate: func(candidate, threshold model.Instant) bool { return candidate.Before(threshold) },
}

// SolveArrival runs an arrival-time search: the time axis, trip search and
// transfer/stay-in edges all run backward from req.Seeds (the real
// destination's direct-walk stops) toward req.Targets (the real origin's),
// no later than req.StartTime.
func SolveArrival(ctx context.Context, data *Data, req Request) Result {
	return run(ctx, data, req, backwardDirection)
}
