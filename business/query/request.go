package query

import (
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/solver"
)

// DefaultMaxNbOfLegs caps a search's round count when a Request leaves
// MaxNbOfLegs unset.
const DefaultMaxNbOfLegs = 10

// DefaultMaxJourneyDuration bounds how long a candidate journey may run
// when a Request leaves MaxJourneyDuration unset.
var DefaultMaxJourneyDuration = model.NewPositiveDuration(4, 0, 0)

// Place names a journey endpoint: a stop-point URI paired with the walking
// duration between it and the caller's real point of interest (an origin's
// fallback walk to reach it, or a destination's fallback walk from it).
type Place struct {
	StopPointId model.StopPointId
	Walking     model.PositiveDuration
}

// Request is a decoded journey-planning request, the URI-and-wall-clock
// level input a caller supplies before stop-point ids are resolved to
// internal indices and wall-clock times to dataset-relative instants.
type Request struct {
	Origins      []Place
	Destinations []Place

	// Exactly one of DepartureTime/ArrivalTime must be set: DepartureTime
	// anchors a departure-time (forward) search, ArrivalTime an
	// arrival-time (backward) one.
	DepartureTime time.Time
	ArrivalTime   time.Time

	MaxNbOfLegs        int
	MaxJourneyDuration model.PositiveDuration

	// UseOccupancy selects solver.LoadsComparator over the default
	// solver.BasicComparator.
	UseOccupancy bool
	Penalties    solver.Penalties

	// VJFilter, if non-nil, restricts which vehicle journeys may be
	// boarded.
	VJFilter func(model.VJIdx) bool
}

func (r Request) withDefaults() Request {
	if r.MaxNbOfLegs == 0 {
		r.MaxNbOfLegs = DefaultMaxNbOfLegs
	}
	if r.MaxJourneyDuration.TotalSeconds() == 0 {
		r.MaxJourneyDuration = DefaultMaxJourneyDuration
	}
	return r
}

func (r Request) comparator() solver.Comparator {
	if r.UseOccupancy {
		return solver.LoadsComparator{Penalties: r.Penalties}
	}
	return solver.BasicComparator{Penalties: r.Penalties}
}
