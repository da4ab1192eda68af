package solver

import "github.com/transitcore/pathfinder/business/data/model"

// Penalties folds leg_arrival_penalty and leg_walking_penalty into a
// label's walking criterion: leg_walking_penalty is charged per leg,
// leg_arrival_penalty per leg beyond the first.
type Penalties struct {
	LegArrivalPenalty model.PositiveDuration
	LegWalkingPenalty model.PositiveDuration
}

func (p Penalties) penalizedWalking(legs int, walking model.PositiveDuration) model.PositiveDuration {
	total := walking.TotalSeconds()
	if legs > 0 {
		total += p.LegWalkingPenalty.TotalSeconds() * uint32(legs)
	}
	if legs > 1 {
		total += p.LegArrivalPenalty.TotalSeconds() * uint32(legs-1)
	}
	return model.NewPositiveDuration(0, 0, total)
}

// Comparator orders labels under one of the two Pareto criteria sets this
// solver supports.
type Comparator interface {
	// Dominates reports whether a is not worse than b in every criterion
	// and strictly better in at least one. Two labels that tie in every
	// criterion dominate neither way; Better breaks that tie separately.
	Dominates(a, b *Label) bool
}

type cmp int

const (
	cmpLess cmp = iota - 1
	cmpEqual
	cmpGreater
)

func cmpInstant(a, b model.Instant) cmp {
	switch {
	case a.Before(b):
		return cmpLess
	case a.After(b):
		return cmpGreater
	default:
		return cmpEqual
	}
}

func cmpInt(a, b int) cmp {
	switch {
	case a < b:
		return cmpLess
	case a > b:
		return cmpGreater
	default:
		return cmpEqual
	}
}

func cmpDuration(a, b model.PositiveDuration) cmp {
	switch {
	case a.TotalSeconds() < b.TotalSeconds():
		return cmpLess
	case a.TotalSeconds() > b.TotalSeconds():
		return cmpGreater
	default:
		return cmpEqual
	}
}

// cmpOccupancyVector compares two occupancy vectors component-wise, the
// same partial order timetable.partialCmpLevels applies to a single
// vehicle's per-leg levels. ok is false when neither vector is component-wise
// <= the other (mixed directions across classes).
func cmpOccupancyVector(a, b OccupancyVector) (result cmp, ok bool) {
	result = cmpEqual
	set := false
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		c := cmpGreater
		if a[i] < b[i] {
			c = cmpLess
		}
		if !set {
			result, set = c, true
			continue
		}
		if c != result {
			return cmpEqual, false
		}
	}
	return result, true
}

// dominatesVector reports whether every comparison is <= and at least one
// is strictly <, the shared Pareto dominance rule both comparators apply to
// their own criteria vector.
func dominatesVector(cmps []cmp) bool {
	strictlyBetter := false
	for _, c := range cmps {
		if c == cmpGreater {
			return false
		}
		if c == cmpLess {
			strictlyBetter = true
		}
	}
	return strictlyBetter
}

// BasicComparator is the 3-criterion comparator: arrival time, legs, and
// walking duration with penalties folded in.
type BasicComparator struct {
	Penalties Penalties
}

func (c BasicComparator) Dominates(a, b *Label) bool {
	return dominatesVector([]cmp{
		cmpInstant(a.Criteria.Arrival, b.Criteria.Arrival),
		cmpInt(a.Criteria.Legs, b.Criteria.Legs),
		cmpDuration(
			c.Penalties.penalizedWalking(a.Criteria.Legs, a.Criteria.Walking),
			c.Penalties.penalizedWalking(b.Criteria.Legs, b.Criteria.Walking),
		),
	})
}

// LoadsComparator is the Basic comparator's three criteria plus the
// accumulated occupancy vector.
type LoadsComparator struct {
	Penalties Penalties
}

func (c LoadsComparator) Dominates(a, b *Label) bool {
	occCmp, ok := cmpOccupancyVector(a.Occ, b.Occ)
	if !ok {
		return false
	}
	return dominatesVector([]cmp{
		cmpInstant(a.Criteria.Arrival, b.Criteria.Arrival),
		cmpInt(a.Criteria.Legs, b.Criteria.Legs),
		cmpDuration(
			c.Penalties.penalizedWalking(a.Criteria.Legs, a.Criteria.Walking),
			c.Penalties.penalizedWalking(b.Criteria.Legs, b.Criteria.Walking),
		),
		occCmp,
	})
}

// Better reports whether a should be preferred over b: a dominates b, or
// neither dominates the other and a was produced first (stable
// insertion-order tie-break).
func Better(comparator Comparator, a, b *Label) bool {
	if comparator.Dominates(a, b) {
		return true
	}
	if comparator.Dominates(b, a) {
		return false
	}
	return a.seq < b.seq
}
