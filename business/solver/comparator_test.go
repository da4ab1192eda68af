package solver

import (
	"testing"

	"github.com/matryer/is"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

func instant(seconds uint32) model.Instant {
	i, err := model.NewInstant(0, model.SecondsUtc{})
	if err != nil {
		panic(err)
	}
	return i.Plus(model.NewPositiveDuration(0, 0, seconds))
}

func labelWith(arrival uint32, legs int, walking uint32, seq uint64) *Label {
	return &Label{
		Criteria: Criteria{
			Arrival: instant(arrival),
			Legs:    legs,
			Walking: model.NewPositiveDuration(0, 0, walking),
		},
		seq: seq,
	}
}

func TestBasicComparatorDominatesOnStrictlyBetterArrival(t *testing.T) {
	is := is.New(t)
	c := BasicComparator{}

	earlier := labelWith(100, 1, 0, 0)
	later := labelWith(200, 1, 0, 1)

	is.True(c.Dominates(earlier, later))
	is.True(!c.Dominates(later, earlier))
}

func TestBasicComparatorNeitherDominatesOnTradeoff(t *testing.T) {
	is := is.New(t)
	c := BasicComparator{}

	fasterMoreLegs := labelWith(100, 3, 0, 0)
	slowerFewerLegs := labelWith(200, 1, 0, 1)

	is.True(!c.Dominates(fasterMoreLegs, slowerFewerLegs))
	is.True(!c.Dominates(slowerFewerLegs, fasterMoreLegs))
}

func TestBasicComparatorTiesDominateNeither(t *testing.T) {
	is := is.New(t)
	c := BasicComparator{}

	a := labelWith(100, 1, 0, 0)
	b := labelWith(100, 1, 0, 1)

	is.True(!c.Dominates(a, b))
	is.True(!c.Dominates(b, a))
}

func TestBetterBreaksTiesByInsertionOrder(t *testing.T) {
	is := is.New(t)
	c := BasicComparator{}

	first := labelWith(100, 1, 0, 0)
	second := labelWith(100, 1, 0, 1)

	is.True(Better(c, first, second))
	is.True(!Better(c, second, first))
}

func TestBetterPrefersDominatingLabel(t *testing.T) {
	is := is.New(t)
	c := BasicComparator{}

	earlier := labelWith(100, 1, 0, 5)
	later := labelWith(200, 1, 0, 0)

	is.True(Better(c, earlier, later)) // dominance overrides a later sequence number
}

func TestPenaltiesFoldIntoWalkingCriterion(t *testing.T) {
	is := is.New(t)
	penalties := Penalties{
		LegArrivalPenalty: model.NewPositiveDuration(0, 1, 0),
		LegWalkingPenalty: model.NewPositiveDuration(0, 0, 30),
	}
	c := BasicComparator{Penalties: penalties}

	// two legs of walking vs one leg with a higher raw walking time: the
	// per-leg penalty should make the two-leg option the worse one despite
	// a lower raw Walking value (50+2*30+60 = 170 against 100+30 = 130).
	twoLegs := labelWith(100, 2, 50, 0)
	oneLeg := labelWith(100, 1, 100, 1)

	is.True(!c.Dominates(twoLegs, oneLeg))
	is.True(c.Dominates(oneLeg, twoLegs))
}

func TestLoadsComparatorRequiresComparableOccupancy(t *testing.T) {
	is := is.New(t)
	c := LoadsComparator{}

	a := labelWith(100, 1, 0, 0)
	a.Occ = OccupancyVector{}.Add(occupancy.Low)

	b := labelWith(100, 1, 0, 1)
	b.Occ = OccupancyVector{}.Add(occupancy.High)

	// mixed occupancy classes (neither vector componentwise <=) can't be
	// compared, so LoadsComparator reports no dominance either way.
	is.True(!c.Dominates(a, b))
	is.True(!c.Dominates(b, a))
}

func TestLoadsComparatorDominatesOnLowerOccupancy(t *testing.T) {
	is := is.New(t)
	c := LoadsComparator{}

	better := labelWith(100, 1, 0, 0)
	better.Occ = OccupancyVector{}.Add(occupancy.Low)

	worse := labelWith(100, 1, 0, 1)
	worse.Occ = OccupancyVector{}.Add(occupancy.High)
	worse.Occ[occupancy.Low]++ // tie the Low count so the vectors are component-wise comparable

	is.True(c.Dominates(better, worse))
}
