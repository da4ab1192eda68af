package solver

import (
	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

// Criteria is the Basic comparator's 3-criterion vector: arrival time, legs
// and accumulated raw walking duration (leg penalties are applied by the
// comparators at comparison time, not stored here). Loads extends it
// with an occupancy vector, never strips it down, so both comparators share
// this as their common prefix.
type Criteria struct {
	Arrival model.Instant
	Legs    int
	Walking model.PositiveDuration
}

// OccupancyVector accumulates a journey's per-class exposure: the count of
// legs observed at each occupancy.Level, compared component-wise under the
// Loads comparator.
type OccupancyVector [3]uint32

// Add returns v with one leg's level folded in.
func (v OccupancyVector) Add(level occupancy.Level) OccupancyVector {
	v[level]++
	return v
}

// Label is one Pareto-optimal way to reach a stop: the criteria vector, the
// round it was produced in, how it was reached (board a trip, or a transfer
// relaxation), and insertion order for stable tie-breaking.
type Label struct {
	Criteria Criteria
	Occ      OccupancyVector

	Round int
	Stop  Stop

	// BoardedTrip/BoardedPosition/DebarkPosition describe the leg that
	// produced this label, if it was produced by boarding a trip (Transfer
	// is false). Transfer labels instead set TransferFrom.
	Transfer        bool
	BoardedTrip      Trip
	BoardedPosition  Position
	DebarkPosition   Position
	TransferFrom     Stop

	// Predecessor links this label to the one it was extended from, so a
	// final destination label can be unwound into a full journey.
	Predecessor *Label

	// seq is the insertion order used to break otherwise-equal comparisons,
	// assigned by the round loop as labels are produced.
	seq uint64
}
