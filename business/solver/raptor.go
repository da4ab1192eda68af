package solver

import (
	"context"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

// Request bundles one journey search's inputs. Seeds/Targets are written
// direction-agnostically: for a departure search Seeds are the origin stops
// reachable by a fallback walk and Targets the stops a fallback walk away
// from the real destination; an arrival search swaps the two.
type Request struct {
	Seeds   map[Stop]model.PositiveDuration
	Targets map[Stop]model.PositiveDuration

	// StartTime is the earliest permitted departure (forward) or latest
	// permitted arrival (backward) at the seed stops, before fallback
	// walking is added.
	StartTime model.Instant

	MaxNbOfLegs        int
	MaxJourneyDuration model.PositiveDuration
	// TooLateThreshold discards destination candidates arriving later than
	// this (forward) or departing earlier than this (backward).
	TooLateThreshold model.Instant

	Comparator Comparator
	Penalties  Penalties
	// VJFilter, if non-nil, restricts which vehicle journeys may be
	// boarded (e.g. to honor a requested physical-mode or network view).
	VJFilter func(model.VJIdx) bool
}

// Result is the set of Pareto-optimal destination labels a search produced.
type Result struct {
	Labels  []*Label
	Partial bool
}

// Solve runs a departure-time search: earliest arrival, fewest legs, least
// walking (optionally plus occupancy), from req.Seeds toward req.Targets no
// earlier than req.StartTime.
func Solve(ctx context.Context, data *Data, req Request) Result {
	return run(ctx, data, req, forwardDirection)
}

// onboard tracks one vehicle a round's sweep has boarded: the label it was
// boarded from, the trip, and where boarding happened.
type onboard struct {
	trip          Trip
	boardLabel    *Label
	boardPosition Position
	boardOcc      occupancy.Level
}

// paretoSet is a stop's accumulated non-dominated labels, grown across
// rounds. addLabel reports whether candidate survived (i.e. was not
// dominated by an existing label), pruning anything candidate dominates.
type paretoSet struct {
	comparator Comparator
	fronts     map[Stop][]*Label
	improved   map[Stop][]*Label
	seq        uint64
}

func newParetoSet(comparator Comparator) *paretoSet {
	return &paretoSet{comparator: comparator, fronts: make(map[Stop][]*Label), improved: make(map[Stop][]*Label)}
}

func (p *paretoSet) nextSeq() uint64 {
	p.seq++
	return p.seq
}

func (p *paretoSet) add(stop Stop, candidate *Label) bool {
	existing := p.fronts[stop]
	kept := existing[:0:0]
	dominated := false
	for _, l := range existing {
		if p.comparator.Dominates(l, candidate) {
			dominated = true
		}
		if !p.comparator.Dominates(candidate, l) {
			kept = append(kept, l)
		}
	}
	if dominated {
		p.fronts[stop] = kept
		return false
	}
	candidate.seq = p.nextSeq()
	p.fronts[stop] = append(kept, candidate)
	p.improved[stop] = append(p.improved[stop], candidate)
	return true
}

func insertDestination(result *Result, comparator Comparator, candidate *Label) {
	kept := result.Labels[:0:0]
	dominated := false
	for _, l := range result.Labels {
		if comparator.Dominates(l, candidate) {
			dominated = true
		}
		if !comparator.Dominates(candidate, l) {
			kept = append(kept, l)
		}
	}
	if dominated {
		result.Labels = kept
		return
	}
	result.Labels = append(kept, candidate)
}

func run(ctx context.Context, data *Data, req Request, dir direction) Result {
	comparator := req.Comparator
	if comparator == nil {
		comparator = BasicComparator{Penalties: req.Penalties}
	}

	labels := newParetoSet(comparator)
	for stop, walk := range req.Seeds {
		labels.add(stop, &Label{
			Criteria: Criteria{Arrival: dir.advance(req.StartTime, walk), Legs: 0, Walking: walk},
			Round:    0,
			Stop:     stop,
		})
	}

	var result Result
	collect := func() {
		for stop, walk := range req.Targets {
			for _, label := range labels.fronts[stop] {
				arrival := dir.advance(label.Criteria.Arrival, walk)
				if dir.tooLate(arrival, req.TooLateThreshold) {
					continue
				}
				if elapsed, err := dir.elapsed(req.StartTime, arrival); err != nil || elapsed.TotalSeconds() > req.MaxJourneyDuration.TotalSeconds() {
					continue
				}
				candidate := &Label{
					Criteria:    Criteria{Arrival: arrival, Legs: label.Criteria.Legs, Walking: label.Criteria.Walking.Add(walk)},
					Occ:         label.Occ,
					Round:       label.Round,
					Stop:        stop,
					Predecessor: label,
					seq:         labels.nextSeq(),
				}
				insertDestination(&result, comparator, candidate)
			}
		}
	}
	collect()

	for round := 1; round <= req.MaxNbOfLegs; round++ {
		select {
		case <-ctx.Done():
			result.Partial = true
			return result
		default:
		}

		touched := labels.improved
		if len(touched) == 0 {
			break
		}
		labels.improved = make(map[Stop][]*Label)

		visited := make(map[Mission]bool)
		for stop := range touched {
			for _, at := range data.MissionsAtStop(stop) {
				sweepMission(data, dir, req, labels, touched, round, at.Mission, nil, visited)
			}
		}

		vehicleImproved := make(map[Stop][]*Label, len(labels.improved))
		for stop, added := range labels.improved {
			vehicleImproved[stop] = append([]*Label(nil), added...)
		}
		for stop, added := range vehicleImproved {
			for _, edge := range dir.transfers(data, stop) {
				for _, label := range added {
					arrival := dir.advance(label.Criteria.Arrival, edge.Duration)
					labels.add(edge.Stop, &Label{
						Criteria:     Criteria{Arrival: arrival, Legs: label.Criteria.Legs + 1, Walking: label.Criteria.Walking.Add(edge.Duration)},
						Occ:          label.Occ,
						Round:        round,
						Stop:         edge.Stop,
						Transfer:     true,
						TransferFrom: stop,
						Predecessor:  label,
					})
				}
			}
		}

		collect()
		if len(labels.improved) == 0 {
			break
		}
	}
	return result
}

// sweepMission scans mission in dir's order starting from its first
// position, boarding every touched stop's labels as it passes and emitting
// a candidate label everywhere a boarded vehicle can be debarked. carried
// lets a stay-in continuation hand its still-active boardings into the
// continuation's mission without consuming a round or any walking.
// visited guards against a stay-in cycle revisiting the same mission.
func sweepMission(data *Data, dir direction, req Request, labels *paretoSet, touched map[Stop][]*Label, round int, mission Mission, carried []onboard, visited map[Mission]bool) {
	if visited[mission] {
		return
	}
	visited[mission] = true

	active := append([]onboard{}, carried...)
	pos := dir.firstPosition(data, mission)
	for {
		stop := data.StopOf(mission, pos)

		for _, label := range touched[stop] {
			trip, _, occ, found := dir.tripSearch(data, label.Criteria.Arrival, mission, pos, req.VJFilter)
			if !found {
				continue
			}
			active = append(active, onboard{trip: trip, boardLabel: label, boardPosition: pos, boardOcc: occ})
		}

		for _, b := range active {
			if b.boardPosition == pos {
				continue
			}
			instant, ok := dir.onTime(data, b.trip, pos)
			if !ok {
				continue
			}
			labels.add(stop, &Label{
				Criteria:        Criteria{Arrival: instant, Legs: b.boardLabel.Criteria.Legs + 1, Walking: b.boardLabel.Criteria.Walking},
				Occ:             b.boardLabel.Occ.Add(b.boardOcc),
				Round:           round,
				Stop:            stop,
				BoardedTrip:     b.trip,
				BoardedPosition: b.boardPosition,
				DebarkPosition:  pos,
				Predecessor:     b.boardLabel,
			})
		}

		next, ok := dir.nextPosition(data, mission, pos)
		if !ok {
			var continuations []onboard
			for _, b := range active {
				nextTrip, ok := dir.stayIn(data, b.trip)
				if !ok {
					continue
				}
				continuations = append(continuations, onboard{trip: nextTrip, boardLabel: b.boardLabel, boardPosition: -1, boardOcc: b.boardOcc})
			}
			if len(continuations) > 0 {
				if nextMission, ok := data.MissionOf(continuations[0].trip); ok {
					sweepMission(data, dir, req, labels, touched, round, nextMission, continuations, visited)
				}
			}
			return
		}
		pos = next
	}
}

// Unwind walks label's Predecessor chain back to its seed, returning the
// chain oldest-first.
func Unwind(label *Label) []*Label {
	var chain []*Label
	for l := label; l != nil; l = l.Predecessor {
		chain = append(chain, l)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
