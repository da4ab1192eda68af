package query

import (
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/solver"
)

// SectionKind discriminates a journey leg's nature, mirroring the RPC
// surface's section list (spec.md §6): a ride aboard a vehicle journey, a
// walking transfer between two stops, or the waiting time a rider spends
// standing at a stop between two legs.
type SectionKind int

const (
	VehicleSection SectionKind = iota
	TransferSection
	WaitingSection
)

func (k SectionKind) String() string {
	switch k {
	case VehicleSection:
		return "vehicle"
	case TransferSection:
		return "transfer"
	case WaitingSection:
		return "waiting"
	default:
		return "unknown"
	}
}

// StopDateTime is one scheduled visit a vehicle section passes through,
// mirroring the RPC surface's stop_date_times[] entries.
type StopDateTime struct {
	StopPointId  model.StopPointId
	ArrivalTime  time.Time
	DepartureTime time.Time
}

// Section is one leg of a Journey.
type Section struct {
	Kind SectionKind

	From model.StopPointId
	To   model.StopPointId

	FromDatetime time.Time
	ToDatetime   time.Time

	// VehicleJourneyId and StopDateTimes are set only for VehicleSection.
	VehicleJourneyId string
	StopDateTimes    []StopDateTime

	// ImpactIds names the disruptions (if any) that touched this section's
	// underlying (vj, date) trip in the real-time view.
	ImpactIds []string
}

// Journey is one Pareto-optimal itinerary, unwound from a solver.Label chain
// into rider-facing sections.
type Journey struct {
	Sections     []Section
	Duration     model.PositiveDuration
	NbTransfers  int
	ArrivalTime  time.Time
	DepartureTime time.Time
}

// Response is the outcome of a journey-planning request: either a set of
// Pareto-optimal Journeys, or a ResponseError explaining why none could be
// produced.
type Response struct {
	Journeys []Journey
	Partial  bool
	Error    *ResponseError
}

// stopPointIdOf resolves stop to its originating StopPointId, empty for a
// purely real-time-introduced stop with no base counterpart.
func stopPointIdOf(base *model.BaseModel, stop solver.Stop) model.StopPointId {
	return base.Stops.Get(stop).StopPointId
}

// dateOf converts instant back into the calendar date its day offset falls
// on, used to resolve the disruptions linked to a trip's (vj, date) key.
func dateOf(calendar *model.Calendar, instant model.Instant) time.Time {
	day, _ := instant.DayAndSeconds()
	date, err := calendar.DateOf(day)
	if err != nil {
		return time.Time{}
	}
	return date
}

// instantToTime converts a dataset-relative Instant back to a wall-clock
// time.Time, anchored at the calendar's first date at UTC midnight.
func instantToTime(calendar *model.Calendar, instant model.Instant) time.Time {
	return calendar.FirstDate().Add(time.Duration(instant.TotalSeconds()) * time.Second)
}

// buildJourney unwinds dest's Predecessor chain (oldest first) into rider
// facing sections. data resolves stop times/board-debark instants for any
// boarded trip's intermediate stop_date_times; overlay (nil for the Base
// view) supplies the disruption id enriching a vehicle section.
func buildJourney(base *model.BaseModel, data *solver.Data, overlay disruptionLookup, dest *solver.Label) Journey {
	chain := solver.Unwind(dest)

	var sections []Section
	transfers := 0
	for i := 1; i < len(chain); i++ {
		label := chain[i]
		prev := chain[i-1]

		switch {
		case label.Transfer:
			transfers++
			sections = append(sections, Section{
				Kind:         TransferSection,
				From:         stopPointIdOf(base, label.TransferFrom),
				To:           stopPointIdOf(base, label.Stop),
				FromDatetime: instantToTime(base.Calendar, prev.Criteria.Arrival),
				ToDatetime:   instantToTime(base.Calendar, label.Criteria.Arrival),
			})
		case label.BoardedTrip != (solver.Trip{}):
			section := buildVehicleSection(base, data, overlay, label)
			sections = append(sections, section)
		default:
			// A fallback-walk pseudo-edge (origin access or destination
			// egress): emit it as a waiting/access section only when it
			// actually took time, matching spec.md's four-section S2
			// scenario (vehicle, transfer, waiting, vehicle) rather than
			// padding every journey with a zero-duration leg.
			if label.Criteria.Walking.TotalSeconds() > prev.Criteria.Walking.TotalSeconds() {
				sections = append(sections, Section{
					Kind:         WaitingSection,
					From:         stopPointIdOf(base, prev.Stop),
					To:           stopPointIdOf(base, label.Stop),
					FromDatetime: instantToTime(base.Calendar, prev.Criteria.Arrival),
					ToDatetime:   instantToTime(base.Calendar, label.Criteria.Arrival),
				})
			}
		}
	}

	first := chain[0]
	last := chain[len(chain)-1]
	duration, _ := last.Criteria.Arrival.Sub(first.Criteria.Arrival)
	if last.Criteria.Arrival.Before(first.Criteria.Arrival) {
		duration, _ = first.Criteria.Arrival.Sub(last.Criteria.Arrival)
	}

	return Journey{
		Sections:      sections,
		Duration:      duration,
		NbTransfers:   transfers,
		DepartureTime: instantToTime(base.Calendar, first.Criteria.Arrival),
		ArrivalTime:   instantToTime(base.Calendar, last.Criteria.Arrival),
	}
}

// disruptionLookup is the subset of *realtime.Overlay a response builder
// needs to enrich a vehicle section with its responsible disruption, if any.
// A nil disruptionLookup (the Base view) never reports an impact.
type disruptionLookup interface {
	DisruptionIdAt(vj model.VJIdx, date time.Time) (string, bool)
}

func buildVehicleSection(base *model.BaseModel, data *solver.Data, overlay disruptionLookup, label *solver.Label) Section {
	trip := label.BoardedTrip
	from, to := label.BoardedPosition, label.DebarkPosition
	mission, _ := data.MissionOf(trip)

	fromTime, _ := data.DepartureTimeOf(trip, from)
	toTime, _ := data.ArrivalTimeOf(trip, to)

	var vjId string
	if vj := base.VehicleJourney(trip.VJ); vj != nil {
		vjId = vj.Id
	}

	section := Section{
		Kind:         VehicleSection,
		From:         stopPointIdOf(base, data.StopOf(mission, from)),
		To:           stopPointIdOf(base, data.StopOf(mission, to)),
		FromDatetime: instantToTime(base.Calendar, fromTime),
		ToDatetime:   instantToTime(base.Calendar, toTime),
		VehicleJourneyId: vjId,
	}

	for p := from; ; {
		stop := data.StopOf(mission, p)
		dep, _ := data.DepartureTimeOf(trip, p)
		arr, _ := data.ArrivalTimeOf(trip, p)
		section.StopDateTimes = append(section.StopDateTimes, StopDateTime{
			StopPointId:   stopPointIdOf(base, stop),
			ArrivalTime:   instantToTime(base.Calendar, arr),
			DepartureTime: instantToTime(base.Calendar, dep),
		})
		if p == to {
			break
		}
		next, ok := data.NextOnMission(mission, p)
		if !ok {
			break
		}
		p = next
	}

	if overlay != nil {
		if id, ok := overlay.DisruptionIdAt(trip.VJ, trip.Date); ok {
			section.ImpactIds = append(section.ImpactIds, id)
		}
	}
	return section
}
