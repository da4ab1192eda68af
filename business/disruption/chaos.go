package disruption

import (
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/realtime"
)

// unresolvedEntity records an informed entity this package could not turn
// into a set of affected vehicle journeys, so the caller can surface it
// rather than silently dropping part of a disruption.
type unresolvedEntity struct {
	Entity InformedEntity
	Reason string
}

// resolveEntities expands a set of informed entities into the VJIdx set they
// affect. Trip and stop-point entities resolve directly against the indices
// this package builds; line-section and rail-section entities are handled
// separately by planImpact (they target a segment, not a vehicle journey,
// until resolveSectionTrips walks the base schedule for them). Network,
// line, route and stop-area entities need an index this package does not
// build, and are reported as unresolved instead of silently ignored.
func resolveEntities(idx *Index, entities []InformedEntity) (affected []model.VJIdx, unresolved []unresolvedEntity) {
	seen := make(map[model.VJIdx]bool)
	add := func(vj model.VJIdx) {
		if !seen[vj] {
			seen[vj] = true
			affected = append(affected, vj)
		}
	}

	for _, e := range entities {
		switch e.Type {
		case ObjectVehicleJourney:
			vj, ok := idx.VehicleJourneyByExternalId(e.URI)
			if !ok {
				unresolved = append(unresolved, unresolvedEntity{e, "vehicle journey not found"})
				continue
			}
			add(vj)
		case ObjectStopPoint:
			for _, vj := range idx.VehicleJourneysAtStopPoint(model.StopPointId(e.URI)) {
				add(vj)
			}
		default:
			unresolved = append(unresolved, unresolvedEntity{e, "entity type requires a network/line/route/stop-area index this compiler does not build"})
		}
	}
	return affected, unresolved
}

// resolveSectionTrips finds every base vehicle journey whose stop sequence
// visits section's from-stop before its to-stop, the set a line-section or
// rail-section entity implicitly targets (this model has no separate
// stop-area or route layer, so the section's endpoints are resolved as stop
// points directly).
func resolveSectionTrips(idx *Index, section *LineSection) []model.VJIdx {
	fromIdx, ok := idx.base.Stops.StopPointIdx(model.StopPointId(section.FromStopAreaURI))
	if !ok {
		return nil
	}
	toIdx, ok := idx.base.Stops.StopPointIdx(model.StopPointId(section.ToStopAreaURI))
	if !ok {
		return nil
	}

	var matches []model.VJIdx
	for _, vj := range idx.base.VehicleJourneys() {
		fromPos, toPos := -1, -1
		for i, st := range vj.StopTimes {
			if st.Stop == fromIdx && fromPos == -1 {
				fromPos = i
			}
			if st.Stop == toIdx && fromPos != -1 && toPos == -1 {
				toPos = i
			}
		}
		if fromPos != -1 && toPos != -1 && toPos > fromPos {
			matches = append(matches, vj.Idx)
		}
	}
	return matches
}

// blockedStopSet resolves a rail section's blocked stop URIs to StopIdx.
// Line sections carry no blocked-stop list of their own: the whole segment
// between the two endpoints is elided instead.
func blockedStopSet(idx *Index, section *LineSection, isRail bool) map[model.StopIdx]bool {
	if !isRail || len(section.BlockedStopURIs) == 0 {
		return nil
	}
	blocked := make(map[model.StopIdx]bool, len(section.BlockedStopURIs))
	for _, uri := range section.BlockedStopURIs {
		if stopIdx, ok := idx.base.Stops.StopPointIdx(model.StopPointId(uri)); ok {
			blocked[stopIdx] = true
		}
	}
	return blocked
}

// elideSection removes the affected segment from stopTimes. With a blocked
// set (a rail section's named blocked stops) only those stops are removed,
// preserving the order of the rest. Without one (a line section) every stop
// strictly between the from and to endpoints is removed; the endpoints
// themselves remain so the trip still bounds the closed segment.
func elideSection(stopTimes []model.StopTime, fromStop, toStop model.StopIdx, blocked map[model.StopIdx]bool) ([]model.StopTime, bool) {
	fromPos, toPos := -1, -1
	for i, st := range stopTimes {
		if st.Stop == fromStop && fromPos == -1 {
			fromPos = i
		}
		if st.Stop == toStop && fromPos != -1 && toPos == -1 {
			toPos = i
		}
	}
	if fromPos == -1 || toPos == -1 || toPos <= fromPos {
		return nil, false
	}

	if blocked != nil {
		elided := make([]model.StopTime, 0, len(stopTimes))
		for _, st := range stopTimes {
			if blocked[st.Stop] {
				continue
			}
			elided = append(elided, st)
		}
		return elided, true
	}

	elided := make([]model.StopTime, 0, len(stopTimes)-(toPos-fromPos-1))
	elided = append(elided, stopTimes[:fromPos+1]...)
	elided = append(elided, stopTimes[toPos:]...)
	return elided, true
}

// datesInPeriod enumerates every calendar date within [begin, end] (inclusive
// of whole days touched by the period), clamped to calendar's valid range.
func datesInPeriod(period ApplicationPeriod, calendar *model.Calendar) []time.Time {
	begin := period.Begin
	if begin.Before(calendar.FirstDate()) {
		begin = calendar.FirstDate()
	}
	end := period.End
	if end.After(calendar.LastDate()) {
		end = calendar.LastDate()
	}

	var dates []time.Time
	for d := time.Date(begin.Year(), begin.Month(), begin.Day(), 0, 0, 0, 0, time.UTC); !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Before(calendar.FirstDate()) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// matchesPattern reports whether date falls on one of pattern's active
// weekdays within its date range, honoring ExcludeHolidays.
func matchesPattern(pattern ApplicationPattern, date time.Time, holidays HolidayChecker) bool {
	if date.Before(pattern.StartDate) || date.After(pattern.EndDate) {
		return false
	}
	// time.Monday == 1 ... time.Sunday == 0; WeeklyPattern is Monday=0..Sunday=6.
	weekday := (int(date.Weekday()) + 6) % 7
	if !pattern.WeeklyPattern[weekday] {
		return false
	}
	if pattern.ExcludeHolidays && holidays != nil && holidays.IsHoliday(date) {
		return false
	}
	return true
}

// activeDate is one date an impact is active on, together with the time
// slots (if any) restricting which trips on that date it actually reaches.
// A nil Slots means the whole day: no pattern restricted it, or every
// matching pattern left its TimeSlots empty.
type activeDate struct {
	Date  time.Time
	Slots []TimeSlot
}

// activeDates expands an impact's application periods and patterns into the
// concrete dates it is active on, along with any time-of-day restriction a
// matching pattern narrows it to.
func activeDates(impact Impact, calendar *model.Calendar, holidays HolidayChecker) []activeDate {
	var dates []activeDate
	for _, period := range impact.ApplicationPeriods {
		for _, date := range datesInPeriod(period, calendar) {
			if len(impact.ApplicationPatterns) == 0 {
				dates = append(dates, activeDate{Date: date})
				continue
			}
			matched := false
			var slots []TimeSlot
			for _, pattern := range impact.ApplicationPatterns {
				if matchesPattern(pattern, date, holidays) {
					matched = true
					slots = append(slots, pattern.TimeSlots...)
				}
			}
			if matched {
				dates = append(dates, activeDate{Date: date, Slots: slots})
			}
		}
	}
	return dates
}

// inTimeSlots reports whether seconds (a trip's scheduled start, in local
// seconds-since-midnight) falls within slots. An empty slots list means no
// time-of-day restriction applies.
func inTimeSlots(seconds int32, slots []TimeSlot) bool {
	if len(slots) == 0 {
		return true
	}
	for _, slot := range slots {
		if seconds >= slot.BeginSeconds && seconds < slot.EndSeconds {
			return true
		}
	}
	return false
}

func tripStartSeconds(vj *model.VehicleJourney) int32 {
	if len(vj.StopTimes) == 0 {
		return 0
	}
	board, _ := vj.StopTimes[0].EffectiveTimes()
	return board.TotalSeconds()
}

// opKind is the overlay operation a planned change compiles to.
type opKind int

const (
	opDelete opKind = iota
	opModify
)

// plannedOp is one concrete overlay write: delete or replace the stop times
// of vj on date.
type plannedOp struct {
	vj        model.VJIdx
	date      time.Time
	kind      opKind
	stopTimes []model.StopTime
}

// planImpact compiles one chaos impact into the overlay writes it implies,
// without applying them. NoService resolves trip/stop-point entities into
// per-(vj, date) deletes, honoring any pattern time-slot restriction against
// each trip's scheduled start. Line-section and rail-section entities
// compile into modifies with the affected segment elided, independent of the
// impact's declared effect (the section itself carries the structural
// change). Every other effect (reduced service, detour as a whole-line
// entity, significant delays, ...) touches no overlay state; it is reported
// as advisory only via the unresolved list's reasons when its entities can't
// even be identified.
func planImpact(idx *Index, holidays HolidayChecker, impact Impact) (ops []plannedOp, unresolved []unresolvedEntity) {
	dates := activeDates(impact, idx.Calendar(), holidays)

	var tripEntities []InformedEntity
	for _, e := range impact.InformedEntities {
		switch e.Type {
		case ObjectLineSection, ObjectRailSection:
			isRail := e.Type == ObjectRailSection
			section := e.LineSection
			if isRail {
				section = e.RailSection
			}
			if section == nil {
				unresolved = append(unresolved, unresolvedEntity{e, "section entity is missing its line_section/rail_section body"})
				continue
			}
			trips := resolveSectionTrips(idx, section)
			if len(trips) == 0 {
				unresolved = append(unresolved, unresolvedEntity{e, "no base trip passes through both section endpoints in order"})
				continue
			}
			blocked := blockedStopSet(idx, section, isRail)
			fromIdx, _ := idx.base.Stops.StopPointIdx(model.StopPointId(section.FromStopAreaURI))
			toIdx, _ := idx.base.Stops.StopPointIdx(model.StopPointId(section.ToStopAreaURI))
			for _, vj := range trips {
				base := idx.base.VehicleJourney(vj)
				elided, ok := elideSection(base.StopTimes, fromIdx, toIdx, blocked)
				if !ok {
					continue
				}
				for _, ad := range dates {
					ops = append(ops, plannedOp{vj: vj, date: ad.Date, kind: opModify, stopTimes: elided})
				}
			}
		default:
			tripEntities = append(tripEntities, e)
		}
	}

	if len(tripEntities) == 0 {
		return ops, unresolved
	}

	affected, unres := resolveEntities(idx, tripEntities)
	unresolved = append(unresolved, unres...)
	if impact.Effect != EffectNoService {
		// advisory-only effect: entities are resolved purely so unresolved
		// ones are still reported; no overlay write results.
		return ops, unresolved
	}
	for _, vj := range affected {
		base := idx.base.VehicleJourney(vj)
		start := tripStartSeconds(base)
		for _, ad := range dates {
			if !inTimeSlots(start, ad.Slots) {
				continue
			}
			ops = append(ops, plannedOp{vj: vj, date: ad.Date, kind: opDelete})
		}
	}
	return ops, unresolved
}

// ChaosResult reports what a chaos message's application produced: how many
// (vehicle journey, date) pairs were changed, how many were restored to base
// by a cancellation, and anything that could not be applied, instead of
// aborting the whole disruption on the first failure (mirroring the
// per-update failure isolation a real-time model applies updates with).
type ChaosResult struct {
	DisruptionId    string
	AppliedCount    int
	RestoredCount   int
	UnresolvedCount int
	Errors          []error
}

// ApplyChaos compiles and applies msg's impacts directly against overlay,
// with no memory of what any other disruption previously wrote to the same
// keys. It is the simplified entry point for a single isolated message (and
// for tests); Compiler layers the bookkeeping needed to cancel one
// disruption out of several that touch the same trip on top of this.
func ApplyChaos(overlay *realtime.Store, idx *Index, holidays HolidayChecker, msg ChaosMessage) ChaosResult {
	result := ChaosResult{DisruptionId: msg.DisruptionId}
	for _, impact := range msg.Impacts {
		ops, unresolved := planImpact(idx, holidays, impact)
		result.UnresolvedCount += len(unresolved)
		for _, op := range ops {
			var err error
			switch op.kind {
			case opDelete:
				err = overlay.Delete(msg.DisruptionId, op.vj, op.date)
				if err == realtime.ErrDeleteAbsentTrip {
					// already deleted by an earlier impact or a prior
					// version of this same disruption; not an error.
					err = nil
					continue
				}
			case opModify:
				err = overlay.Modify(msg.DisruptionId, op.vj, op.date, op.stopTimes)
			}
			if err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.AppliedCount++
		}
	}
	return result
}

// WithdrawChaos reverts every trip version msg's impacts would have written,
// restoring each to base. Like ApplyChaos, it knows nothing of any other
// disruption sharing a key; Compiler's cancellation tracks that instead.
func WithdrawChaos(overlay *realtime.Store, idx *Index, holidays HolidayChecker, msg ChaosMessage) {
	for _, impact := range msg.Impacts {
		ops, _ := planImpact(idx, holidays, impact)
		for _, op := range ops {
			overlay.Restore(op.vj, op.date)
		}
	}
}
