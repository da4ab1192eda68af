// Package solver implements the round-based, multi-criteria journey search
// (C8) over a loaded base model, optionally filtered and overridden by a
// real-time overlay snapshot.
package solver

import (
	"fmt"
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
	"github.com/transitcore/pathfinder/business/realtime"
	"github.com/transitcore/pathfinder/business/timetable"
)

// Mission identifies a group of vehicles sharing a stop pattern.
type Mission = model.MissionId

// Position indexes a stop within a Mission's pattern.
type Position = timetable.Position

// Stop identifies a boardable/debarkable location.
type Stop = model.StopIdx

// Trip is one running instance of a vehicle journey: the VJIdx together with
// the calendar date it runs on. A VJIdx alone is ambiguous across days; a
// Trip is not.
type Trip struct {
	VJ   model.VJIdx
	Date time.Time
}

// boardableAt pairs a Mission with the Position at which a particular stop
// can be boarded.
type boardableAt struct {
	Mission  Mission
	Position Position
}

// Data is the read-only view the RAPTOR engine queries: either the Base view
// (schedule only) or the RealTime view (schedule plus whatever overlay
// snapshot a request was handed at the start of its query, so the view
// never changes mid-search even if a writer publishes a new overlay
// concurrently).
//
// Real-time trips wholly introduced by a disruption (never part of the
// loaded base schedule) are visible to this view only once the ingest layer
// has also registered them in the timetable store: this view filters and
// overrides existing Missions' rows, it does not synthesize new ones
// mid-query.
type Data struct {
	base  *model.BaseModel
	store *timetable.Store

	// overlay is nil for the Base view.
	overlay *realtime.Overlay

	boardableByStop map[Stop][]boardableAt
}

// NewBaseData builds a Data view consulting only the loaded schedule.
func NewBaseData(base *model.BaseModel, store *timetable.Store) *Data {
	return newData(base, store, nil)
}

// NewRealTimeData builds a Data view layering overlay on top of the loaded
// schedule. Callers should take a fresh overlay.Store.Snapshot() once at the
// start of a query and pass it here, not re-fetch it mid-search.
func NewRealTimeData(base *model.BaseModel, store *timetable.Store, overlay *realtime.Overlay) *Data {
	return newData(base, store, overlay)
}

func newData(base *model.BaseModel, store *timetable.Store, overlay *realtime.Overlay) *Data {
	d := &Data{base: base, store: store, overlay: overlay, boardableByStop: make(map[Stop][]boardableAt)}
	for _, mission := range store.Missions() {
		for position, stop := range mission.Stops() {
			if !boardableFlow(mission, timetable.Position(position)) {
				continue
			}
			d.boardableByStop[stop] = append(d.boardableByStop[stop], boardableAt{Mission: mission.Id(), Position: timetable.Position(position)})
		}
	}
	return d
}

func boardableFlow(mission *timetable.Mission, position timetable.Position) bool {
	for _, tt := range mission.Timetables() {
		if tt.CanBoard(position) {
			return true
		}
	}
	return false
}

// MissionsAtStop returns every (Mission, Position) pair at which stop can be
// boarded.
func (d *Data) MissionsAtStop(stop Stop) []boardableAt { return d.boardableByStop[stop] }

// IsUpstream reports whether a occurs strictly before b in mission's order.
func (d *Data) IsUpstream(mission Mission, a, b Position) bool { return a < b }

// FirstOnMission returns mission's first position.
func (d *Data) FirstOnMission(mission Mission) Position { return 0 }

// LastOnMission returns mission's last position.
func (d *Data) LastOnMission(mission Mission) Position {
	return Position(len(d.store.MissionAt(mission).Stops()) - 1)
}

// NextOnMission returns the position after p, if any.
func (d *Data) NextOnMission(mission Mission, p Position) (Position, bool) {
	if int(p)+1 >= len(d.store.MissionAt(mission).Stops()) {
		return 0, false
	}
	return p + 1, true
}

// PreviousOnMission returns the position before p, if any.
func (d *Data) PreviousOnMission(mission Mission, p Position) (Position, bool) {
	if p == 0 {
		return 0, false
	}
	return p - 1, true
}

// StopOf returns the stop at position within mission.
func (d *Data) StopOf(mission Mission, position Position) Stop {
	return d.store.MissionAt(mission).Stops()[position]
}

// MissionOf returns the Mission a trip's vehicle journey belongs to.
func (d *Data) MissionOf(trip Trip) (Mission, bool) {
	loc, ok := d.store.Locate(trip.VJ)
	if !ok {
		return 0, false
	}
	return loc.Mission, true
}

func (d *Data) locate(trip Trip) (*timetable.Timetable, timetable.VehicleIdx, bool) {
	loc, ok := d.store.Locate(trip.VJ)
	if !ok {
		return nil, 0, false
	}
	mission := d.store.MissionAt(loc.Mission)
	return mission.TimetableAt(loc.TimetableIdx), loc.Vehicle, true
}

// present reports whether trip actually runs: base calendar membership,
// overridden by any overlay entry (an overlay Add/Modify makes a trip
// present regardless of the base calendar; an overlay Delete makes it
// absent regardless of the base calendar).
func (d *Data) present(trip Trip, service model.DaysPatternId) bool {
	day, err := d.base.Calendar.OffsetOf(trip.Date)
	if err != nil {
		return false
	}
	baseRuns := d.base.Days.Contains(service, day)
	if d.overlay == nil {
		return baseRuns
	}
	if _, overridden := d.overlay.StopTimesOverride(trip.VJ, trip.Date); overridden {
		return true
	}
	return baseRuns && d.overlay.IsPresent(trip.VJ, trip.Date)
}

// IsPresent reports whether trip runs at all (schedule and, for the
// RealTime view, overlay combined).
func (d *Data) IsPresent(trip Trip) bool {
	tt, vehicle, ok := d.locate(trip)
	if !ok {
		return false
	}
	return d.present(trip, tt.VehicleAt(vehicle).Service)
}

// overrideStopTimes returns the overlay's stop times for trip, if any.
func (d *Data) overrideStopTimes(trip Trip) ([]model.StopTime, bool) {
	if d.overlay == nil {
		return nil, false
	}
	return d.overlay.StopTimesOverride(trip.VJ, trip.Date)
}

func (d *Data) dayOf(trip Trip) (model.DayOffset, error) {
	return d.base.Calendar.OffsetOf(trip.Date)
}

// BoardTimeOf returns the instant at which trip can be boarded at position,
// or ok=false if the position is not boardable for this trip.
func (d *Data) BoardTimeOf(trip Trip, position Position) (model.Instant, bool) {
	tt, vehicle, ok := d.locate(trip)
	if !ok {
		return model.Instant{}, false
	}
	day, err := d.dayOf(trip)
	if err != nil {
		return model.Instant{}, false
	}
	if override, has := d.overrideStopTimes(trip); has {
		if int(position) >= len(override) || !override[position].Flow.CanBoard() {
			return model.Instant{}, false
		}
		board, _ := override[position].EffectiveTimes()
		instant, err := d.instantOf(board, day, tt.TimezoneOffsetSeconds())
		return instant, err == nil
	}
	secTz, canBoard := tt.BoardTime(vehicle, position)
	if !canBoard {
		return model.Instant{}, false
	}
	instant, err := d.instantOf(secTz, day, tt.TimezoneOffsetSeconds())
	return instant, err == nil
}

// DebarkTimeOf returns the instant at which trip can be debarked at
// position, or ok=false if the position is not debarkable for this trip.
func (d *Data) DebarkTimeOf(trip Trip, position Position) (model.Instant, bool) {
	tt, vehicle, ok := d.locate(trip)
	if !ok {
		return model.Instant{}, false
	}
	day, err := d.dayOf(trip)
	if err != nil {
		return model.Instant{}, false
	}
	if override, has := d.overrideStopTimes(trip); has {
		if int(position) >= len(override) || !override[position].Flow.CanDebark() {
			return model.Instant{}, false
		}
		_, debark := override[position].EffectiveTimes()
		instant, err := d.instantOf(debark, day, tt.TimezoneOffsetSeconds())
		return instant, err == nil
	}
	secTz, canDebark := tt.DebarkTime(vehicle, position)
	if !canDebark {
		return model.Instant{}, false
	}
	instant, err := d.instantOf(secTz, day, tt.TimezoneOffsetSeconds())
	return instant, err == nil
}

// ArrivalTimeOf returns the instant trip arrives at position, regardless of
// whether the position is debarkable.
func (d *Data) ArrivalTimeOf(trip Trip, position Position) (model.Instant, error) {
	tt, vehicle, ok := d.locate(trip)
	if !ok {
		return model.Instant{}, fmt.Errorf("solver: trip is not located in the timetable store")
	}
	day, err := d.dayOf(trip)
	if err != nil {
		return model.Instant{}, err
	}
	if override, has := d.overrideStopTimes(trip); has && int(position) < len(override) {
		_, debark := override[position].EffectiveTimes()
		return d.instantOf(debark, day, tt.TimezoneOffsetSeconds())
	}
	return d.instantOf(tt.ArrivalTime(vehicle, position), day, tt.TimezoneOffsetSeconds())
}

// DepartureTimeOf returns the instant trip departs position.
func (d *Data) DepartureTimeOf(trip Trip, position Position) (model.Instant, error) {
	tt, vehicle, ok := d.locate(trip)
	if !ok {
		return model.Instant{}, fmt.Errorf("solver: trip is not located in the timetable store")
	}
	day, err := d.dayOf(trip)
	if err != nil {
		return model.Instant{}, err
	}
	if override, has := d.overrideStopTimes(trip); has && int(position) < len(override) {
		board, _ := override[position].EffectiveTimes()
		return d.instantOf(board, day, tt.TimezoneOffsetSeconds())
	}
	return d.instantOf(tt.DepartureTime(vehicle, position), day, tt.TimezoneOffsetSeconds())
}

// OccupancyBefore returns the occupancy level of trip's leg arriving at
// position.
func (d *Data) OccupancyBefore(trip Trip, position Position) occupancy.Level {
	tt, vehicle, ok := d.locate(trip)
	if !ok || position == 0 {
		return occupancy.Low
	}
	return tt.OccupancyBefore(vehicle, position)
}

// OccupancyAfter returns the occupancy level of trip's leg departing
// position.
func (d *Data) OccupancyAfter(trip Trip, position Position) occupancy.Level {
	tt, vehicle, ok := d.locate(trip)
	if !ok {
		return occupancy.Low
	}
	return tt.OccupancyAfter(vehicle, position)
}

// TransfersFrom returns every walking transfer departing stop.
func (d *Data) TransfersFrom(stop Stop) []model.OutgoingTransfer {
	return d.base.Transfers.OutgoingTransfersAt(stop)
}

// TransfersTo returns every walking transfer arriving at stop, used by the
// arrival-direction (backward) search.
func (d *Data) TransfersTo(stop Stop) []model.IncomingTransfer {
	return d.base.Transfers.IncomingTransfersAt(stop)
}

// StayInNext returns the trip continuing trip's physical vehicle forward, if
// any, present on the same date.
func (d *Data) StayInNext(trip Trip) (Trip, bool) {
	vj := d.base.VehicleJourney(trip.VJ)
	if vj == nil {
		return Trip{}, false
	}
	day, err := d.dayOf(trip)
	if err != nil {
		return Trip{}, false
	}
	nextIdx, ok := d.base.StayIns.Next(d.base, vj, day, d.base.Days)
	if !ok {
		return Trip{}, false
	}
	next := Trip{VJ: nextIdx, Date: trip.Date}
	if !d.IsPresent(next) {
		return Trip{}, false
	}
	return next, true
}

// StayInPrevious returns the trip preceding trip on its physical vehicle, if
// any, present on the same date.
func (d *Data) StayInPrevious(trip Trip) (Trip, bool) {
	vj := d.base.VehicleJourney(trip.VJ)
	if vj == nil {
		return Trip{}, false
	}
	day, err := d.dayOf(trip)
	if err != nil {
		return Trip{}, false
	}
	prevIdx, ok := d.base.StayIns.Previous(d.base, vj, day, d.base.Days)
	if !ok {
		return Trip{}, false
	}
	prev := Trip{VJ: prevIdx, Date: trip.Date}
	if !d.IsPresent(prev) {
		return Trip{}, false
	}
	return prev, true
}

const secondsInADay = 24 * 60 * 60

// localSecondsTz converts a global Instant into the SecondsTz representation
// it would have if anchored on day within a timezone offset of
// utcMinusLocalSeconds, failing if the result falls outside the +/-48h
// timezoned range a Timetable's columns are stored in.
func localSecondsTz(instant model.Instant, day model.DayOffset, utcMinusLocalSeconds int32) (model.SecondsTz, error) {
	utcSinceDayStart := int64(instant.TotalSeconds()) - int64(day)*secondsInADay
	local := utcSinceDayStart - int64(utcMinusLocalSeconds)
	if local < -1<<31 || local > 1<<31-1 {
		return model.SecondsTz{}, fmt.Errorf("solver: local time out of range")
	}
	return model.NewSecondsTz(int32(local))
}

func (d *Data) instantOf(secTz model.SecondsTz, day model.DayOffset, utcMinusLocalSeconds int32) (model.Instant, error) {
	utc, err := secTz.ToUTC(utcMinusLocalSeconds)
	if err != nil {
		return model.Instant{}, err
	}
	return model.NewInstant(day, utc)
}

// dayCandidates returns the small window of day buckets worth searching
// around the calendar day containing instant: a Timetable's +/-48h stored
// range means a boardable/debarkable vehicle for "now" can be filed under
// the previous day bucket, the current one, or one of the next two (a
// negative stop time down to -48h lands two days before its bucket).
func dayCandidates(instant model.Instant) []model.DayOffset {
	day, _ := instant.DayAndSeconds()
	candidates := []model.DayOffset{day, day + 1, day + 2}
	if day > 0 {
		candidates = append([]model.DayOffset{day - 1}, candidates...)
	}
	return candidates
}

// EarliestTripToBoard returns the earliest trip of mission boardable at
// position no earlier than waitingTime, for which filter returns true.
func (d *Data) EarliestTripToBoard(waitingTime model.Instant, mission Mission, position Position, filter func(model.VJIdx) bool) (Trip, model.Instant, occupancy.Level, bool) {
	calendar := d.base.Calendar
	m := d.store.MissionAt(mission)

	var bestTrip Trip
	var bestInstant model.Instant
	var bestOcc occupancy.Level
	found := false

	for _, day := range dayCandidates(waitingTime) {
		date, err := calendar.DateOf(day)
		if err != nil {
			continue
		}
		for _, tt := range m.Timetables() {
			local, err := localSecondsTz(waitingTime, day, tt.TimezoneOffsetSeconds())
			if err != nil {
				continue
			}
			vehicleIdx, ok := tt.EarliestVehicleToBoard(local, position, func(ve timetable.VehicleEntry) bool {
				if filter != nil && !filter(ve.VJ) {
					return false
				}
				return d.present(Trip{VJ: ve.VJ, Date: date}, ve.Service)
			})
			if !ok {
				continue
			}
			entry := tt.VehicleAt(vehicleIdx)
			trip := Trip{VJ: entry.VJ, Date: date}
			secTz, _ := tt.BoardTime(vehicleIdx, position)
			instant, err := d.instantOf(secTz, day, tt.TimezoneOffsetSeconds())
			if err != nil || instant.Before(waitingTime) {
				continue
			}
			if !found || instant.Before(bestInstant) {
				bestTrip, bestInstant, bestOcc, found = trip, instant, tt.OccupancyAfter(vehicleIdx, position), true
			}
		}
	}
	return bestTrip, bestInstant, bestOcc, found
}

// LatestTripThatDebark returns the latest trip of mission debarkable at
// position no later than waitingTime, for which filter returns true. Used by
// the arrival-direction (backward) search.
func (d *Data) LatestTripThatDebark(waitingTime model.Instant, mission Mission, position Position, filter func(model.VJIdx) bool) (Trip, model.Instant, occupancy.Level, bool) {
	calendar := d.base.Calendar
	m := d.store.MissionAt(mission)

	var bestTrip Trip
	var bestInstant model.Instant
	var bestOcc occupancy.Level
	found := false

	for _, day := range dayCandidates(waitingTime) {
		date, err := calendar.DateOf(day)
		if err != nil {
			continue
		}
		for _, tt := range m.Timetables() {
			local, err := localSecondsTz(waitingTime, day, tt.TimezoneOffsetSeconds())
			if err != nil {
				continue
			}
			vehicleIdx, ok := tt.LatestVehicleThatDebark(local, position, func(ve timetable.VehicleEntry) bool {
				if filter != nil && !filter(ve.VJ) {
					return false
				}
				return d.present(Trip{VJ: ve.VJ, Date: date}, ve.Service)
			})
			if !ok {
				continue
			}
			entry := tt.VehicleAt(vehicleIdx)
			trip := Trip{VJ: entry.VJ, Date: date}
			secTz, _ := tt.DebarkTime(vehicleIdx, position)
			instant, err := d.instantOf(secTz, day, tt.TimezoneOffsetSeconds())
			if err != nil || instant.After(waitingTime) {
				continue
			}
			if !found || instant.After(bestInstant) {
				bestTrip, bestInstant, bestOcc, found = trip, instant, tt.OccupancyBefore(vehicleIdx, position), true
			}
		}
	}
	return bestTrip, bestInstant, bestOcc, found
}

// NbOfStops returns an upper bound on the total number of stops.
func (d *Data) NbOfStops() int { return d.base.Stops.Len() }

// StopId returns a dense index for stop, 0 <= id < NbOfStops().
func (d *Data) StopId(stop Stop) int {
	if stop.IsNew() {
		return d.base.Stops.Len() // placed beyond the base range; new stops are out of the RAPTOR loop's dense arrays scope
	}
	return int(stop.Index())
}
