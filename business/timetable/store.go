package timetable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

// Location is where a vehicle journey lives in the store: which Mission,
// which of that Mission's (per-timezone) Timetables, and which row. The row
// (VehicleIdx) is refreshed on every insertion or removal that could shift
// it; callers needing a long-lived handle should re-resolve via Locate
// rather than caching a VehicleIdx across mutations.
type Location struct {
	Mission      model.MissionId
	TimetableIdx int
	Vehicle      VehicleIdx
}

// Store is the C4 timetable store together with the C5 vehicle-journey to
// timetable map: every Mission grouping vehicles by stop pattern, and the
// reverse index from VJIdx back to where that vehicle landed.
type Store struct {
	missions     []*Mission
	byPatternKey map[string]model.MissionId
	locations    map[model.VJIdx]Location
}

// NewStore builds an empty timetable store.
func NewStore() *Store {
	return &Store{
		byPatternKey: make(map[string]model.MissionId),
		locations:    make(map[model.VJIdx]Location),
	}
}

// Missions returns every Mission in the store, in creation order.
func (s *Store) Missions() []*Mission { return s.missions }

// MissionAt returns the Mission with the given id.
func (s *Store) MissionAt(id model.MissionId) *Mission { return s.missions[id] }

// Locate returns where vj currently sits in the store.
func (s *Store) Locate(vj model.VJIdx) (Location, bool) {
	loc, ok := s.locations[vj]
	return loc, ok
}

func patternKey(stops []model.StopIdx, flows []model.FlowDirection) string {
	var b strings.Builder
	for _, s := range stops {
		if s.IsNew() {
			b.WriteByte('n')
		} else {
			b.WriteByte('b')
		}
		b.WriteString(strconv.FormatUint(uint64(s.Index()), 10))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, f := range flows {
		b.WriteByte(byte('0' + int(f)))
	}
	return b.String()
}

// Insert groups vj into its Mission (creating one if this is the first
// vehicle with this stop pattern and flow pattern), and inserts it into the
// appropriate per-timezone Timetable. occupancies must have one entry per
// inter-stop leg (len(vj.StopTimes)-1); pass an all-Low slice when no
// occupancy reading is available, since occupancy is an enrichment, not a
// required field.
func (s *Store) Insert(vj *model.VehicleJourney, occupancies []occupancy.Level) error {
	if len(vj.StopTimes) < 2 {
		return model.ErrLessThanTwoStops
	}

	stops := make([]model.StopIdx, len(vj.StopTimes))
	flows := make([]model.FlowDirection, len(vj.StopTimes))
	board := make([]model.SecondsTz, len(vj.StopTimes))
	debark := make([]model.SecondsTz, len(vj.StopTimes))
	for i, st := range vj.StopTimes {
		stops[i] = st.Stop
		flows[i] = st.Flow
		board[i], debark[i] = st.EffectiveTimes()
	}

	key := patternKey(stops, flows)
	missionId, ok := s.byPatternKey[key]
	if !ok {
		missionId = model.MissionId(len(s.missions))
		s.missions = append(s.missions, newMission(missionId, stops, flows))
		s.byPatternKey[key] = missionId
	}
	mission := s.missions[missionId]

	entry := VehicleEntry{VJ: vj.Idx, Service: vj.Service, LocalZone: vj.StopTimes[0].LocalZone}
	timetableIdx, vehicleIdx, err := mission.insert(entry, vj.TimezoneOffsetSeconds, board, debark, occupancies)
	if err != nil {
		return fmt.Errorf("timetable: inserting vehicle journey %q: %w", vj.Id, err)
	}

	s.locations[vj.Idx] = Location{Mission: missionId, TimetableIdx: timetableIdx, Vehicle: vehicleIdx}
	s.reindexMission(missionId, timetableIdx)
	return nil
}

// Remove deletes vj from the store entirely.
func (s *Store) Remove(vj model.VJIdx) error {
	loc, ok := s.locations[vj]
	if !ok {
		return fmt.Errorf("timetable: vehicle journey is not present in the store")
	}
	tt := s.missions[loc.Mission].TimetableAt(loc.TimetableIdx)
	tt.RemoveVehicle(loc.Vehicle)
	delete(s.locations, vj)
	s.reindexMission(loc.Mission, loc.TimetableIdx)
	return nil
}

// reindexMission refreshes the cached Location.Vehicle of every row in the
// given Timetable, since an insertion or removal shifts row indices.
func (s *Store) reindexMission(missionId model.MissionId, timetableIdx int) {
	tt := s.missions[missionId].TimetableAt(timetableIdx)
	for i := 0; i < tt.NbOfVehicles(); i++ {
		vehicle := tt.VehicleAt(VehicleIdx(i))
		s.locations[vehicle.VJ] = Location{Mission: missionId, TimetableIdx: timetableIdx, Vehicle: VehicleIdx(i)}
	}
}
