package disruption

import (
	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/timetable"
)

// Index resolves a disruption message's wire-level identities (external
// vehicle journey ids, stop point ids) to the VJIdx values the real-time
// overlay operates on. It is read-only: it never mutates the base model or
// the timetable store it wraps.
type Index struct {
	base  *model.BaseModel
	store *timetable.Store

	byExternalId map[string]model.VJIdx
}

// NewIndex builds an Index over a loaded base model and its timetable store.
func NewIndex(base *model.BaseModel, store *timetable.Store) *Index {
	idx := &Index{base: base, store: store, byExternalId: make(map[string]model.VJIdx)}
	for _, vj := range base.VehicleJourneys() {
		idx.byExternalId[vj.Id] = vj.Idx
	}
	return idx
}

// Calendar returns the base model's calendar, bounding how far application
// periods can be expanded.
func (idx *Index) Calendar() *model.Calendar { return idx.base.Calendar }

// VehicleJourneyByExternalId resolves a wire-level vehicle journey id (a
// "trip" informed entity's URI, or a kirin message's VehicleJourneyId) to its
// VJIdx.
func (idx *Index) VehicleJourneyByExternalId(id string) (model.VJIdx, bool) {
	vjIdx, ok := idx.byExternalId[id]
	return vjIdx, ok
}

// VehicleJourneysAtStopPoint returns the VJIdx of every vehicle journey whose
// stop pattern includes stopPointId, resolved by scanning every Mission for
// one that visits the stop and collecting every vehicle row of every
// Timetable belonging to it.
func (idx *Index) VehicleJourneysAtStopPoint(stopPointId model.StopPointId) []model.VJIdx {
	stopIdx, ok := idx.base.Stops.StopPointIdx(stopPointId)
	if !ok {
		return nil
	}

	var result []model.VJIdx
	for _, mission := range idx.store.Missions() {
		visits := false
		for _, s := range mission.Stops() {
			if s == stopIdx {
				visits = true
				break
			}
		}
		if !visits {
			continue
		}
		for _, tt := range mission.Timetables() {
			for i := 0; i < tt.NbOfVehicles(); i++ {
				result = append(result, tt.VehicleAt(timetable.VehicleIdx(i)).VJ)
			}
		}
	}
	return result
}
