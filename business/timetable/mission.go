package timetable

import (
	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

// Mission groups every vehicle journey sharing one stop pattern (the same
// sequence of stops with the same boarding/debarking flows). A Mission holds
// one Timetable per distinct timezone offset among its vehicles: two trips
// in different timezones are never comparable under the product order, so
// they can never share a single sorted Timetable.
type Mission struct {
	id    model.MissionId
	stops []model.StopIdx
	flows []model.FlowDirection

	timetables []*Timetable
}

func newMission(id model.MissionId, stops []model.StopIdx, flows []model.FlowDirection) *Mission {
	return &Mission{id: id, stops: stops, flows: flows}
}

// Id returns the Mission's identity within its TimetableStore.
func (m *Mission) Id() model.MissionId { return m.id }

// Stops returns the Mission's stop pattern.
func (m *Mission) Stops() []model.StopIdx { return m.stops }

// Timetables returns every per-timezone Timetable belonging to this Mission.
func (m *Mission) Timetables() []*Timetable { return m.timetables }

// TimetableAt returns the Timetable at index i (stable once created).
func (m *Mission) TimetableAt(i int) *Timetable { return m.timetables[i] }

// insert places vehicle into the Timetable for timezoneOffsetSeconds,
// creating one if none of the existing Timetables accept it. A Timetable
// accepts a vehicle when it shares its timezone and the candidate's times
// are comparable (in the product order sense) with every existing row.
func (m *Mission) insert(vehicle VehicleEntry, timezoneOffsetSeconds int32, board, debark []model.SecondsTz, occ []occupancy.Level) (int, VehicleIdx, error) {
	for i, tt := range m.timetables {
		if tt.TimezoneOffsetSeconds() != timezoneOffsetSeconds {
			continue
		}
		inserted, err := tt.TryInsert(vehicle, board, debark, occ)
		if err != nil {
			return 0, 0, err
		}
		if inserted {
			idx, _ := tt.FindVehicle(vehicle.VJ)
			return i, idx, nil
		}
	}

	newTT := NewTimetable(m.stops, m.flows, timezoneOffsetSeconds)
	inserted, err := newTT.TryInsert(vehicle, board, debark, occ)
	if err != nil {
		return 0, 0, err
	}
	if !inserted {
		panic("timetable: a fresh empty Timetable must always accept its first vehicle")
	}
	m.timetables = append(m.timetables, newTT)
	idx, _ := newTT.FindVehicle(vehicle.VJ)
	return len(m.timetables) - 1, idx, nil
}
