package timetable

import (
	"testing"

	"github.com/matryer/is"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

func mustTz(seconds int32) model.SecondsTz {
	s, err := model.NewSecondsTz(seconds)
	if err != nil {
		panic(err)
	}
	return s
}

func stopTimes(boards ...int32) []model.StopTime {
	out := make([]model.StopTime, len(boards))
	for i, b := range boards {
		flow := model.BoardAndDebark
		if i == 0 {
			flow = model.BoardOnly
		} else if i == len(boards)-1 {
			flow = model.DebarkOnly
		}
		out[i] = model.StopTime{
			Stop:       model.NewBaseStopIdx(uint32(i)),
			BoardTime:  mustTz(b),
			DebarkTime: mustTz(b),
			Flow:       flow,
		}
	}
	return out
}

func vj(idx uint32, boards ...int32) *model.VehicleJourney {
	return &model.VehicleJourney{
		Idx:       model.NewBaseVJIdx(idx),
		Id:        "vj",
		StopTimes: stopTimes(boards...),
	}
}

func flatOccupancies(n int) []occupancy.Level {
	return make([]occupancy.Level, n)
}

func TestStoreInsertGroupsByStopPattern(t *testing.T) {
	is := is.New(t)
	store := NewStore()

	first := vj(0, 0, 600, 1200)
	is.NoErr(store.Insert(first, flatOccupancies(2)))

	second := vj(1, 60, 660, 1260)
	is.NoErr(store.Insert(second, flatOccupancies(2)))

	is.Equal(len(store.Missions()), 1) // identical stop pattern shares one mission

	loc1, ok := store.Locate(first.Idx)
	is.True(ok)
	loc2, ok := store.Locate(second.Idx)
	is.True(ok)
	is.Equal(loc1.Mission, loc2.Mission)

	mission := store.MissionAt(loc1.Mission)
	is.Equal(len(mission.Timetables()), 1)
	is.Equal(mission.TimetableAt(0).NbOfVehicles(), 2)
}

func TestStoreInsertRejectsTooFewStops(t *testing.T) {
	is := is.New(t)
	store := NewStore()

	lone := &model.VehicleJourney{
		Idx: model.NewBaseVJIdx(0),
		StopTimes: []model.StopTime{
			{Stop: model.NewBaseStopIdx(0), Flow: model.BoardAndDebark},
		},
	}
	err := store.Insert(lone, nil)
	is.True(err != nil)
}

func TestStoreVehiclesSortedByBoardTime(t *testing.T) {
	is := is.New(t)
	store := NewStore()

	later := vj(0, 600, 1200, 1800)
	earlier := vj(1, 0, 600, 1200)

	is.NoErr(store.Insert(later, flatOccupancies(2)))
	is.NoErr(store.Insert(earlier, flatOccupancies(2)))

	locLater, _ := store.Locate(later.Idx)
	locEarlier, _ := store.Locate(earlier.Idx)

	is.True(locEarlier.Vehicle < locLater.Vehicle)
}

func TestStoreRemove(t *testing.T) {
	is := is.New(t)
	store := NewStore()

	a := vj(0, 0, 600, 1200)
	b := vj(1, 60, 660, 1260)
	is.NoErr(store.Insert(a, flatOccupancies(2)))
	is.NoErr(store.Insert(b, flatOccupancies(2)))

	is.NoErr(store.Remove(a.Idx))

	_, ok := store.Locate(a.Idx)
	is.True(!ok)

	locB, ok := store.Locate(b.Idx)
	is.True(ok)
	is.Equal(locB.Vehicle, VehicleIdx(0)) // reindexed after removal of the earlier row

	err := store.Remove(a.Idx)
	is.True(err != nil)
}

func TestStoreDistinctStopPatternsGetDistinctMissions(t *testing.T) {
	is := is.New(t)
	store := NewStore()

	threeStop := vj(0, 0, 600, 1200)
	twoStopOnly := &model.VehicleJourney{
		Idx: model.NewBaseVJIdx(1),
		StopTimes: []model.StopTime{
			{Stop: model.NewBaseStopIdx(0), BoardTime: mustTz(0), DebarkTime: mustTz(0), Flow: model.BoardOnly},
			{Stop: model.NewBaseStopIdx(1), BoardTime: mustTz(600), DebarkTime: mustTz(600), Flow: model.DebarkOnly},
		},
	}

	is.NoErr(store.Insert(threeStop, flatOccupancies(2)))
	is.NoErr(store.Insert(twoStopOnly, flatOccupancies(1)))

	is.Equal(len(store.Missions()), 2)
}
