package realtime

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/transitcore/pathfinder/business/data/model"
)

type fakeBase struct {
	scheduled map[model.VJIdx]bool
}

func (f fakeBase) IsScheduledInBase(vj model.VJIdx, date time.Time) bool {
	return f.scheduled[vj]
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 15, 0, 0, 0, time.UTC)
}

func someStopTimes() []model.StopTime {
	tzv, _ := model.NewSecondsTz(0)
	tzv2, _ := model.NewSecondsTz(600)
	return []model.StopTime{
		{Stop: model.NewBaseStopIdx(0), BoardTime: tzv, DebarkTime: tzv, Flow: model.BoardOnly},
		{Stop: model.NewBaseStopIdx(1), BoardTime: tzv2, DebarkTime: tzv2, Flow: model.DebarkOnly},
	}
}

func TestStoreIsPresentFallsBackToBase(t *testing.T) {
	is := is.New(t)
	vj := model.NewBaseVJIdx(1)
	base := fakeBase{scheduled: map[model.VJIdx]bool{vj: true}}
	store := NewStore(base)

	is.True(store.IsPresent(vj, day(1))) // no override recorded, falls back to base

	other := model.NewBaseVJIdx(2)
	is.True(!store.IsPresent(other, day(1)))
}

func TestStoreDeleteThenRestore(t *testing.T) {
	is := is.New(t)
	vj := model.NewBaseVJIdx(1)
	base := fakeBase{scheduled: map[model.VJIdx]bool{vj: true}}
	store := NewStore(base)

	is.NoErr(store.Delete("disruption-1", vj, day(1)))
	is.True(!store.IsPresent(vj, day(1)))

	// deleting an already-deleted trip fails
	err := store.Delete("disruption-1", vj, day(1))
	is.True(err != nil)

	store.Restore(vj, day(1))
	is.True(store.IsPresent(vj, day(1))) // restored, falls back to base again
}

func TestStoreAddAndModify(t *testing.T) {
	is := is.New(t)
	vj := model.NewBaseVJIdx(1)
	base := fakeBase{scheduled: map[model.VJIdx]bool{}}
	store := NewStore(base)

	err := store.Add("d1", vj, day(1), someStopTimes())
	is.NoErr(err)
	is.True(store.IsPresent(vj, day(1)))

	// adding an already-present trip fails
	err = store.Add("d1", vj, day(1), someStopTimes())
	is.True(err != nil)

	snap := store.Snapshot()
	_, ok := snap.StopTimesOverride(vj, day(1))
	is.True(ok)

	err = store.Modify("d2", vj, day(1), someStopTimes())
	is.NoErr(err)

	id, ok := store.Snapshot().DisruptionIdAt(vj, day(1))
	is.True(ok)
	is.Equal(id, "d2")
}

func TestStoreModifyAbsentTripFails(t *testing.T) {
	is := is.New(t)
	vj := model.NewBaseVJIdx(1)
	base := fakeBase{scheduled: map[model.VJIdx]bool{}}
	store := NewStore(base)

	err := store.Modify("d1", vj, day(1), someStopTimes())
	is.True(err != nil)
}

func TestSnapshotIsolationAcrossWrites(t *testing.T) {
	is := is.New(t)
	vj := model.NewBaseVJIdx(1)
	base := fakeBase{scheduled: map[model.VJIdx]bool{vj: true}}
	store := NewStore(base)

	held := store.Snapshot()
	is.True(held.IsPresent(vj, day(1)))

	is.NoErr(store.Delete("d1", vj, day(1)))

	// a snapshot taken before the write never observes it
	is.True(held.IsPresent(vj, day(1)))
	is.True(!store.Snapshot().IsPresent(vj, day(1)))
}

func TestDifferentDatesAreIndependent(t *testing.T) {
	is := is.New(t)
	vj := model.NewBaseVJIdx(1)
	base := fakeBase{scheduled: map[model.VJIdx]bool{vj: true}}
	store := NewStore(base)

	is.NoErr(store.Delete("d1", vj, day(1)))
	is.True(!store.IsPresent(vj, day(1)))
	is.True(store.IsPresent(vj, day(2)))
}
