package disruption

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/realtime"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 15, 0, 0, 0, time.UTC)
}

func buildCompiler(t *testing.T) (*Compiler, *realtime.Store, model.VJIdx) {
	t.Helper()
	base, store := buildBase(t)
	idx := NewIndex(base, store)
	overlay := realtime.NewStore(base)
	compiler := NewCompiler(overlay, idx, nil)
	return compiler, overlay, model.NewBaseVJIdx(0)
}

func chaosDeleteTrip(disruptionId string, vjExternalId string) ChaosMessage {
	return ChaosMessage{
		DisruptionId: disruptionId,
		Impacts: []Impact{
			{
				Id:     "impact-1",
				Effect: EffectNoService,
				InformedEntities: []InformedEntity{
					{Type: ObjectVehicleJourney, URI: vjExternalId},
				},
				ApplicationPeriods: []ApplicationPeriod{
					{Begin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
				},
			},
		},
	}
}

func TestCompilerApplyChaosDeletesTrip(t *testing.T) {
	is := is.New(t)
	compiler, overlay, vj := buildCompiler(t)

	result := compiler.ApplyChaos(chaosDeleteTrip("d1", "vj:1"))
	is.Equal(result.UnresolvedCount, 0)
	is.True(result.AppliedCount > 0)
	is.Equal(len(result.Errors), 0)

	is.True(!overlay.IsPresent(vj, day(1)))
	is.True(!overlay.IsPresent(vj, day(2)))
}

func TestCompilerCancelChaosRestores(t *testing.T) {
	is := is.New(t)
	compiler, overlay, vj := buildCompiler(t)

	compiler.ApplyChaos(chaosDeleteTrip("d1", "vj:1"))
	is.True(!overlay.IsPresent(vj, day(1)))

	result := compiler.CancelChaos("d1")
	is.True(result.RestoredCount > 0)
	is.True(overlay.IsPresent(vj, day(1)))
}

func TestCompilerCancelIsDeletedFlagEquivalentToCancelChaos(t *testing.T) {
	is := is.New(t)
	compiler, overlay, vj := buildCompiler(t)

	compiler.ApplyChaos(chaosDeleteTrip("d1", "vj:1"))
	is.True(!overlay.IsPresent(vj, day(1)))

	msg := chaosDeleteTrip("d1", "vj:1")
	msg.IsDeleted = true
	result := compiler.ApplyChaos(msg)
	is.True(result.RestoredCount > 0)
	is.True(overlay.IsPresent(vj, day(1)))
}

func TestCompilerTwoDisruptionsSameKeyReapplyOnCancel(t *testing.T) {
	is := is.New(t)
	compiler, overlay, vj := buildCompiler(t)

	compiler.ApplyChaos(chaosDeleteTrip("d1", "vj:1"))
	compiler.ApplyChaos(chaosDeleteTrip("d2", "vj:1"))
	is.True(!overlay.IsPresent(vj, day(1)))

	// cancelling the older disruption leaves the newer one's effect in place
	compiler.CancelChaos("d1")
	is.True(!overlay.IsPresent(vj, day(1)))

	compiler.CancelChaos("d2")
	is.True(overlay.IsPresent(vj, day(1)))
}

func TestCompilerApplyKirinAddsDeletedTripBack(t *testing.T) {
	is := is.New(t)
	compiler, overlay, vj := buildCompiler(t)

	compiler.ApplyChaos(chaosDeleteTrip("chaos-del", "vj:1"))
	is.True(!overlay.IsPresent(vj, day(1)))

	kirinMsg := KirinMessage{
		DisruptionId:     "kirin-1",
		VehicleJourneyId: "vj:1",
		ReferenceDate:    day(1),
		StopTimes: []WireStopTime{
			{StopId: "sp:a", DepartureTime: 0, ArrivalTime: 0, Flow: FlowBoardOnly},
			{StopId: "sp:b", DepartureTime: 700, ArrivalTime: 700, Flow: FlowDebarkOnly},
		},
		ReceivedAt: time.Unix(100, 0),
	}
	err := compiler.ApplyKirin(kirinMsg)
	is.NoErr(err)
	is.True(overlay.IsPresent(vj, day(1))) // kirin adds the trip back with its own stop times

	id, ok := compiler.LastDisruptionFor(realtime.NewKey(vj, day(1)))
	is.True(ok)
	is.Equal(id, "kirin-1")
}

func TestCompilerApplyKirinOlderMessageIgnored(t *testing.T) {
	is := is.New(t)
	compiler, overlay, vj := buildCompiler(t)

	newer := KirinMessage{
		DisruptionId:     "kirin-new",
		VehicleJourneyId: "vj:1",
		ReferenceDate:    day(1),
		Cancelled:        true,
		ReceivedAt:       time.Unix(200, 0),
	}
	is.NoErr(compiler.ApplyKirin(newer))
	is.True(!overlay.IsPresent(vj, day(1)))

	older := KirinMessage{
		DisruptionId:     "kirin-old",
		VehicleJourneyId: "vj:1",
		ReferenceDate:    day(1),
		Cancelled:        false,
		StopTimes: []WireStopTime{
			{StopId: "sp:a", DepartureTime: 0, ArrivalTime: 0, Flow: FlowBoardOnly},
			{StopId: "sp:b", DepartureTime: 700, ArrivalTime: 700, Flow: FlowDebarkOnly},
		},
		ReceivedAt: time.Unix(100, 0),
	}
	is.NoErr(compiler.ApplyKirin(older))
	is.True(!overlay.IsPresent(vj, day(1))) // superseded message never applied

	id, _ := compiler.LastDisruptionFor(realtime.NewKey(vj, day(1)))
	is.Equal(id, "kirin-new")
}

func TestCompilerApplyKirinUnknownVehicleJourneyFails(t *testing.T) {
	is := is.New(t)
	compiler, _, _ := buildCompiler(t)

	err := compiler.ApplyKirin(KirinMessage{VehicleJourneyId: "nope", ReferenceDate: day(1)})
	is.True(err != nil)
}
