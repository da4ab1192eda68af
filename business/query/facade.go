// Package query is the journey-planning facade (C9): it resolves a
// request's stop-point URIs against a loaded base model, dispatches to the
// C8 solver, and packages the resulting labels into rider-facing journeys.
package query

import (
	"context"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/realtime"
	"github.com/transitcore/pathfinder/business/solver"
	"github.com/transitcore/pathfinder/business/timetable"
)

// View selects which C6 real-time view a request is evaluated against.
type View int

const (
	// Base consults only the loaded schedule, ignoring any disruption.
	Base View = iota
	// RealTime layers the current overlay snapshot over the schedule.
	RealTime
)

// Solve resolves req against base/store under the requested view (taking a
// single realtime.Overlay snapshot up front when view is RealTime, so the
// search never observes a writer's concurrent update mid-query) and returns
// the Pareto-optimal journeys it finds.
func Solve(ctx context.Context, base *model.BaseModel, store *timetable.Store, overlayStore *realtime.Store, view View, req Request) Response {
	r, err := resolve(base, req)
	if err != nil {
		return errorResponse(err)
	}

	var data *solver.Data
	var overlay *realtime.Overlay
	if view == RealTime && overlayStore != nil {
		overlay = overlayStore.Snapshot()
		data = solver.NewRealTimeData(base, store, overlay)
	} else {
		data = solver.NewBaseData(base, store)
	}

	var result solver.Result
	if r.backward {
		result = solver.SolveArrival(ctx, data, r.solverReq)
	} else {
		result = solver.Solve(ctx, data, r.solverReq)
	}

	if len(result.Labels) == 0 {
		return Response{Partial: result.Partial, Error: &ResponseError{Id: NoSolution, Message: "no Pareto-optimal journey satisfies the request"}}
	}

	journeys := make([]Journey, 0, len(result.Labels))
	for _, label := range result.Labels {
		journeys = append(journeys, buildJourney(base, data, overlay, label))
	}

	return Response{Journeys: journeys, Partial: result.Partial}
}

func errorResponse(err error) Response {
	id := InternalError
	return Response{Error: &ResponseError{Id: id, Message: err.Error()}}
}
