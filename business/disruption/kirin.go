package disruption

import (
	"fmt"

	"github.com/transitcore/pathfinder/business/data/model"
)

func flowOf(f FlowType) (model.FlowDirection, error) {
	switch f {
	case FlowBoardAndDebark:
		return model.BoardAndDebark, nil
	case FlowBoardOnly:
		return model.BoardOnly, nil
	case FlowDebarkOnly:
		return model.DebarkOnly, nil
	case FlowNoBoardDebark:
		return model.NoBoardDebark, nil
	default:
		return 0, fmt.Errorf("disruption: %q is not a recognized flow type", f)
	}
}

// stopTimesOf converts a kirin message's wire stop times into the model's
// StopTime representation, resolving each wire stop id against idx's base
// stops (a kirin update may reference only stops already known to the
// dataset; introducing a wholly new stop is a chaos/real-time-addition
// concern this package does not compile).
func stopTimesOf(idx *Index, wire []WireStopTime) ([]model.StopTime, error) {
	stopTimes := make([]model.StopTime, len(wire))
	for i, w := range wire {
		stopIdx, ok := idx.base.Stops.StopPointIdx(model.StopPointId(w.StopId))
		if !ok {
			return nil, fmt.Errorf("disruption: stop %q is not a known stop point", w.StopId)
		}
		flow, err := flowOf(w.Flow)
		if err != nil {
			return nil, err
		}
		board, err := model.NewSecondsTz(w.DepartureTime)
		if err != nil {
			return nil, fmt.Errorf("disruption: stop %q departure time: %w", w.StopId, err)
		}
		debark, err := model.NewSecondsTz(w.ArrivalTime)
		if err != nil {
			return nil, fmt.Errorf("disruption: stop %q arrival time: %w", w.StopId, err)
		}
		stopTimes[i] = model.StopTime{Stop: stopIdx, BoardTime: board, DebarkTime: debark, Flow: flow}
	}
	return stopTimes, nil
}
