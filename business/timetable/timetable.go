// Package timetable stores vehicle journeys grouped by stop pattern into
// Missions, each holding one sorted Timetable per distinct timezone offset
// (C4), and maps vehicle journeys back to their timetable (C5).
package timetable

import (
	"fmt"
	"sort"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
)

// Position indexes a stop within a Mission's stop pattern.
type Position int

// VehicleIdx indexes a vehicle row within a Timetable. Not stable across
// insertions: an insertion ahead of a row shifts every later VehicleIdx by
// one, since rows are kept in a single time-ordered slice.
type VehicleIdx int

// VehicleEntry is the per-row data carried alongside a vehicle's times: its
// identity, its calendar, and the local zone of its first stop time (stored
// only; neither the timetable searches nor the stay-in rule read it).
type VehicleEntry struct {
	VJ        model.VJIdx
	Service   model.DaysPatternId
	LocalZone *model.LocalZoneId
}

// Errors returned while inserting a vehicle journey into a Timetable,
// mirroring the taxonomy ported from the StopTime invariant.
var (
	ErrWrongPositionCount = fmt.Errorf("timetable: board/debark/occupancy slice length does not match the timetable's position count")
	ErrNotComparable      = fmt.Errorf("timetable: candidate vehicle's times are not comparable (in the product order sense) with an existing row")
)

// Timetable is the columnar, sorted store of every vehicle sharing one stop
// pattern and one timezone. Rows are kept sorted under the product order so
// that a binary search against any single position's column still locates
// the correct insertion point, ported from timetable_data.rs's TimetableData.
type Timetable struct {
	timezoneOffsetSeconds int32
	stops                 []model.StopIdx
	flows                 []model.FlowDirection

	boardTimesByPosition  [][]model.SecondsTz
	debarkTimesByPosition [][]model.SecondsTz
	occupancyByPosition   [][]occupancy.Level

	vehicles []VehicleEntry
}

// NewTimetable builds an empty Timetable over the given stop pattern.
func NewTimetable(stops []model.StopIdx, flows []model.FlowDirection, timezoneOffsetSeconds int32) *Timetable {
	t := &Timetable{
		timezoneOffsetSeconds: timezoneOffsetSeconds,
		stops:                 stops,
		flows:                 flows,
		boardTimesByPosition:  make([][]model.SecondsTz, len(stops)),
		debarkTimesByPosition: make([][]model.SecondsTz, len(stops)),
		occupancyByPosition:   make([][]occupancy.Level, len(stops)-1),
	}
	return t
}

// TimezoneOffsetSeconds returns the timezone this Timetable's times are
// expressed in.
func (t *Timetable) TimezoneOffsetSeconds() int32 { return t.timezoneOffsetSeconds }

// NbOfPositions returns the number of stops in the pattern.
func (t *Timetable) NbOfPositions() int { return len(t.stops) }

// NbOfVehicles returns the number of vehicle rows currently stored.
func (t *Timetable) NbOfVehicles() int { return len(t.vehicles) }

// StopAt returns the stop at position.
func (t *Timetable) StopAt(position Position) model.StopIdx { return t.stops[position] }

// CanBoard reports whether position may be boarded.
func (t *Timetable) CanBoard(position Position) bool { return t.flows[position].CanBoard() }

// CanDebark reports whether position may be debarked.
func (t *Timetable) CanDebark(position Position) bool { return t.flows[position].CanDebark() }

// IsUpstream reports whether a occurs strictly before b in the pattern.
func (t *Timetable) IsUpstream(a, b Position) bool { return a < b }

// NextPosition returns the position following p, if any.
func (t *Timetable) NextPosition(p Position) (Position, bool) {
	if int(p)+1 >= len(t.stops) {
		return 0, false
	}
	return p + 1, true
}

// PreviousPosition returns the position preceding p, if any.
func (t *Timetable) PreviousPosition(p Position) (Position, bool) {
	if p == 0 {
		return 0, false
	}
	return p - 1, true
}

// VehicleAt returns the VehicleEntry for vehicle.
func (t *Timetable) VehicleAt(vehicle VehicleIdx) VehicleEntry { return t.vehicles[vehicle] }

// DepartureTime returns the board time of vehicle at position.
func (t *Timetable) DepartureTime(vehicle VehicleIdx, position Position) model.SecondsTz {
	return t.boardTimesByPosition[position][vehicle]
}

// ArrivalTime returns the debark time of vehicle at position.
func (t *Timetable) ArrivalTime(vehicle VehicleIdx, position Position) model.SecondsTz {
	return t.debarkTimesByPosition[position][vehicle]
}

// BoardTime returns the board time of vehicle at position, if boardable.
func (t *Timetable) BoardTime(vehicle VehicleIdx, position Position) (model.SecondsTz, bool) {
	if !t.CanBoard(position) {
		return model.SecondsTz{}, false
	}
	return t.boardTimesByPosition[position][vehicle], true
}

// DebarkTime returns the debark time of vehicle at position, if debarkable.
func (t *Timetable) DebarkTime(vehicle VehicleIdx, position Position) (model.SecondsTz, bool) {
	if !t.CanDebark(position) {
		return model.SecondsTz{}, false
	}
	return t.debarkTimesByPosition[position][vehicle], true
}

// OccupancyAfter returns the occupancy level between position and the next.
func (t *Timetable) OccupancyAfter(vehicle VehicleIdx, position Position) occupancy.Level {
	return t.occupancyByPosition[position][vehicle]
}

// OccupancyBefore returns the occupancy level between the previous position
// and position.
func (t *Timetable) OccupancyBefore(vehicle VehicleIdx, position Position) occupancy.Level {
	return t.occupancyByPosition[position-1][vehicle]
}

// EarliestVehicleToBoard returns the vehicle with the earliest board time at
// position that is >= waitingTime and for which filter returns true.
func (t *Timetable) EarliestVehicleToBoard(waitingTime model.SecondsTz, position Position, filter func(VehicleEntry) bool) (VehicleIdx, bool) {
	if !t.CanBoard(position) {
		return 0, false
	}
	column := t.boardTimesByPosition[position]
	n := len(column)
	if n == 0 {
		return 0, false
	}
	if waitingTime.TotalSeconds() > column[n-1].TotalSeconds() {
		return 0, false
	}
	start := sort.Search(n, func(i int) bool { return column[i].TotalSeconds() >= waitingTime.TotalSeconds() })
	for i := start; i < n; i++ {
		if filter(t.vehicles[i]) {
			return VehicleIdx(i), true
		}
	}
	return 0, false
}

// LatestVehicleThatDebark returns the vehicle with the latest debark time at
// position that is <= waitingTime and for which filter returns true.
func (t *Timetable) LatestVehicleThatDebark(waitingTime model.SecondsTz, position Position, filter func(VehicleEntry) bool) (VehicleIdx, bool) {
	if !t.CanDebark(position) {
		return 0, false
	}
	column := t.debarkTimesByPosition[position]
	n := len(column)
	if n == 0 {
		return 0, false
	}
	if waitingTime.TotalSeconds() < column[0].TotalSeconds() {
		return 0, false
	}
	after := sort.Search(n, func(i int) bool { return column[i].TotalSeconds() > waitingTime.TotalSeconds() })
	for i := after - 1; i >= 0; i-- {
		if filter(t.vehicles[i]) {
			return VehicleIdx(i), true
		}
	}
	return 0, false
}

// TryInsert attempts to insert a vehicle into this Timetable. Returns false,
// nil when the vehicle's times are not comparable with an existing row and
// so belong in a different Timetable of the same Mission; returns an error
// only on a malformed call (wrong slice lengths).
func (t *Timetable) TryInsert(vehicle VehicleEntry, boardTimes, debarkTimes []model.SecondsTz, occupancies []occupancy.Level) (bool, error) {
	n := len(t.stops)
	if len(boardTimes) != n || len(debarkTimes) != n || len(occupancies) != n-1 {
		return false, ErrWrongPositionCount
	}

	insertIdx, ok := t.findInsertIdx(boardTimes, debarkTimes, occupancies)
	if !ok {
		return false, nil
	}
	t.doInsert(vehicle, boardTimes, debarkTimes, occupancies, insertIdx)
	return true, nil
}

func (t *Timetable) findInsertIdx(board, debark []model.SecondsTz, occ []occupancy.Level) (int, bool) {
	n := len(t.vehicles)
	if n == 0 {
		return 0, true
	}

	firstBoard := board[0].TotalSeconds()
	firstColumn := t.boardTimesByPosition[0]
	idx := sort.Search(n, func(i int) bool { return firstColumn[i].TotalSeconds() >= firstBoard })
	found := idx < n && firstColumn[idx].TotalSeconds() == firstBoard

	if !found {
		if idx < n {
			cmp, ok := t.partialCmpWithVehicle(board, debark, occ, idx)
			if !ok {
				return 0, false
			}
			if cmp != orderLess {
				panic("timetable: insertion invariant violated (candidate not less than successor)")
			}
		}
		if idx > 0 {
			cmp, ok := t.partialCmpWithVehicle(board, debark, occ, idx-1)
			if !ok {
				return 0, false
			}
			if cmp != orderGreater {
				panic("timetable: insertion invariant violated (candidate not greater than predecessor)")
			}
		}
		return idx, true
	}

	refined := idx
	for refined > 0 && firstColumn[refined].TotalSeconds() == firstBoard {
		refined--
	}
	if refined > 0 {
		cmp, ok := t.partialCmpWithVehicle(board, debark, occ, refined-1)
		if !ok {
			return 0, false
		}
		if cmp != orderGreater {
			panic("timetable: insertion invariant violated (candidate not greater than predecessor)")
		}
	}
	return t.findInsertIdxAfter(board, debark, occ, refined)
}

func (t *Timetable) findInsertIdxAfter(board, debark []model.SecondsTz, occ []occupancy.Level, start int) (int, bool) {
	n := len(t.vehicles)
	firstCmp, ok := t.partialCmpWithVehicle(board, debark, occ, start)
	if !ok {
		return 0, false
	}
	if firstCmp == orderLess || firstCmp == orderEqual {
		return start, true
	}
	for i := start + 1; i < n; i++ {
		cmp, ok := t.partialCmpWithVehicle(board, debark, occ, i)
		if !ok {
			return 0, false
		}
		if cmp == orderLess || cmp == orderEqual {
			return i, true
		}
	}
	return n, true
}

func (t *Timetable) doInsert(vehicle VehicleEntry, board, debark []model.SecondsTz, occ []occupancy.Level, insertIdx int) {
	for position := range t.stops {
		t.boardTimesByPosition[position] = insertTime(t.boardTimesByPosition[position], insertIdx, board[position])
		t.debarkTimesByPosition[position] = insertTime(t.debarkTimesByPosition[position], insertIdx, debark[position])
	}
	for position := range t.occupancyByPosition {
		t.occupancyByPosition[position] = insertLevel(t.occupancyByPosition[position], insertIdx, occ[position])
	}
	t.vehicles = insertVehicle(t.vehicles, insertIdx, vehicle)
}

// RemoveVehicle removes the row at vehicle. Every VehicleIdx at or after it
// shifts down by one.
func (t *Timetable) RemoveVehicle(vehicle VehicleIdx) {
	for position := range t.stops {
		t.boardTimesByPosition[position] = removeAt(t.boardTimesByPosition[position], int(vehicle))
		t.debarkTimesByPosition[position] = removeAt(t.debarkTimesByPosition[position], int(vehicle))
	}
	for position := range t.occupancyByPosition {
		t.occupancyByPosition[position] = removeLevelAt(t.occupancyByPosition[position], int(vehicle))
	}
	t.vehicles = append(t.vehicles[:vehicle], t.vehicles[vehicle+1:]...)
}

// FindVehicle returns the first vehicle row whose VJIdx matches vj.
func (t *Timetable) FindVehicle(vj model.VJIdx) (VehicleIdx, bool) {
	for i, v := range t.vehicles {
		if v.VJ == vj {
			return VehicleIdx(i), true
		}
	}
	return 0, false
}

func (t *Timetable) vehicleBoardTimes(vehicle int) []model.SecondsTz {
	out := make([]model.SecondsTz, len(t.stops))
	for position := range t.stops {
		out[position] = t.boardTimesByPosition[position][vehicle]
	}
	return out
}

func (t *Timetable) vehicleDebarkTimes(vehicle int) []model.SecondsTz {
	out := make([]model.SecondsTz, len(t.stops))
	for position := range t.stops {
		out[position] = t.debarkTimesByPosition[position][vehicle]
	}
	return out
}

func (t *Timetable) vehicleOccupancies(vehicle int) []occupancy.Level {
	out := make([]occupancy.Level, len(t.occupancyByPosition))
	for position := range t.occupancyByPosition {
		out[position] = t.occupancyByPosition[position][vehicle]
	}
	return out
}

func (t *Timetable) partialCmpWithVehicle(board, debark []model.SecondsTz, occ []occupancy.Level, vehicle int) (order, bool) {
	boardCmp, ok := partialCmpTimes(board, t.vehicleBoardTimes(vehicle))
	if !ok {
		return orderEqual, false
	}
	debarkCmp, ok := partialCmpTimes(debark, t.vehicleDebarkTimes(vehicle))
	if !ok {
		return orderEqual, false
	}
	boardDebarkCmp, ok := combine(boardCmp, debarkCmp)
	if !ok {
		return orderEqual, false
	}
	occCmp, ok := partialCmpLevels(occ, t.vehicleOccupancies(vehicle))
	if !ok {
		return orderEqual, false
	}
	return combine(boardDebarkCmp, occCmp)
}

type order int

const (
	orderLess order = iota - 1
	orderEqual
	orderGreater
)

// combine merges two component orderings into one, the way a vector ordered
// lexicographically by no particular axis still has a well defined <= when
// every axis individually agrees: ported from timetable_data.rs's combine.
func combine(a, b order) (order, bool) {
	switch {
	case a == orderEqual && b == orderEqual:
		return orderEqual, true
	case (a == orderLess || a == orderEqual) && (b == orderLess || b == orderEqual) && (a == orderLess || b == orderLess):
		return orderLess, true
	case (a == orderGreater || a == orderEqual) && (b == orderGreater || b == orderEqual) && (a == orderGreater || b == orderGreater):
		return orderGreater, true
	default:
		return orderEqual, false
	}
}

// partialCmpTimes compares two equal-length SecondsTz vectors position by
// position. Returns ok=false if neither <= nor >= holds for every position.
func partialCmpTimes(lower, upper []model.SecondsTz) (order, bool) {
	result := orderEqual
	set := false
	for i := range lower {
		l, u := lower[i].TotalSeconds(), upper[i].TotalSeconds()
		if l == u {
			continue
		}
		var c order
		if l < u {
			c = orderLess
		} else {
			c = orderGreater
		}
		if !set {
			result, set = c, true
			continue
		}
		if c != result {
			return orderEqual, false
		}
	}
	return result, true
}

// partialCmpLevels compares two equal-length occupancy.Level vectors.
func partialCmpLevels(lower, upper []occupancy.Level) (order, bool) {
	result := orderEqual
	set := false
	for i := range lower {
		if lower[i] == upper[i] {
			continue
		}
		var c order
		if lower[i] < upper[i] {
			c = orderLess
		} else {
			c = orderGreater
		}
		if !set {
			result, set = c, true
			continue
		}
		if c != result {
			return orderEqual, false
		}
	}
	return result, true
}

func insertTime(column []model.SecondsTz, idx int, v model.SecondsTz) []model.SecondsTz {
	column = append(column, model.SecondsTz{})
	copy(column[idx+1:], column[idx:])
	column[idx] = v
	return column
}

func insertLevel(column []occupancy.Level, idx int, v occupancy.Level) []occupancy.Level {
	column = append(column, 0)
	copy(column[idx+1:], column[idx:])
	column[idx] = v
	return column
}

func insertVehicle(vehicles []VehicleEntry, idx int, v VehicleEntry) []VehicleEntry {
	vehicles = append(vehicles, VehicleEntry{})
	copy(vehicles[idx+1:], vehicles[idx:])
	vehicles[idx] = v
	return vehicles
}

func removeAt(column []model.SecondsTz, idx int) []model.SecondsTz {
	return append(column[:idx], column[idx+1:]...)
}

func removeLevelAt(column []occupancy.Level, idx int) []occupancy.Level {
	return append(column[:idx], column[idx+1:]...)
}
