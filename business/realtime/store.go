package realtime

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
)

// Errors returned when a disruption's update is incompatible with the trip's
// current version, ported from real_time.rs's UpdateError.
var (
	ErrDeleteAbsentTrip = fmt.Errorf("realtime: cannot delete a trip that is already absent")
	ErrAddPresentTrip   = fmt.Errorf("realtime: cannot add a trip that is already present")
	ErrModifyAbsentTrip = fmt.Errorf("realtime: cannot modify a trip that is currently absent")
)

// baseLookup reports whether a (vehicle journey, date) pair runs in the base
// schedule at all, i.e. without consulting the overlay. Implemented by the
// base model: a VJIdx is present in the base schedule when its calendar
// includes the day offset for date.
type baseLookup interface {
	IsScheduledInBase(vj model.VJIdx, date time.Time) bool
}

// Store owns the single mutable Overlay, swapped atomically on every write
// so concurrent readers never observe a half-built update (C6's
// single-writer/many-reader snapshot-swap model, the generalization of the
// mutex-guarded rebuild-on-write pattern used elsewhere in this codebase for
// updating a collection read far more often than it's written).
type Store struct {
	mu      sync.Mutex // serializes writers; readers never take it
	current atomic.Pointer[Overlay]
	base    baseLookup
}

// NewStore builds a Store with an empty overlay, consulting base for
// whether a trip with no recorded version at all is scheduled to run.
func NewStore(base baseLookup) *Store {
	s := &Store{base: base}
	s.current.Store(newOverlay())
	return s
}

// Snapshot returns the Overlay a reader should hold for the duration of one
// request.
func (s *Store) Snapshot() *Overlay { return s.current.Load() }

// IsPresent reports whether vj runs on date, consulting the base schedule
// when the overlay carries no version for it.
func (s *Store) IsPresent(vj model.VJIdx, date time.Time) bool {
	snap := s.Snapshot()
	if _, ok := snap.versions[NewKey(vj, date)]; !ok {
		return s.base.IsScheduledInBase(vj, date)
	}
	return snap.IsPresent(vj, date)
}

// Delete marks vj absent on date. Fails if it is already absent.
func (s *Store) Delete(disruptionId string, vj model.VJIdx, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.IsPresent(vj, date) {
		return ErrDeleteAbsentTrip
	}
	next := s.current.Load().clone()
	next.versions[NewKey(vj, date)] = tripVersion{disruptionId: disruptionId, deleted: true}
	s.current.Store(next)
	return nil
}

// Add records a new trip at vj on date, introduced wholesale by the
// real-time feed. Fails if a trip is already present there.
func (s *Store) Add(disruptionId string, vj model.VJIdx, date time.Time, stopTimes []model.StopTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.IsPresent(vj, date) {
		return ErrAddPresentTrip
	}
	if err := model.ValidateStopTimes(stopTimes); err != nil {
		return fmt.Errorf("realtime: adding trip: %w", err)
	}
	next := s.current.Load().clone()
	next.versions[NewKey(vj, date)] = tripVersion{disruptionId: disruptionId, stopTimes: stopTimes}
	s.current.Store(next)
	return nil
}

// Modify replaces the stop times of vj on date. Fails if the trip is
// currently absent: a Modify of an absent trip must first Add it.
func (s *Store) Modify(disruptionId string, vj model.VJIdx, date time.Time, stopTimes []model.StopTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.IsPresent(vj, date) {
		return ErrModifyAbsentTrip
	}
	if err := model.ValidateStopTimes(stopTimes); err != nil {
		return fmt.Errorf("realtime: modifying trip: %w", err)
	}
	next := s.current.Load().clone()
	next.versions[NewKey(vj, date)] = tripVersion{disruptionId: disruptionId, stopTimes: stopTimes}
	s.current.Store(next)
	return nil
}

// Restore removes any recorded version of vj on date, reverting it to
// whatever the base schedule says (present or simply not running that day).
func (s *Store) Restore(vj model.VJIdx, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().clone()
	delete(next.versions, NewKey(vj, date))
	s.current.Store(next)
}
