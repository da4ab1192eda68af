// Package realtime holds the versioned, copy-on-write overlay of real-time
// trip updates (C6): per (vehicle journey, date), a trip is either absent
// from the base schedule entirely (Deleted), or present with a specific set
// of stop times (possibly identical to the base schedule, possibly modified,
// possibly introduced wholesale by the real-time feed).
package realtime

import (
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
)

// Key identifies one (vehicle journey, service date) trip version.
type Key struct {
	VJ   model.VJIdx
	Date time.Time
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewKey builds a Key, normalizing date to midnight UTC.
func NewKey(vj model.VJIdx, date time.Time) Key {
	return Key{VJ: vj, Date: dateKey(date)}
}

// tripVersion is one disruption's effect on a single (VJ, date): either the
// trip is deleted, or it runs with the given stop times.
type tripVersion struct {
	disruptionId string
	deleted      bool
	stopTimes    []model.StopTime
}

// Overlay is one immutable snapshot of every trip version recorded so far.
// Readers hold a reference to a single Overlay for the duration of a
// request, so the view they see never changes mid-query even while a writer
// is building the next snapshot (C6's single-writer/many-reader model).
type Overlay struct {
	versions map[Key]tripVersion
}

func newOverlay() *Overlay {
	return &Overlay{versions: make(map[Key]tripVersion)}
}

// clone returns a shallow copy of the overlay's version map, the basis for
// a copy-on-write update: the writer mutates the copy, never the original
// any reader might currently hold.
func (o *Overlay) clone() *Overlay {
	versions := make(map[Key]tripVersion, len(o.versions))
	for k, v := range o.versions {
		versions[k] = v
	}
	return &Overlay{versions: versions}
}

// IsPresent reports whether vj is running on date, taking the latest
// recorded disruption into account. A vj with no recorded version at all is
// present by definition: it simply runs as scheduled in the base model.
func (o *Overlay) IsPresent(vj model.VJIdx, date time.Time) bool {
	v, ok := o.versions[NewKey(vj, date)]
	if !ok {
		return true
	}
	return !v.deleted
}

// DisruptionIdAt returns the id of the disruption that last wrote vj's
// recorded version on date, if any version is recorded at all. Used to
// enrich a journey response's sections with the impact responsible for a
// deleted/modified/added trip.
func (o *Overlay) DisruptionIdAt(vj model.VJIdx, date time.Time) (string, bool) {
	v, ok := o.versions[NewKey(vj, date)]
	if !ok {
		return "", false
	}
	return v.disruptionId, true
}

// StopTimesOverride returns the stop times recorded for vj on date by a real
// time Add or Modify, if any. ok is false when there is no override at all
// (the base schedule applies) or when the trip was deleted (callers should
// check IsPresent first).
func (o *Overlay) StopTimesOverride(vj model.VJIdx, date time.Time) (stopTimes []model.StopTime, ok bool) {
	v, present := o.versions[NewKey(vj, date)]
	if !present || v.deleted {
		return nil, false
	}
	return v.stopTimes, true
}
