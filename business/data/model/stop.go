package model

// StopPointId is the stable identity of a stop-point as produced by the
// (out of scope) dataset parser.
type StopPointId string

// StopIdx identifies a Stop in the transit data index. It is a tagged union:
// a Base stop comes from the loaded dataset, a New stop was introduced by a
// real-time addition and only exists in the real-time view.
type StopIdx struct {
	isNew bool
	index uint32
}

// NewBaseStopIdx builds a StopIdx referencing a base dataset stop.
func NewBaseStopIdx(index uint32) StopIdx { return StopIdx{index: index} }

// NewNewStopIdx builds a StopIdx referencing a stop introduced by the
// real-time overlay.
func NewNewStopIdx(index uint32) StopIdx { return StopIdx{isNew: true, index: index} }

// IsNew reports whether this StopIdx references a real-time-introduced stop.
func (s StopIdx) IsNew() bool { return s.isNew }

// Index returns the raw index within its (base or new) namespace.
func (s StopIdx) Index() uint32 { return s.index }

// MissionId identifies a Mission (Timetable) within the timetable store.
// Defined here, rather than in the timetable package, so the stop registry
// can record occurrences without a circular import.
type MissionId uint32

// MissionPosition locates a stop's occurrence within a Mission (Timetable).
type MissionPosition struct {
	Mission  MissionId
	Position int
}

// Stop is a dense entry in the stop registry: the union of base stop-points
// and stops newly introduced by real-time additions.
type Stop struct {
	Idx StopIdx
	// StopPointId is the originating stop-point identity. Empty for stops
	// materialized purely for a real-time addition with no base counterpart.
	StopPointId StopPointId
	// Occurrences lists every (Mission, Position) pair at which this stop
	// appears across every timetable.
	Occurrences []MissionPosition
	// OutgoingTransfers and IncomingTransfers are populated by the
	// TransferIndex at construction time.
	OutgoingTransfers []TransferIdx
	IncomingTransfers []TransferIdx
}

// StopRegistry is the dense collection of Stop entries, indexable by StopIdx.
type StopRegistry struct {
	base []*Stop
	new  []*Stop
	byStopPointId map[StopPointId]StopIdx
}

// NewStopRegistry builds an empty registry.
func NewStopRegistry() *StopRegistry {
	return &StopRegistry{byStopPointId: make(map[StopPointId]StopIdx)}
}

// EnsureBaseStop returns the StopIdx for stopPointId, creating a new base
// Stop entry the first time it is seen.
func (r *StopRegistry) EnsureBaseStop(stopPointId StopPointId) StopIdx {
	if idx, ok := r.byStopPointId[stopPointId]; ok {
		return idx
	}
	idx := NewBaseStopIdx(uint32(len(r.base)))
	r.base = append(r.base, &Stop{Idx: idx, StopPointId: stopPointId})
	r.byStopPointId[stopPointId] = idx
	return idx
}

// AddNewStop materializes a stop introduced by a real-time addition, distinct
// from any base stop even when it shares a StopPointId.
func (r *StopRegistry) AddNewStop(stopPointId StopPointId) StopIdx {
	idx := NewNewStopIdx(uint32(len(r.new)))
	r.new = append(r.new, &Stop{Idx: idx, StopPointId: stopPointId})
	return idx
}

// Get returns the Stop for idx. Panics if idx is out of range, matching the
// "panics on invalid index" contract the solver relies on.
func (r *StopRegistry) Get(idx StopIdx) *Stop {
	if idx.isNew {
		return r.new[idx.index]
	}
	return r.base[idx.index]
}

// Len returns the total number of stops across both namespaces.
func (r *StopRegistry) Len() int { return len(r.base) + len(r.new) }

// StopPointIdx resolves a base StopPointId to its StopIdx, if registered.
func (r *StopRegistry) StopPointIdx(stopPointId StopPointId) (StopIdx, bool) {
	idx, ok := r.byStopPointId[stopPointId]
	return idx, ok
}

// AddOccurrence records that stop appears at mp across a mission. Called by
// the timetable store while grouping vehicle journeys.
func (r *StopRegistry) AddOccurrence(idx StopIdx, mp MissionPosition) {
	stop := r.Get(idx)
	stop.Occurrences = append(stop.Occurrences, mp)
}
