package model

// TransferIdx identifies a Transfer edge in the TransferIndex.
type TransferIdx uint32

// TransferDurations pairs a transfer's pure walking time with its total
// duration (walking time plus any fixed overhead such as a minimum transfer
// time). TotalDuration is always >= WalkingDuration.
type TransferDurations struct {
	WalkingDuration PositiveDuration
	TotalDuration   PositiveDuration
}

// transferEdge is one direction of a Transfer, stored flat for hot-loop
// iteration without hashing.
type transferEdge struct {
	From, To  StopIdx
	Durations TransferDurations
	Idx       TransferIdx
}

// TransferIndex holds outgoing and incoming walking-transfer edges per stop.
type TransferIndex struct {
	edges     []transferEdge
	outgoing  map[StopIdx][]transferEdge
	incoming  map[StopIdx][]transferEdge
}

// NewTransferIndex builds an empty index.
func NewTransferIndex() *TransferIndex {
	return &TransferIndex{
		outgoing: make(map[StopIdx][]transferEdge),
		incoming: make(map[StopIdx][]transferEdge),
	}
}

// AddTransfer records a dataset transfer from -> to with the given walking
// duration and minimum transfer time. total_duration is
// max(minTransferTime, walkingDuration). A duplicate
// (from, to) pair is deduplicated, keeping the shorter total duration.
func (t *TransferIndex) AddTransfer(from, to StopIdx, walkingDuration, minTransferTime PositiveDuration) TransferIdx {
	total := walkingDuration
	if minTransferTime.TotalSeconds() > total.TotalSeconds() {
		total = minTransferTime
	}
	durations := TransferDurations{WalkingDuration: walkingDuration, TotalDuration: total}

	for i := range t.outgoing[from] {
		existing := &t.outgoing[from][i]
		if existing.To == to {
			if total.TotalSeconds() < existing.Durations.TotalDuration.TotalSeconds() {
				existing.Durations = durations
				t.replaceIncoming(to, existing.Idx, durations)
			}
			return existing.Idx
		}
	}

	idx := TransferIdx(len(t.edges))
	edge := transferEdge{From: from, To: to, Durations: durations, Idx: idx}
	t.edges = append(t.edges, edge)
	t.outgoing[from] = append(t.outgoing[from], edge)
	t.incoming[to] = append(t.incoming[to], edge)
	return idx
}

func (t *TransferIndex) replaceIncoming(to StopIdx, idx TransferIdx, durations TransferDurations) {
	for i := range t.incoming[to] {
		if t.incoming[to][i].Idx == idx {
			t.incoming[to][i].Durations = durations
			return
		}
	}
}

// OutgoingTransfer pairs a reachable stop with the transfer's durations and
// identity, as returned by OutgoingTransfersAt.
type OutgoingTransfer struct {
	To        StopIdx
	Durations TransferDurations
	Idx       TransferIdx
}

// OutgoingTransfersAt returns every transfer departing from stop, as a flat
// slice suitable for hot-loop iteration.
func (t *TransferIndex) OutgoingTransfersAt(stop StopIdx) []OutgoingTransfer {
	edges := t.outgoing[stop]
	out := make([]OutgoingTransfer, len(edges))
	for i, e := range edges {
		out[i] = OutgoingTransfer{To: e.To, Durations: e.Durations, Idx: e.Idx}
	}
	return out
}

// IncomingTransfer pairs an originating stop with the transfer's durations
// and identity, as returned by IncomingTransfersAt.
type IncomingTransfer struct {
	From      StopIdx
	Durations TransferDurations
	Idx       TransferIdx
}

// IncomingTransfersAt returns every transfer arriving at stop.
func (t *TransferIndex) IncomingTransfersAt(stop StopIdx) []IncomingTransfer {
	edges := t.incoming[stop]
	out := make([]IncomingTransfer, len(edges))
	for i, e := range edges {
		out[i] = IncomingTransfer{From: e.From, Durations: e.Durations, Idx: e.Idx}
	}
	return out
}

// FromTo returns the endpoints of a transfer by its identity.
func (t *TransferIndex) FromTo(idx TransferIdx) (from, to StopIdx) {
	e := t.edges[idx]
	return e.From, e.To
}

// Durations returns the durations of a transfer by its identity.
func (t *TransferIndex) Durations(idx TransferIdx) TransferDurations {
	return t.edges[idx].Durations
}
