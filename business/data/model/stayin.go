package model

// StayInIndex groups base vehicle journeys sharing a BlockId so that a
// physical vehicle's chain of trips ("stay-in") can be walked without
// pointers, by index lookup only.
//
// A successor is resolved per running day, not pre-baked into a static
// graph: only a candidate running on the *same* day offset as the current
// trip can continue its block, even when a cross-midnight stop time makes a
// cross-day candidate chronologically adjacent.
type StayInIndex struct {
	byBlock map[BlockId][]VJIdx
}

// VehicleJourneyLookup resolves a VJIdx to its VehicleJourney, implemented by
// the base model (and, for New VJs, the real-time overlay).
type VehicleJourneyLookup interface {
	VehicleJourney(idx VJIdx) *VehicleJourney
}

// BuildStayInIndex groups every base vehicle journey with a non-nil BlockId.
func BuildStayInIndex(vjs []*VehicleJourney) *StayInIndex {
	idx := &StayInIndex{byBlock: make(map[BlockId][]VJIdx)}
	for _, vj := range vjs {
		if vj.BlockId == nil {
			continue
		}
		idx.byBlock[*vj.BlockId] = append(idx.byBlock[*vj.BlockId], vj.Idx)
	}
	return idx
}

// instantOf converts a SecondsTz anchored on day into an Instant using vj's
// timezone offset.
func instantOf(vj *VehicleJourney, day DayOffset, t SecondsTz) (Instant, error) {
	utc, err := t.ToUTC(vj.TimezoneOffsetSeconds)
	if err != nil {
		return Instant{}, err
	}
	return NewInstant(day, SecondsUtc{seconds: utc.seconds})
}

// Next returns the VJIdx of the vehicle journey continuing vj's physical
// vehicle on day, if any. A candidate qualifies only when: it shares vj's
// BlockId, it runs on the same day offset, and its first boardable departure
// is strictly after vj's last debarkable arrival. Ties are broken by the
// earliest qualifying departure.
func (s *StayInIndex) Next(lookup VehicleJourneyLookup, vj *VehicleJourney, day DayOffset, days *DaysPatterns) (VJIdx, bool) {
	return s.resolve(lookup, vj, day, days, true)
}

// Previous is the symmetric counterpart of Next, walking the block backward.
func (s *StayInIndex) Previous(lookup VehicleJourneyLookup, vj *VehicleJourney, day DayOffset, days *DaysPatterns) (VJIdx, bool) {
	return s.resolve(lookup, vj, day, days, false)
}

func (s *StayInIndex) resolve(lookup VehicleJourneyLookup, vj *VehicleJourney, day DayOffset, days *DaysPatterns, forward bool) (VJIdx, bool) {
	if vj.BlockId == nil {
		return VJIdx{}, false
	}
	candidates := s.byBlock[*vj.BlockId]
	if len(candidates) == 0 {
		return VJIdx{}, false
	}

	var anchor Instant
	var err error
	if forward {
		anchor, err = instantOf(vj, day, vj.StopTimes[len(vj.StopTimes)-1].effectiveDebark())
	} else {
		anchor, err = instantOf(vj, day, vj.StopTimes[0].effectiveBoard())
	}
	if err != nil {
		return VJIdx{}, false
	}

	var best VJIdx
	var bestInstant Instant
	found := false

	for _, candidateIdx := range candidates {
		if candidateIdx == vj.Idx {
			continue
		}
		candidate := lookup.VehicleJourney(candidateIdx)
		if candidate == nil || !days.Contains(candidate.Service, day) {
			continue
		}

		var candidateInstant Instant
		var cerr error
		if forward {
			candidateInstant, cerr = instantOf(candidate, day, candidate.StopTimes[0].effectiveBoard())
		} else {
			candidateInstant, cerr = instantOf(candidate, day, candidate.StopTimes[len(candidate.StopTimes)-1].effectiveDebark())
		}
		if cerr != nil {
			continue
		}

		qualifies := false
		if forward {
			qualifies = candidateInstant.After(anchor)
		} else {
			qualifies = anchor.After(candidateInstant)
		}
		if !qualifies {
			continue
		}

		if !found || betterCandidate(forward, candidateInstant, bestInstant) {
			best = candidateIdx
			bestInstant = candidateInstant
			found = true
		}
	}

	return best, found
}

func betterCandidate(forward bool, candidate, current Instant) bool {
	if forward {
		return candidate.Before(current)
	}
	return candidate.After(current)
}
