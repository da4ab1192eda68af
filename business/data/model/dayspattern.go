package model

import (
	"fmt"
	"sort"
)

// DaysPatternId identifies an interned DaysPattern. Two patterns with
// identical bits always share the same id for the lifetime of the pool.
type DaysPatternId uint32

// daysPattern is a fixed-length bit vector over a calendar's day offsets,
// stored as a slice of uint64 words.
type daysPattern struct {
	words []uint64
}

func newDaysPattern(nbDays int) daysPattern {
	return daysPattern{words: make([]uint64, (nbDays+63)/64)}
}

func (p daysPattern) clone() daysPattern {
	words := make([]uint64, len(p.words))
	copy(words, p.words)
	return daysPattern{words: words}
}

func (p daysPattern) set(offset DayOffset) {
	p.words[offset/64] |= 1 << (offset % 64)
}

func (p daysPattern) unset(offset DayOffset) {
	p.words[offset/64] &^= 1 << (offset % 64)
}

func (p daysPattern) test(offset DayOffset) bool {
	return p.words[offset/64]&(1<<(offset%64)) != 0
}

func (p daysPattern) isEmpty() bool {
	for _, w := range p.words {
		if w != 0 {
			return false
		}
	}
	return true
}

func (p daysPattern) key() string {
	// Words are fixed width, so a direct byte-string key preserves equality.
	b := make([]byte, len(p.words)*8)
	for i, w := range p.words {
		for j := 0; j < 8; j++ {
			b[i*8+j] = byte(w >> (8 * j))
		}
	}
	return string(b)
}

func unionWords(a, b daysPattern) daysPattern {
	out := newDaysPattern(0)
	out.words = make([]uint64, len(a.words))
	for i := range a.words {
		out.words[i] = a.words[i] | b.words[i]
	}
	return out
}

func intersectWords(a, b daysPattern) daysPattern {
	out := daysPattern{words: make([]uint64, len(a.words))}
	for i := range a.words {
		out.words[i] = a.words[i] & b.words[i]
	}
	return out
}

func differenceWords(a, b daysPattern) daysPattern {
	out := daysPattern{words: make([]uint64, len(a.words))}
	for i := range a.words {
		out.words[i] = a.words[i] &^ b.words[i]
	}
	return out
}

// DaysPatterns is an interning pool of DaysPattern bit vectors over a fixed
// calendar size. Equal bit vectors always resolve to the same DaysPatternId.
type DaysPatterns struct {
	nbDays    int
	patterns  []daysPattern
	idsByKey  map[string]DaysPatternId
	emptyId   DaysPatternId
}

// NewDaysPatterns builds an interning pool sized for a calendar holding
// nbDays day offsets. The empty pattern is interned first, as id 0.
func NewDaysPatterns(nbDays int) *DaysPatterns {
	dp := &DaysPatterns{
		nbDays:   nbDays,
		idsByKey: make(map[string]DaysPatternId),
	}
	dp.emptyId = dp.intern(newDaysPattern(nbDays))
	return dp
}

func (dp *DaysPatterns) intern(p daysPattern) DaysPatternId {
	key := p.key()
	if id, ok := dp.idsByKey[key]; ok {
		return id
	}
	id := DaysPatternId(len(dp.patterns))
	dp.patterns = append(dp.patterns, p)
	dp.idsByKey[key] = id
	return id
}

func (dp *DaysPatterns) get(id DaysPatternId) daysPattern {
	return dp.patterns[id]
}

// Empty returns the canonical id of the pattern with no days set.
func (dp *DaysPatterns) Empty() DaysPatternId { return dp.emptyId }

// IsEmpty reports whether id's pattern has no days set.
func (dp *DaysPatterns) IsEmpty(id DaysPatternId) bool {
	return dp.get(id).isEmpty()
}

// FromDays interns the pattern containing exactly the given day offsets.
// Returns an error if any offset is out of range for the pool's calendar size.
func (dp *DaysPatterns) FromDays(days []DayOffset) (DaysPatternId, error) {
	p := newDaysPattern(dp.nbDays)
	for _, d := range days {
		if int(d) >= dp.nbDays {
			return 0, fmt.Errorf("model: day offset %d is beyond calendar size %d", d, dp.nbDays)
		}
		p.set(d)
	}
	return dp.intern(p), nil
}

// WithDayAdded interns the pattern obtained by adding day to id's pattern.
func (dp *DaysPatterns) WithDayAdded(id DaysPatternId, day DayOffset) (DaysPatternId, error) {
	if int(day) >= dp.nbDays {
		return 0, fmt.Errorf("model: day offset %d is beyond calendar size %d", day, dp.nbDays)
	}
	p := dp.get(id).clone()
	p.set(day)
	return dp.intern(p), nil
}

// WithDayRemoved interns the pattern obtained by removing day from id's pattern.
func (dp *DaysPatterns) WithDayRemoved(id DaysPatternId, day DayOffset) (DaysPatternId, error) {
	if int(day) >= dp.nbDays {
		return 0, fmt.Errorf("model: day offset %d is beyond calendar size %d", day, dp.nbDays)
	}
	p := dp.get(id).clone()
	p.unset(day)
	return dp.intern(p), nil
}

// Contains reports whether day is part of id's pattern.
func (dp *DaysPatterns) Contains(id DaysPatternId, day DayOffset) bool {
	if int(day) >= dp.nbDays {
		return false
	}
	return dp.get(id).test(day)
}

// Union interns the union of a's and b's patterns.
func (dp *DaysPatterns) Union(a, b DaysPatternId) DaysPatternId {
	return dp.intern(unionWords(dp.get(a), dp.get(b)))
}

// Intersection interns the intersection of a's and b's patterns.
func (dp *DaysPatterns) Intersection(a, b DaysPatternId) DaysPatternId {
	return dp.intern(intersectWords(dp.get(a), dp.get(b)))
}

// Difference interns a's pattern minus b's pattern.
func (dp *DaysPatterns) Difference(a, b DaysPatternId) DaysPatternId {
	return dp.intern(differenceWords(dp.get(a), dp.get(b)))
}

// Days returns the sorted list of day offsets included in id's pattern.
func (dp *DaysPatterns) Days(id DaysPatternId) []DayOffset {
	p := dp.get(id)
	var days []DayOffset
	for i := 0; i < dp.nbDays; i++ {
		if p.test(DayOffset(i)) {
			days = append(days, DayOffset(i))
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}
