package disruption

import (
	"fmt"
	"sync"

	"github.com/transitcore/pathfinder/business/realtime"
)

// Compiler applies decoded chaos and kirin messages to a real-time overlay,
// isolating one update's failure from the rest of a disruption rather than
// aborting the whole message (mirroring how a real-time model's own apply
// step treats each update independently). Unlike the package-level
// ApplyChaos/WithdrawChaos functions, Compiler remembers which disruptions
// currently own each (vehicle journey, date) key, so cancelling one
// disruption out of several that touch the same trip rebuilds the key from
// whichever disruption is left, instead of always reverting to base.
type Compiler struct {
	overlay  *realtime.Store
	idx      *Index
	holidays HolidayChecker

	mu sync.Mutex

	lastReceived map[realtime.Key]string // disruption id that last wrote this key via kirin
	receivedAt   map[realtime.Key]int64  // kirin supersession clock, by key

	chaosMsgs      map[string]ChaosMessage   // last applied message body, by disruption id
	disruptionKeys map[string][]realtime.Key // keys each disruption id last wrote
	keyOwners      map[realtime.Key][]string // disruption ids currently applied at a key, oldest first
}

// NewCompiler builds a Compiler writing into overlay, resolving identities
// through idx, and expanding holiday-aware patterns with holidays (pass
// NewHolidayChecker() for the standard US federal calendar, or nil to treat
// ExcludeHolidays as a no-op).
func NewCompiler(overlay *realtime.Store, idx *Index, holidays HolidayChecker) *Compiler {
	return &Compiler{
		overlay:        overlay,
		idx:            idx,
		holidays:       holidays,
		lastReceived:   make(map[realtime.Key]string),
		receivedAt:     make(map[realtime.Key]int64),
		chaosMsgs:      make(map[string]ChaosMessage),
		disruptionKeys: make(map[string][]realtime.Key),
		keyOwners:      make(map[realtime.Key][]string),
	}
}

// ApplyChaos compiles and applies msg. A message with IsDeleted set cancels
// the disruption instead (see CancelChaos); a republication of a
// disruption id first undoes its own previous keys, so a shrunk application
// period doesn't leave stale writes from the wider one behind.
func (c *Compiler) ApplyChaos(msg ChaosMessage) ChaosResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.IsDeleted {
		return c.cancelChaosLocked(msg.DisruptionId)
	}
	if _, ok := c.chaosMsgs[msg.DisruptionId]; ok {
		c.cancelChaosLocked(msg.DisruptionId)
	}

	result := ChaosResult{DisruptionId: msg.DisruptionId}
	var keys []realtime.Key
	for _, impact := range msg.Impacts {
		ops, unresolved := planImpact(c.idx, c.holidays, impact)
		result.UnresolvedCount += len(unresolved)
		for _, op := range ops {
			if !c.applyOpLocked(msg.DisruptionId, op, impact.Id, &result) {
				continue
			}
			key := realtime.NewKey(op.vj, op.date)
			if !containsOwner(c.keyOwners[key], msg.DisruptionId) {
				c.keyOwners[key] = append(c.keyOwners[key], msg.DisruptionId)
				keys = append(keys, key)
			}
		}
	}
	c.chaosMsgs[msg.DisruptionId] = msg
	c.disruptionKeys[msg.DisruptionId] = keys
	return result
}

// CancelChaos undoes every (vehicle journey, date) pair disruptionId
// previously caused, reverting each to base when it was the last disruption
// affecting that key, or rebuilding it from whichever disruption is left.
func (c *Compiler) CancelChaos(disruptionId string) ChaosResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelChaosLocked(disruptionId)
}

func (c *Compiler) cancelChaosLocked(disruptionId string) ChaosResult {
	result := ChaosResult{DisruptionId: disruptionId}
	keys := c.disruptionKeys[disruptionId]
	delete(c.disruptionKeys, disruptionId)
	delete(c.chaosMsgs, disruptionId)

	for _, key := range keys {
		owners := removeOwner(c.keyOwners[key], disruptionId)
		if len(owners) == 0 {
			delete(c.keyOwners, key)
		} else {
			c.keyOwners[key] = owners
		}

		c.overlay.Restore(key.VJ, key.Date)
		result.RestoredCount++

		if len(owners) == 0 {
			continue
		}
		lastId := owners[len(owners)-1]
		lastMsg, ok := c.chaosMsgs[lastId]
		if !ok {
			continue
		}
		c.reapplyKeyLocked(lastMsg, key, &result)
	}
	return result
}

// reapplyKeyLocked rebuilds a single key from msg, the disruption now left
// owning it after another was cancelled.
func (c *Compiler) reapplyKeyLocked(msg ChaosMessage, key realtime.Key, result *ChaosResult) {
	for _, impact := range msg.Impacts {
		ops, _ := planImpact(c.idx, c.holidays, impact)
		for _, op := range ops {
			if realtime.NewKey(op.vj, op.date) != key {
				continue
			}
			c.applyOpLocked(msg.DisruptionId, op, impact.Id, result)
			return
		}
	}
}

func (c *Compiler) applyOpLocked(disruptionId string, op plannedOp, impactId string, result *ChaosResult) bool {
	var err error
	switch op.kind {
	case opDelete:
		err = c.overlay.Delete(disruptionId, op.vj, op.date)
		if err == realtime.ErrDeleteAbsentTrip {
			return false
		}
	case opModify:
		err = c.overlay.Modify(disruptionId, op.vj, op.date, op.stopTimes)
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("chaos: impact %s: %w", impactId, err))
		return false
	}
	result.AppliedCount++
	return true
}

func containsOwner(owners []string, id string) bool {
	for _, o := range owners {
		if o == id {
			return true
		}
	}
	return false
}

func removeOwner(owners []string, id string) []string {
	out := owners[:0:0]
	for _, o := range owners {
		if o != id {
			out = append(out, o)
		}
	}
	return out
}

// ApplyKirin compiles and applies a single trip-scoped kirin update. A kirin
// message arriving with an older ReceivedAt than one already applied to the
// same (vehicle journey, date) is ignored: a later kirin update always
// supersedes an earlier one, regardless of the order messages are delivered
// in.
func (c *Compiler) ApplyKirin(msg KirinMessage) error {
	vj, ok := c.idx.VehicleJourneyByExternalId(msg.VehicleJourneyId)
	if !ok {
		return fmt.Errorf("disruption: kirin update references unknown vehicle journey %q", msg.VehicleJourneyId)
	}
	key := realtime.NewKey(vj, msg.ReferenceDate)
	receivedNanos := msg.ReceivedAt.UnixNano()

	c.mu.Lock()
	if prior, ok := c.receivedAt[key]; ok && receivedNanos <= prior {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	var err error
	if msg.Cancelled {
		err = c.overlay.Delete(msg.DisruptionId, vj, msg.ReferenceDate)
	} else {
		st, convErr := stopTimesOf(c.idx, msg.StopTimes)
		if convErr != nil {
			return fmt.Errorf("disruption: kirin update: %w", convErr)
		}
		if c.overlay.IsPresent(vj, msg.ReferenceDate) {
			err = c.overlay.Modify(msg.DisruptionId, vj, msg.ReferenceDate, st)
		} else {
			err = c.overlay.Add(msg.DisruptionId, vj, msg.ReferenceDate, st)
		}
	}
	if err != nil {
		return fmt.Errorf("disruption: applying kirin update for %q: %w", msg.VehicleJourneyId, err)
	}

	c.mu.Lock()
	c.receivedAt[key] = receivedNanos
	c.lastReceived[key] = msg.DisruptionId
	c.mu.Unlock()
	return nil
}

// LastDisruptionFor returns the disruption id that last wrote vj's version on
// date via a kirin update, if any has touched it.
func (c *Compiler) LastDisruptionFor(key realtime.Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.lastReceived[key]
	return id, ok
}
