package domain

import "math"

// Tally counts distinct whole seconds of playback per identity.
type Tally struct {
	entries map[Identity]*tallyEntry
}

type tallyEntry struct {
	watched int
	last    int
	hasLast bool
	seen    map[int]struct{}
}

func NewTally() *Tally {
	return &Tally{entries: map[Identity]*tallyEntry{}}
}

func (t *Tally) Ensure(id Identity) {
	if _, ok := t.entries[id]; !ok {
		t.entries[id] = &tallyEntry{seen: map[int]struct{}{}}
	}
}

func (t *Tally) Has(id Identity) bool {
	_, ok := t.entries[id]
	return ok
}

func (t *Tally) Watched(id Identity) int {
	if entry, ok := t.entries[id]; ok {
		return entry.watched
	}
	return 0
}

// Observe samples the playback position. It counts the second when it moved
// since the previous sample, was never counted before and the tally is still
// below limit. A limit of zero or less means the duration is unknown.
func (t *Tally) Observe(id Identity, currentTime float64, limit int) bool {
	if math.IsNaN(currentTime) || math.IsInf(currentTime, 0) || currentTime < 0 {
		return false
	}
	t.Ensure(id)
	entry := t.entries[id]
	second := int(math.Floor(currentTime))
	if entry.hasLast && entry.last == second {
		return false
	}
	entry.last = second
	entry.hasLast = true
	if _, counted := entry.seen[second]; counted {
		return false
	}
	if limit > 0 && entry.watched >= limit {
		return false
	}
	entry.seen[second] = struct{}{}
	entry.watched++
	return true
}

func (t *Tally) Reset() {
	t.entries = map[Identity]*tallyEntry{}
}
