package domain

type SplitResult string

const (
	SplitApplied   SplitResult = "applied"
	SplitNoop      SplitResult = "noop"
	SplitStale     SplitResult = "stale"
	SplitRetired   SplitResult = "retired"
	SplitNoSession SplitResult = "no_session"
)

// Coordinator owns the active session. Every login or logout starts a new
// generation; split directives carry the generation of the report that
// produced them so replies for an earlier login are dropped.
type Coordinator struct {
	current    Session
	generation uint64
	retired    map[string]struct{}
}

func NewCoordinator() *Coordinator {
	return &Coordinator{retired: map[string]struct{}{}}
}

// Set replaces the session wholesale. It reports false when nothing changed.
func (c *Coordinator) Set(username, id string) bool {
	if c.current.ID == id && c.current.Username == username {
		return false
	}
	c.retire(c.current.ID, id)
	delete(c.retired, id)
	c.current = Session{ID: id, Username: username}
	c.generation++
	return true
}

// Clear drops the session and returns what was active.
func (c *Coordinator) Clear() Session {
	prev := c.current
	if prev == (Session{}) {
		return prev
	}
	c.retire(prev.ID, "")
	c.current = Session{}
	c.generation++
	return prev
}

func (c *Coordinator) Current() (Session, bool) {
	return c.current, c.current != (Session{})
}

func (c *Coordinator) SessionID() string {
	return c.current.ID
}

func (c *Coordinator) Generation() uint64 {
	return c.generation
}

// ApplySplit moves the active session to newID. Among directives of the
// current generation the last one to arrive wins; ids that were already
// replaced never come back.
func (c *Coordinator) ApplySplit(generation uint64, newID string) SplitResult {
	switch {
	case newID == "":
		return SplitNoop
	case c.current.ID == "":
		return SplitNoSession
	case generation != c.generation:
		return SplitStale
	case newID == c.current.ID:
		return SplitNoop
	}
	if _, ok := c.retired[newID]; ok {
		return SplitRetired
	}
	c.retire(c.current.ID, newID)
	c.current.ID = newID
	return SplitApplied
}

func (c *Coordinator) Retired(id string) bool {
	_, ok := c.retired[id]
	return ok
}

func (c *Coordinator) retire(old, replacement string) {
	if old != "" && old != replacement {
		c.retired[old] = struct{}{}
	}
}
