package domain

import "testing"

func TestSplitReplacesIDAndRetiresOld(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()
	c.Set("ann", "s1")
	gen := c.Generation()

	if got := c.ApplySplit(gen, "s2"); got != SplitApplied {
		t.Fatalf("expected applied, got %s", got)
	}
	if c.SessionID() != "s2" || !c.Retired("s1") {
		t.Fatalf("unexpected state id=%s retired(s1)=%v", c.SessionID(), c.Retired("s1"))
	}
	session, _ := c.Current()
	if session.Username != "ann" {
		t.Fatalf("split must keep username, got %+v", session)
	}
}

func TestSplitIsIdempotent(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()
	c.Set("ann", "s1")
	gen := c.Generation()
	c.ApplySplit(gen, "s2")
	if got := c.ApplySplit(gen, "s2"); got != SplitNoop {
		t.Fatalf("repeat split should be a no-op, got %s", got)
	}
	if c.SessionID() != "s2" {
		t.Fatalf("session id changed: %s", c.SessionID())
	}
}

func TestSplitLastArrivalWinsButNeverRevives(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()
	c.Set("ann", "s1")
	gen := c.Generation()
	c.ApplySplit(gen, "s2")
	if got := c.ApplySplit(gen, "s3"); got != SplitApplied {
		t.Fatalf("later arrival should win, got %s", got)
	}
	if got := c.ApplySplit(gen, "s2"); got != SplitRetired {
		t.Fatalf("retired id must not be reused, got %s", got)
	}
	if got := c.ApplySplit(gen, "s1"); got != SplitRetired {
		t.Fatalf("original id must not be reused, got %s", got)
	}
	if c.SessionID() != "s3" {
		t.Fatalf("expected s3, got %s", c.SessionID())
	}
}

func TestSplitFromEarlierLoginIsStale(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()
	c.Set("ann", "s1")
	old := c.Generation()
	c.Clear()
	c.Set("bob", "t1")
	if got := c.ApplySplit(old, "s2"); got != SplitStale {
		t.Fatalf("expected stale, got %s", got)
	}
	if c.SessionID() != "t1" {
		t.Fatalf("session changed by stale split: %s", c.SessionID())
	}
}

func TestSplitWithoutSession(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()
	if got := c.ApplySplit(c.Generation(), "s2"); got != SplitNoSession {
		t.Fatalf("expected no_session, got %s", got)
	}
	if got := c.ApplySplit(c.Generation(), ""); got != SplitNoop {
		t.Fatalf("empty id should be a no-op, got %s", got)
	}
}

func TestSetSameSessionKeepsGeneration(t *testing.T) {
	t.Parallel()
	c := NewCoordinator()
	c.Set("ann", "s1")
	gen := c.Generation()
	if c.Set("ann", "s1") {
		t.Fatalf("identical set should report no change")
	}
	if c.Generation() != gen {
		t.Fatalf("generation moved on a no-op set")
	}
	if prev := c.Clear(); prev.ID != "s1" {
		t.Fatalf("clear returned %+v", prev)
	}
	if _, ok := c.Current(); ok {
		t.Fatalf("session should be cleared")
	}
}
