package domain

import (
	"math/rand"
	"testing"
)

func TestObserveCountsDistinctSeconds(t *testing.T) {
	t.Parallel()
	tally := NewTally()
	id := Identity("v")
	for _, pos := range []float64{0, 0.4, 1.1, 1.9, 2.0, 1.5, 3.2} {
		tally.Observe(id, pos, 100)
	}
	if got := tally.Watched(id); got != 4 {
		t.Fatalf("expected seconds 0..3 counted once, got %d", got)
	}
}

func TestObserveIgnoresSeekBackIntoCountedSeconds(t *testing.T) {
	t.Parallel()
	tally := NewTally()
	id := Identity("v")
	for s := 0; s < 10; s++ {
		tally.Observe(id, float64(s), 10)
	}
	for s := 0; s < 10; s++ {
		tally.Observe(id, float64(s)+0.5, 10)
	}
	if got := tally.Watched(id); got != 10 {
		t.Fatalf("replay should not inflate tally, got %d", got)
	}
}

func TestObserveCapsAtLimit(t *testing.T) {
	t.Parallel()
	tally := NewTally()
	id := Identity("v")
	for s := 0; s <= 12; s++ {
		tally.Observe(id, float64(s), 10)
	}
	if got := tally.Watched(id); got != 10 {
		t.Fatalf("expected cap at 10, got %d", got)
	}
}

func TestObserveRejectsInvalidPositions(t *testing.T) {
	t.Parallel()
	tally := NewTally()
	if tally.Observe("v", -1, 0) {
		t.Fatalf("negative position counted")
	}
	if tally.Has("v") {
		t.Fatalf("invalid sample should not create an entry")
	}
}

func TestTallyBoundedAndMonotonicUnderRandomSeeks(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		duration := 1 + rng.Float64()*300
		limit := RoundSeconds(duration)
		tally := NewTally()
		id := Identity("v")
		pos := 0.0
		prev := 0
		for step := 0; step < 600; step++ {
			switch rng.Intn(4) {
			case 0:
				pos = rng.Float64() * duration
			case 1:
				// paused: no sample this tick
				continue
			default:
				pos += 1
				if pos > duration {
					pos = duration
				}
			}
			tally.Observe(id, pos, limit)
			got := tally.Watched(id)
			if got < prev {
				t.Fatalf("run %d: tally decreased %d -> %d", run, prev, got)
			}
			if got > limit {
				t.Fatalf("run %d: tally %d exceeds duration %d", run, got, limit)
			}
			prev = got
		}
	}
}

func TestResetClearsEverything(t *testing.T) {
	t.Parallel()
	tally := NewTally()
	tally.Observe("a", 1, 0)
	tally.Reset()
	if tally.Has("a") || tally.Watched("a") != 0 {
		t.Fatalf("reset left state behind")
	}
	if !tally.Observe("a", 1, 0) {
		t.Fatalf("second 1 should count again after reset")
	}
}
