package domain

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func pollSeconds(d *Detector, from time.Time, seconds int) (time.Time, bool) {
	now := from
	confirmed := false
	for i := 0; i < seconds; i++ {
		now = now.Add(time.Second)
		if d.Poll(now, true, true) {
			confirmed = true
		}
	}
	return now, confirmed
}

func TestTabHiddenThenShownClosesOnePeriod(t *testing.T) {
	t.Parallel()
	d := NewDetector(DefaultThreshold)
	if !d.Hidden(t0, true) {
		t.Fatalf("hidden while tracking should confirm")
	}
	period, ok := d.Resume(t0.Add(10 * time.Second))
	if !ok {
		t.Fatalf("resume should close the period")
	}
	if period.Cause != TabHidden || period.Seconds() != 10 || !period.Start.Equal(t0) {
		t.Fatalf("unexpected period %+v", period)
	}
	if len(d.Log()) != 1 {
		t.Fatalf("expected one logged period, got %d", len(d.Log()))
	}
	if _, again := d.Resume(t0.Add(11 * time.Second)); again {
		t.Fatalf("second resume must not close another period")
	}
}

func TestIdleConfirmsOnlyAfterThreshold(t *testing.T) {
	t.Parallel()
	d := NewDetector(DefaultThreshold)
	d.Poll(t0, true, true)
	now, confirmed := pollSeconds(d, t0, 119)
	if confirmed || d.State().Phase != Candidate {
		t.Fatalf("confirmed too early at %s", now.Sub(t0))
	}
	now, confirmed = pollSeconds(d, now, 1)
	if !confirmed {
		t.Fatalf("expected confirmation at 120s")
	}
	state := d.State()
	if state.Phase != Confirmed || state.Cause != NoInputActivity || !state.Since.Equal(t0) {
		t.Fatalf("unexpected state %+v", state)
	}
	period, ok := d.Resume(now.Add(5 * time.Second))
	if !ok || period.Seconds() != 125 {
		t.Fatalf("period should count from candidate start, got %+v", period)
	}
}

func TestInputResetsCandidateWindow(t *testing.T) {
	t.Parallel()
	d := NewDetector(DefaultThreshold)
	d.Poll(t0, true, true)
	now, _ := pollSeconds(d, t0, 100)
	if _, ok := d.Resume(now); ok {
		t.Fatalf("resume from candidate should not log a period")
	}
	if _, confirmed := pollSeconds(d, now, 100); confirmed {
		t.Fatalf("window should have restarted after input")
	}
	if len(d.Log()) != 0 {
		t.Fatalf("no period expected")
	}
}

func TestHiddenOrNotTrackingSuspendsCandidate(t *testing.T) {
	t.Parallel()
	d := NewDetector(DefaultThreshold)
	d.Poll(t0, true, true)
	d.Poll(t0.Add(60*time.Second), true, false)
	if d.State().Phase != Active {
		t.Fatalf("hidden page should drop the candidate")
	}
	d.Poll(t0.Add(61*time.Second), false, true)
	if d.State().Phase != Active {
		t.Fatalf("disabled tracking should drop the candidate")
	}
	d.Poll(t0.Add(62*time.Second), true, true)
	if d.Poll(t0.Add(150*time.Second), true, true) {
		t.Fatalf("hidden time must not count toward the threshold")
	}
}

func TestImmediateTriggersDoNotOverlap(t *testing.T) {
	t.Parallel()
	d := NewDetector(DefaultThreshold)
	if !d.Blurred(t0, true) {
		t.Fatalf("blur should confirm")
	}
	if d.Hidden(t0.Add(time.Second), true) {
		t.Fatalf("hidden must not open a second period")
	}
	period, _ := d.Resume(t0.Add(3 * time.Second))
	if period.Cause != WindowBlurred || period.Seconds() != 3 {
		t.Fatalf("unexpected period %+v", period)
	}
	if d.Blurred(t0, false) {
		t.Fatalf("blur while not tracking should be ignored")
	}
}

func TestResetKeepsThreshold(t *testing.T) {
	t.Parallel()
	d := NewDetector(10 * time.Second)
	d.Hidden(t0, true)
	d.Resume(t0.Add(time.Second))
	d.Reset()
	if len(d.Log()) != 0 || d.State().Phase != Active {
		t.Fatalf("reset left state")
	}
	d.Poll(t0, true, true)
	if !d.Poll(t0.Add(10*time.Second), true, true) {
		t.Fatalf("threshold lost on reset")
	}
}
