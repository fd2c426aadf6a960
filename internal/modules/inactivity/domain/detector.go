package domain

import "time"

const DefaultThreshold = 2 * time.Minute

type Phase int

const (
	Active Phase = iota
	Candidate
	Confirmed
)

func (p Phase) String() string {
	switch p {
	case Candidate:
		return "candidate"
	case Confirmed:
		return "confirmed"
	default:
		return "active"
	}
}

type State struct {
	Phase Phase
	Since time.Time
	Cause Cause
}

// Detector tracks page-wide idleness. Polling opens a candidate window that
// is confirmed after the threshold; hidden and blur signals confirm at once.
// Only a resume closes a confirmed period.
type Detector struct {
	threshold time.Duration

	candidateSince time.Time
	hasCandidate   bool

	idleSince time.Time
	cause     Cause
	confirmed bool

	log []Period
}

func NewDetector(threshold time.Duration) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Poll runs once per polling tick. It reports whether this tick confirmed an
// idle period.
func (d *Detector) Poll(now time.Time, tracking, visible bool) bool {
	if !tracking || !visible {
		d.hasCandidate = false
		return false
	}
	if !d.hasCandidate {
		d.candidateSince = now
		d.hasCandidate = true
		return false
	}
	if d.confirmed || now.Sub(d.candidateSince) < d.threshold {
		return false
	}
	d.confirm(d.candidateSince, NoInputActivity)
	return true
}

func (d *Detector) Hidden(now time.Time, tracking bool) bool {
	d.hasCandidate = false
	return d.immediate(now, tracking, TabHidden)
}

func (d *Detector) Blurred(now time.Time, tracking bool) bool {
	return d.immediate(now, tracking, WindowBlurred)
}

func (d *Detector) immediate(now time.Time, tracking bool, cause Cause) bool {
	if !tracking || d.confirmed {
		return false
	}
	d.confirm(now, cause)
	return true
}

func (d *Detector) confirm(since time.Time, cause Cause) {
	d.idleSince = since
	d.cause = cause
	d.confirmed = true
}

// Resume handles any activity signal. The candidate window always restarts;
// a confirmed period is closed, logged and returned.
func (d *Detector) Resume(now time.Time) (Period, bool) {
	d.hasCandidate = false
	if !d.confirmed {
		return Period{}, false
	}
	if now.Before(d.idleSince) {
		now = d.idleSince
	}
	period := Period{
		Start:    d.idleSince,
		End:      now,
		Duration: now.Sub(d.idleSince),
		Cause:    d.cause,
	}
	d.confirmed = false
	d.cause = ""
	d.idleSince = time.Time{}
	d.log = append(d.log, period)
	return period, true
}

// Suspend drops a pending candidate window without touching a confirmed
// period.
func (d *Detector) Suspend() {
	d.hasCandidate = false
}

func (d *Detector) State() State {
	switch {
	case d.confirmed:
		return State{Phase: Confirmed, Since: d.idleSince, Cause: d.cause}
	case d.hasCandidate:
		return State{Phase: Candidate, Since: d.candidateSince}
	default:
		return State{Phase: Active}
	}
}

func (d *Detector) Log() []Period {
	return append([]Period(nil), d.log...)
}

func (d *Detector) Last() (Period, bool) {
	if len(d.log) == 0 {
		return Period{}, false
	}
	return d.log[len(d.log)-1], true
}

func (d *Detector) Reset() {
	threshold := d.threshold
	*d = Detector{threshold: threshold}
}
