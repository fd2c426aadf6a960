package domain

type Outcome struct {
	Identity  Identity
	SourceURL string
	Duration  int
	Watched   int
	Status    Status
	Keys      []string
	FirstTime bool
}

// Finalize closes out an identity. The returned outcome carries FirstTime so
// the caller can emit the one report an identity gets; the record itself is
// marked as reported and its key buffer cleared either way.
func Finalize(catalog *Catalog, tally *Tally, id Identity) (Outcome, bool) {
	if id == "" || !tally.Has(id) {
		return Outcome{}, false
	}
	rec, ok := catalog.Get(id)
	if !ok {
		return Outcome{}, false
	}
	watched := tally.Watched(id)
	total := RoundSeconds(rec.Duration)
	keys := rec.Keys
	if keys == nil {
		keys = []string{}
	}
	outcome := Outcome{
		Identity:  id,
		SourceURL: rec.SourceURL,
		Duration:  total,
		Watched:   watched,
		Status:    Classify(watched, total),
		Keys:      keys,
		FirstTime: rec.FirstTime,
	}
	rec.FirstTime = false
	rec.Keys = nil
	return outcome, true
}
