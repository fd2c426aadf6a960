package domain

type Status string

const (
	NotWatched       Status = "Not Watched"
	BarelyWatched    Status = "Barely Watched"
	PartiallyWatched Status = "Partially Watched"
	MostlyWatched    Status = "Mostly Watched"
	FullyWatched     Status = "Fully Watched"
)

// Classify grades watched seconds against the rounded duration. An unknown
// or zero duration with any watched seconds counts as fully watched.
func Classify(watched, total int) Status {
	if watched <= 0 {
		return NotWatched
	}
	if total <= 0 {
		return FullyWatched
	}
	ratio := float64(watched) / float64(total)
	switch {
	case ratio < 0.25:
		return BarelyWatched
	case ratio < 0.5:
		return PartiallyWatched
	case ratio < 0.9:
		return MostlyWatched
	default:
		return FullyWatched
	}
}
