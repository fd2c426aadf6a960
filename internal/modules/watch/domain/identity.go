package domain

import (
	"math"
	"strconv"
	"strings"
)

// Identity fingerprints a media resource. Two resources with the same
// source, rounded duration and dimensions share an identity.
type Identity string

type MediaElement struct {
	CurrentSrc string
	Src        string
	Duration   float64
	Width      int
	Height     int
}

func (m MediaElement) SourceURL() string {
	if m.CurrentSrc != "" {
		return m.CurrentSrc
	}
	return m.Src
}

func ResolveIdentity(m MediaElement) Identity {
	src := m.SourceURL()
	if src == "" {
		src = "nosrc"
	}
	duration := "noduration"
	switch {
	case math.IsInf(m.Duration, 1):
		// live streams report an unbounded duration
		duration = "Infinity"
	case math.IsInf(m.Duration, -1):
		duration = "-Infinity"
	default:
		if rounded := RoundSeconds(m.Duration); rounded != 0 {
			duration = strconv.Itoa(rounded)
		}
	}
	dims := strconv.Itoa(m.Width) + "x" + strconv.Itoa(m.Height)
	return Identity(strings.Join([]string{src, duration, dims}, "_"))
}

// RoundSeconds rounds half up. NaN and infinities round to zero.
func RoundSeconds(seconds float64) int {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int(math.Floor(seconds + 0.5))
}
