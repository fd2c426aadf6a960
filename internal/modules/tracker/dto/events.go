package dto

const (
	EventMediaDiscovered     = "media.discovered"
	EventMediaLoadedMetadata = "media.loadedmetadata"
	EventMediaPlay           = "media.play"
	EventMediaPause          = "media.pause"
	EventMediaEnded          = "media.ended"
	EventMediaTimeUpdate     = "media.timeupdate"
	EventMediaRemoved        = "media.removed"
	EventPointerMove         = "input.pointermove"
	EventPointerDown         = "input.pointerdown"
	EventScroll              = "input.scroll"
	EventKeyDown             = "input.keydown"
	EventPageVisibility      = "page.visibility"
	EventWindowBlur          = "window.blur"
	EventWindowFocus         = "window.focus"
	EventPageHello           = "page.hello"
	EventTabsClosed          = "tabs.closed"
)

const CapabilityKeyboardLock = "keyboard_lock"

// PageEvent is one observation posted by the page bridge script.
type PageEvent struct {
	Type          string      `json:"type"`
	ElementID     string      `json:"element_id,omitempty"`
	Media         *MediaState `json:"media,omitempty"`
	Key           string      `json:"key,omitempty"`
	Hidden        *bool       `json:"hidden,omitempty"`         // page.visibility
	Capabilities  []string    `json:"capabilities,omitempty"`   // page.hello
	RemainingTabs *int        `json:"remaining_tabs,omitempty"` // tabs.closed
}

// MediaState mirrors a media element at the time of the event. Durations
// the page cannot express in JSON (NaN, Infinity) arrive as zero.
type MediaState struct {
	CurrentSrc  string  `json:"current_src,omitempty"`
	Src         string  `json:"src,omitempty"`
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ReadyState  int     `json:"ready_state"`
	CurrentTime float64 `json:"current_time"`
	Paused      bool    `json:"paused"`
	Ended       bool    `json:"ended"`
}

type EventsOutput struct {
	Accepted int          `json:"accepted"`
	Rejected []EventError `json:"rejected,omitempty"`
}

type EventError struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Error string `json:"error"`
}
