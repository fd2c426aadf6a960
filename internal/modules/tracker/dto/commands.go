package dto

const (
	ActionStart         = "start"
	ActionStop          = "stop"
	ActionReset         = "reset"
	ActionResetCounter  = "reset_counter"
	ActionUserLoggedIn  = "user_logged_in"
	ActionUserLoggedOut = "user_logged_out"
)

type Command struct {
	Action    string `json:"action"`
	Username  string `json:"username,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

const (
	DirectiveBlock         = "block"
	DirectiveUnblock       = "unblock"
	DirectiveShowCounter   = "show_counter"
	DirectiveHideCounter   = "hide_counter"
	DirectiveUpdateCounter = "update_counter"
	DirectiveLockKeyboard  = "lock_keyboard"
	DirectiveSessionSplit  = "session_split"
)

// Directive is an instruction for the page script.
type Directive struct {
	Action    string `json:"action"`
	Text      string `json:"text,omitempty"`
	Detail    string `json:"detail,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}
