package domain

type Session struct {
	ID       string
	Username string
}

// StoredState is the persisted login record shared by the CLI and the daemon.
type StoredState struct {
	LoggedIn  bool   `json:"loggedIn"`
	Username  string `json:"username,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (s StoredState) Session() Session {
	return Session{ID: s.SessionID, Username: s.Username}
}
