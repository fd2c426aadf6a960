package collector

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

type VideoEntry struct {
	Counter   int      `json:"counter"`
	SessionID string   `json:"session_id"`
	VideoID   string   `json:"videoId"`
	Duration  int      `json:"duration"`
	Watched   int      `json:"watched"`
	Status    string   `json:"status"`
	Keys      []string `json:"keys"`
}

type InactivityEntry struct {
	SessionID string `json:"session_id"`
	StartTime string `json:"starttime"`
	EndTime   string `json:"endtime"`
	Duration  int    `json:"duration"`
	Type      string `json:"type"`
}

// Reply is the body of a log_video or log_inactivity response.
type Reply struct {
	Action       string `json:"action,omitempty"`
	NewSessionID string `json:"new_session_id,omitempty"`
}

const ActionSessionSplit = "session_split"

// SplitTo reports the session id that replaces the current one, if any.
func (r Reply) SplitTo() (string, bool) {
	if r.NewSessionID == "" {
		return "", false
	}
	return r.NewSessionID, true
}
