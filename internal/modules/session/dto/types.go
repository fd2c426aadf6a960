package dto

type LoginInput struct {
	Username string
	Password string
}

type LoginOutput struct {
	Username  string
	SessionID string
	// Generated is set when the collector accepted the login without
	// assigning a session id.
	Generated bool
}

type LogoutInput struct {
	// NotifyCollector posts /logout for the stored session. The daemon
	// already does this on stop, so callers skip it when the daemon ran.
	NotifyCollector bool
}

type LogoutOutput struct {
	Username  string
	SessionID string
	RemoteErr string
}

type StateOutput struct {
	LoggedIn  bool
	Username  string
	SessionID string
}
