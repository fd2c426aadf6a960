package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUnsupported          = errors.New("unsupported platform capability")
	ErrUnknownEvent         = errors.New("unknown page event")
	ErrUnknownCommand       = errors.New("unknown command")
	ErrDaemonNotRunning     = errors.New("tracker daemon is not running")
	ErrCollectorUnavailable = errors.New("collector unavailable")
	ErrLoopStopped          = errors.New("event loop stopped")
)
