package out

import (
	"context"
	"time"

	sessionout "watchtrack/internal/modules/session/port/out"
	"watchtrack/internal/modules/tracker/dto"
)

type Collector interface {
	LogVideo(ctx context.Context, report dto.VideoReport) (dto.CollectorReply, error)
	LogInactivity(ctx context.Context, report dto.InactivityReport) (dto.CollectorReply, error)
	Logout(ctx context.Context, sessionID string) error
}

type Journal interface {
	RecordVideo(ctx context.Context, report dto.VideoReport, at time.Time) error
	RecordInactivity(ctx context.Context, report dto.InactivityReport) error
	History(ctx context.Context, limit int) (dto.History, error)
}

// Dispatcher runs task off the event loop. The closure it returns, if any,
// is run back on the loop.
type Dispatcher interface {
	Dispatch(task func(ctx context.Context) func())
}

// PageControl queues directives for the page script.
type PageControl interface {
	SetCapabilities(capabilities []string)
	// LockKeyboard returns apperrors.ErrUnsupported when the page cannot lock.
	LockKeyboard() error
	Publish(directive dto.Directive)
	Drain() []dto.Directive
}

type StateStore = sessionout.StateStore

type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	SocketPath() string
	LogPath() string
}

type IPCHandler interface {
	Command(ctx context.Context, cmd dto.Command) error
	Status(ctx context.Context) (dto.StatusOutput, error)
	History(ctx context.Context, limit int) (dto.History, error)
	Shutdown(ctx context.Context) error
}

type IPCServer interface {
	Serve(ctx context.Context, socketPath string, handler IPCHandler) error
}

type IPCClient interface {
	Command(ctx context.Context, socketPath string, cmd dto.Command) error
	Status(ctx context.Context, socketPath string) (dto.StatusOutput, error)
	History(ctx context.Context, socketPath string, limit int) (dto.History, error)
	Shutdown(ctx context.Context, socketPath string) error
}
