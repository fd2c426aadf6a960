package in

import (
	"context"

	"watchtrack/internal/modules/tracker/dto"
	trackerin "watchtrack/internal/modules/tracker/port/in"
)

// CLIHandler drives a running daemon from the command line.
type CLIHandler struct {
	remote trackerin.Remote
}

func NewCLIHandler(remote trackerin.Remote) CLIHandler {
	return CLIHandler{remote: remote}
}

func (h CLIHandler) Start(ctx context.Context, username, sessionID string) error {
	return h.remote.Command(ctx, dto.Command{Action: dto.ActionStart, Username: username, SessionID: sessionID})
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.remote.Command(ctx, dto.Command{Action: dto.ActionStop})
}

func (h CLIHandler) Reset(ctx context.Context) error {
	return h.remote.Command(ctx, dto.Command{Action: dto.ActionReset})
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.remote.Status(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) (dto.History, error) {
	return h.remote.History(ctx, limit)
}

func (h CLIHandler) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	return h.remote.DaemonStatus(ctx)
}

func (h CLIHandler) StopDaemon(ctx context.Context) error {
	return h.remote.StopDaemon(ctx)
}
