package in

import (
	"context"

	"watchtrack/internal/modules/tracker/dto"
)

// Usecase is the in-process tracker served by the daemon.
type Usecase interface {
	HandleEvents(ctx context.Context, events []dto.PageEvent) (dto.EventsOutput, error)
	Command(ctx context.Context, cmd dto.Command) error
	Status(ctx context.Context) (dto.StatusOutput, error)
	Directives(ctx context.Context) ([]dto.Directive, error)
	History(ctx context.Context, limit int) (dto.History, error)
}

// Remote drives a running daemon from the CLI.
type Remote interface {
	Command(ctx context.Context, cmd dto.Command) error
	Status(ctx context.Context) (dto.StatusOutput, error)
	History(ctx context.Context, limit int) (dto.History, error)
	DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error)
	StopDaemon(ctx context.Context) error
}
