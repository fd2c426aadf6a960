package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"watchtrack/internal/modules/tracker/dto"
	trackerin "watchtrack/internal/modules/tracker/port/in"
	trackerout "watchtrack/internal/modules/tracker/port/out"
	apperrors "watchtrack/internal/platform/errors"
)

const stopWait = 3 * time.Second

// RemoteInteractor drives a daemon running in another process.
type RemoteInteractor struct {
	client trackerout.IPCClient
	daemon trackerout.DaemonStore
}

func NewRemote(client trackerout.IPCClient, daemon trackerout.DaemonStore) trackerin.Remote {
	return &RemoteInteractor{client: client, daemon: daemon}
}

func (r *RemoteInteractor) Command(ctx context.Context, cmd dto.Command) error {
	return r.client.Command(ctx, r.daemon.SocketPath(), cmd)
}

func (r *RemoteInteractor) Status(ctx context.Context) (dto.StatusOutput, error) {
	return r.client.Status(ctx, r.daemon.SocketPath())
}

func (r *RemoteInteractor) History(ctx context.Context, limit int) (dto.History, error) {
	return r.client.History(ctx, r.daemon.SocketPath(), limit)
}

func (r *RemoteInteractor) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	out := dto.DaemonStatusOutput{SocketPath: r.daemon.SocketPath(), LogPath: r.daemon.LogPath()}
	pid, err := r.daemon.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return out, err
	}
	out.PID = pid
	if !processAlive(pid) {
		return out, nil
	}
	if _, err := r.client.Status(ctx, r.daemon.SocketPath()); err == nil {
		out.Running = true
	}
	return out, nil
}

// StopDaemon asks the daemon to exit over the socket and falls back to
// SIGTERM when the socket is gone but the process is still alive.
func (r *RemoteInteractor) StopDaemon(ctx context.Context) error {
	err := r.client.Shutdown(ctx, r.daemon.SocketPath())
	if err != nil && !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		return err
	}
	pid, pidErr := r.daemon.ReadPID(ctx)
	if pidErr != nil {
		if errors.Is(pidErr, os.ErrNotExist) {
			if err != nil {
				return apperrors.ErrDaemonNotRunning
			}
			return nil
		}
		return pidErr
	}
	if err != nil && processAlive(pid) {
		if killErr := syscall.Kill(pid, syscall.SIGTERM); killErr != nil && !errors.Is(killErr, syscall.ESRCH) {
			return fmt.Errorf("stop daemon pid=%d: %w", pid, killErr)
		}
	}
	deadline := time.Now().Add(stopWait)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon pid=%d did not exit within %s", pid, stopWait)
	}
	if err := r.daemon.ClearPID(ctx); err != nil {
		return err
	}
	_ = os.Remove(r.daemon.SocketPath())
	return nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
