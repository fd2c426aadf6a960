package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	trackerout "watchtrack/internal/modules/tracker/port/out"
	apperrors "watchtrack/internal/platform/errors"
)

// FileDaemonStore keeps the daemon pid, socket and log side by side in one
// runtime directory.
type FileDaemonStore struct {
	pidPath    string
	socketPath string
	logPath    string
}

func NewFileDaemonStore(dir string) trackerout.DaemonStore {
	return &FileDaemonStore{
		pidPath:    filepath.Join(dir, "watchtrack.pid"),
		socketPath: filepath.Join(dir, "watchtrack.sock"),
		logPath:    filepath.Join(dir, "watchtrack.log"),
	}
}

// WritePID replaces the pid file in one rename so a concurrent ReadPID never
// sees a half-written number.
func (s *FileDaemonStore) WritePID(_ context.Context, pid int) error {
	if err := os.MkdirAll(filepath.Dir(s.pidPath), 0o700); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	tmp := s.pidPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write daemon pid: %w", err)
	}
	if err := os.Rename(tmp, s.pidPath); err != nil {
		return fmt.Errorf("replace daemon pid: %w", err)
	}
	return nil
}

// ReadPID returns an error wrapping os.ErrNotExist when no daemon wrote a pid.
func (s *FileDaemonStore) ReadPID(_ context.Context) (int, error) {
	raw, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("decode daemon pid %q: %w", strings.TrimSpace(string(raw)), apperrors.ErrInvalidInput)
	}
	return pid, nil
}

// ClearPID is a no-op when the pid file is already gone.
func (s *FileDaemonStore) ClearPID(_ context.Context) error {
	if err := os.Remove(s.pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon pid: %w", err)
	}
	return nil
}

// SocketPath is where the daemon serves Tracker.* JSON-RPC calls.
func (s *FileDaemonStore) SocketPath() string {
	return s.socketPath
}

func (s *FileDaemonStore) LogPath() string {
	return s.logPath
}
