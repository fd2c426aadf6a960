package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"

	"watchtrack/internal/modules/session/domain"
	sessionout "watchtrack/internal/modules/session/port/out"
)

type FileStateStore struct {
	path string
}

func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

var _ sessionout.StateStore = (*FileStateStore)(nil)

func (s *FileStateStore) Path() string {
	return s.path
}

func (s *FileStateStore) Load(_ context.Context) (domain.StoredState, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.StoredState{}, nil
		}
		return domain.StoredState{}, fmt.Errorf("read state: %w", err)
	}
	state := domain.StoredState{}
	if len(payload) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(payload, &state); err != nil {
		return domain.StoredState{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// Save writes through a temp file and rename so watchers never read a
// partial record.
func (s *FileStateStore) Save(_ context.Context, state domain.StoredState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (s *FileStateStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// Watch follows the state file's directory so creates, renames and removes
// are all seen. onChange only fires when the decoded record differs from the
// last one delivered.
func (s *FileStateStore) Watch(ctx context.Context, onChange func(domain.StoredState)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create state watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch state dir: %w", err)
	}

	last, err := s.Load(ctx)
	if err != nil {
		last = domain.StoredState{}
	}
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			state, err := s.Load(ctx)
			if err != nil {
				// mid-write or corrupt file; the next event will retry
				continue
			}
			if state == last {
				continue
			}
			last = state
			onChange(state)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				continue
			}
			return fmt.Errorf("state watcher: %w", err)
		}
	}
}
