package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	sessiondomain "watchtrack/internal/modules/session/domain"
	"watchtrack/internal/modules/tracker/dto"
	trackerout "watchtrack/internal/modules/tracker/port/out"
	apperrors "watchtrack/internal/platform/errors"
	"watchtrack/internal/platform/eventloop"
)

type fakeService struct {
	mu       sync.Mutex
	booted   bool
	applied  []sessiondomain.StoredState
	events   []string
	commands []string
	shutdown bool
}

func (s *fakeService) Boot(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booted = true
}

func (s *fakeService) ApplyStoredState(state sessiondomain.StoredState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, state)
}

func (s *fakeService) HandleEvent(ev dto.PageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Type == "bogus" {
		return apperrors.ErrUnknownEvent
	}
	s.events = append(s.events, ev.Type)
	return nil
}

func (s *fakeService) Command(cmd dto.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd.Action)
	return nil
}

func (s *fakeService) Status() dto.StatusOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dto.StatusOutput{Tracking: len(s.commands) > 0, Elements: len(s.events)}
}

func (s *fakeService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
}

type fakePage struct {
	mu      sync.Mutex
	pending []dto.Directive
}

func (p *fakePage) SetCapabilities([]string) {}
func (p *fakePage) LockKeyboard() error      { return apperrors.ErrUnsupported }
func (p *fakePage) Publish(d dto.Directive) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, d)
}
func (p *fakePage) Drain() []dto.Directive {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

type fakeJournal struct{ limit int }

func (j *fakeJournal) RecordVideo(context.Context, dto.VideoReport, time.Time) error  { return nil }
func (j *fakeJournal) RecordInactivity(context.Context, dto.InactivityReport) error { return nil }
func (j *fakeJournal) History(_ context.Context, limit int) (dto.History, error) {
	j.limit = limit
	return dto.History{}, nil
}

type fakeStore struct {
	change   sessiondomain.StoredState
	watching chan struct{}
}

func (s *fakeStore) Load(context.Context) (sessiondomain.StoredState, error) {
	return sessiondomain.StoredState{}, nil
}
func (s *fakeStore) Save(context.Context, sessiondomain.StoredState) error { return nil }
func (s *fakeStore) Clear(context.Context) error                           { return nil }
func (s *fakeStore) Watch(ctx context.Context, onChange func(sessiondomain.StoredState)) error {
	onChange(s.change)
	close(s.watching)
	<-ctx.Done()
	return ctx.Err()
}

type fakeDaemonStore struct {
	mu      sync.Mutex
	pid     int
	written bool
	socket  string
}

func (d *fakeDaemonStore) WritePID(_ context.Context, pid int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pid, d.written = pid, true
	return nil
}

func (d *fakeDaemonStore) ReadPID(context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pid == 0 {
		return 0, os.ErrNotExist
	}
	return d.pid, nil
}

func (d *fakeDaemonStore) ClearPID(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pid = 0
	return nil
}

func (d *fakeDaemonStore) SocketPath() string { return d.socket }
func (d *fakeDaemonStore) LogPath() string    { return "daemon.log" }

type fakeIPCServer struct {
	handler chan trackerout.IPCHandler
}

func (s *fakeIPCServer) Serve(ctx context.Context, _ string, h trackerout.IPCHandler) error {
	s.handler <- h
	<-ctx.Done()
	return nil
}

type daemonFixture struct {
	interactor *Interactor
	svc        *fakeService
	store      *fakeStore
	daemon     *fakeDaemonStore
	ipc        *fakeIPCServer
}

func newDaemonFixture(t *testing.T) *daemonFixture {
	t.Helper()
	f := &daemonFixture{
		svc: &fakeService{},
		store: &fakeStore{
			change:   sessiondomain.StoredState{LoggedIn: true, Username: "ann", SessionID: "s1"},
			watching: make(chan struct{}),
		},
		daemon: &fakeDaemonStore{socket: "daemon.sock"},
		ipc:    &fakeIPCServer{handler: make(chan trackerout.IPCHandler, 1)},
	}
	f.interactor = NewInteractor(Deps{
		Service: f.svc,
		Loop:    eventloop.New(16, time.Second, zerolog.Nop()),
		Page:    &fakePage{},
		Journal: &fakeJournal{},
		Store:   f.store,
		Daemon:  f.daemon,
		IPC:     f.ipc,
		Log:     zerolog.Nop(),
	})
	return f
}

func TestRunDaemonServesUntilShutdown(t *testing.T) {
	t.Parallel()
	f := newDaemonFixture(t)

	done := make(chan error, 1)
	go func() { done <- f.interactor.RunDaemon(context.Background()) }()

	var handler trackerout.IPCHandler
	select {
	case handler = <-f.ipc.handler:
	case <-time.After(2 * time.Second):
		t.Fatalf("ipc server not started")
	}
	<-f.store.watching
	if err := handler.Command(context.Background(), dto.Command{Action: dto.ActionStart}); err != nil {
		t.Fatalf("command: %v", err)
	}
	status, err := handler.Status(context.Background())
	if err != nil || !status.Tracking {
		t.Fatalf("unexpected status %+v err=%v", status, err)
	}
	if err := handler.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run daemon: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("daemon did not stop")
	}

	f.svc.mu.Lock()
	defer f.svc.mu.Unlock()
	if !f.svc.booted || !f.svc.shutdown {
		t.Fatalf("expected boot and shutdown, got booted=%v shutdown=%v", f.svc.booted, f.svc.shutdown)
	}
	if len(f.svc.applied) != 1 || f.svc.applied[0].SessionID != "s1" {
		t.Fatalf("watched state not applied: %+v", f.svc.applied)
	}
	if !f.daemon.written || f.daemon.pid != 0 {
		t.Fatalf("pid file should be written then cleared")
	}
}

func TestRunDaemonStopsWithContext(t *testing.T) {
	t.Parallel()
	f := newDaemonFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.interactor.RunDaemon(ctx) }()
	<-f.ipc.handler
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run daemon: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("daemon did not stop")
	}
	f.svc.mu.Lock()
	defer f.svc.mu.Unlock()
	if !f.svc.shutdown {
		t.Fatalf("cancellation should still flush tracker state")
	}
}

func TestHandleEventsReportsRejectionsPerIndex(t *testing.T) {
	t.Parallel()
	f := newDaemonFixture(t)
	loop := f.interactor.loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	out, err := f.interactor.HandleEvents(context.Background(), []dto.PageEvent{
		{Type: dto.EventMediaPlay},
		{Type: "bogus"},
		{Type: dto.EventScroll},
	})
	if err != nil {
		t.Fatalf("handle events: %v", err)
	}
	if out.Accepted != 2 || len(out.Rejected) != 1 || out.Rejected[0].Index != 1 {
		t.Fatalf("unexpected output %+v", out)
	}

	directives, err := f.interactor.Directives(context.Background())
	if err != nil || directives == nil {
		t.Fatalf("directives should be an empty list, got %v err=%v", directives, err)
	}
}

func TestHandleEventsFailsWhenLoopStopped(t *testing.T) {
	t.Parallel()
	f := newDaemonFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = f.interactor.loop.Run(ctx)

	_, err := f.interactor.HandleEvents(context.Background(), []dto.PageEvent{{Type: dto.EventScroll}})
	if !errors.Is(err, apperrors.ErrLoopStopped) {
		t.Fatalf("expected loop stopped, got %v", err)
	}
}
