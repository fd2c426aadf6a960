package usecase

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	sessiondomain "watchtrack/internal/modules/session/domain"
	"watchtrack/internal/modules/tracker/dto"
	trackerin "watchtrack/internal/modules/tracker/port/in"
	trackerout "watchtrack/internal/modules/tracker/port/out"
)

type servicePort interface {
	Boot(ctx context.Context)
	ApplyStoredState(state sessiondomain.StoredState)
	HandleEvent(ev dto.PageEvent) error
	Command(cmd dto.Command) error
	Status() dto.StatusOutput
	Shutdown()
}

type loopPort interface {
	Run(ctx context.Context) error
	Post(fn func())
	Call(ctx context.Context, fn func() error) error
	Wait(ctx context.Context) error
}

type Deps struct {
	Service servicePort
	Loop    loopPort
	Page    trackerout.PageControl
	Journal trackerout.Journal
	Store   trackerout.StateStore
	Daemon  trackerout.DaemonStore
	IPC     trackerout.IPCServer
	Log     zerolog.Logger
	// DrainTimeout bounds how long shutdown waits for in-flight reports.
	DrainTimeout time.Duration
}

// Interactor serves the tracker from inside the daemon. Every call that
// touches tracker state is funneled through the event loop.
type Interactor struct {
	svc          servicePort
	loop         loopPort
	page         trackerout.PageControl
	journal      trackerout.Journal
	store        trackerout.StateStore
	daemon       trackerout.DaemonStore
	ipc          trackerout.IPCServer
	log          zerolog.Logger
	drainTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

var (
	_ trackerin.Usecase     = (*Interactor)(nil)
	_ trackerout.IPCHandler = (*Interactor)(nil)
)

func NewInteractor(deps Deps) *Interactor {
	if deps.DrainTimeout <= 0 {
		deps.DrainTimeout = 5 * time.Second
	}
	return &Interactor{
		svc:          deps.Service,
		loop:         deps.Loop,
		page:         deps.Page,
		journal:      deps.Journal,
		store:        deps.Store,
		daemon:       deps.Daemon,
		ipc:          deps.IPC,
		log:          deps.Log,
		drainTimeout: deps.DrainTimeout,
		shutdown:     make(chan struct{}),
	}
}

func (i *Interactor) HandleEvents(ctx context.Context, events []dto.PageEvent) (dto.EventsOutput, error) {
	out := dto.EventsOutput{}
	err := i.loop.Call(ctx, func() error {
		for idx, ev := range events {
			if err := i.svc.HandleEvent(ev); err != nil {
				out.Rejected = append(out.Rejected, dto.EventError{Index: idx, Type: ev.Type, Error: err.Error()})
				continue
			}
			out.Accepted++
		}
		return nil
	})
	if err != nil {
		return dto.EventsOutput{}, err
	}
	return out, nil
}

func (i *Interactor) Command(ctx context.Context, cmd dto.Command) error {
	return i.loop.Call(ctx, func() error {
		return i.svc.Command(cmd)
	})
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	var out dto.StatusOutput
	err := i.loop.Call(ctx, func() error {
		out = i.svc.Status()
		return nil
	})
	return out, err
}

// Directives drains the page outbox after everything queued before the call
// has been applied.
func (i *Interactor) Directives(ctx context.Context) ([]dto.Directive, error) {
	var out []dto.Directive
	err := i.loop.Call(ctx, func() error {
		out = i.page.Drain()
		return nil
	})
	if out == nil {
		out = []dto.Directive{}
	}
	return out, err
}

func (i *Interactor) History(ctx context.Context, limit int) (dto.History, error) {
	if limit <= 0 {
		limit = 50
	}
	return i.journal.History(ctx, limit)
}

// Shutdown asks RunDaemon to wind down. It returns before the daemon exits.
func (i *Interactor) Shutdown(context.Context) error {
	i.shutdownOnce.Do(func() { close(i.shutdown) })
	return nil
}

// RunDaemon runs the event loop, the state watcher and the control socket
// until ctx ends or Shutdown is called. On the way out the current video is
// flushed and in-flight reports get DrainTimeout to finish.
func (i *Interactor) RunDaemon(ctx context.Context) error {
	if err := i.daemon.WritePID(ctx, os.Getpid()); err != nil {
		return err
	}
	defer func() {
		if err := i.daemon.ClearPID(context.Background()); err != nil {
			i.log.Warn().Err(err).Msg("clear daemon pid")
		}
	}()

	// the loop outlives ctx so the final flush can still run on it
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = i.loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := i.loop.Call(runCtx, func() error {
		i.svc.Boot(runCtx)
		return nil
	}); err != nil {
		return err
	}

	go func() {
		err := i.store.Watch(runCtx, func(state sessiondomain.StoredState) {
			i.loop.Post(func() { i.svc.ApplyStoredState(state) })
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			i.log.Warn().Err(err).Msg("state watcher stopped")
		}
	}()

	ipcErr := make(chan error, 1)
	go func() {
		ipcErr <- i.ipc.Serve(runCtx, i.daemon.SocketPath(), i)
	}()
	i.log.Info().Int("pid", os.Getpid()).Str("socket", i.daemon.SocketPath()).Msg("daemon started")

	var runErr error
	select {
	case <-ctx.Done():
	case <-i.shutdown:
	case err := <-ipcErr:
		if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}
	cancel()
	i.drain()
	i.log.Info().Msg("daemon stopped")
	return runErr
}

func (i *Interactor) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), i.drainTimeout)
	defer cancel()
	if err := i.loop.Call(ctx, func() error {
		i.svc.Shutdown()
		return nil
	}); err != nil {
		i.log.Warn().Err(err).Msg("flush tracker state")
		return
	}
	if err := i.loop.Wait(ctx); err != nil {
		i.log.Warn().Err(err).Msg("in-flight reports abandoned")
		return
	}
	// completions posted by the finished tasks run before this returns
	_ = i.loop.Call(ctx, func() error { return nil })
}
