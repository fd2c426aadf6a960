package eventloop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "watchtrack/internal/platform/errors"
)

// Loop serializes all work on one goroutine. Other goroutines post closures;
// asynchronous tasks hand their completion back through Post.
type Loop struct {
	inbox       chan func()
	stopped     chan struct{}
	stopOnce    sync.Once
	inflight    sync.WaitGroup
	taskTimeout time.Duration
	log         zerolog.Logger
}

func New(buffer int, taskTimeout time.Duration, log zerolog.Logger) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	if taskTimeout <= 0 {
		taskTimeout = 15 * time.Second
	}
	return &Loop{
		inbox:       make(chan func(), buffer),
		stopped:     make(chan struct{}),
		taskTimeout: taskTimeout,
		log:         log,
	}
}

// Run drains the inbox until ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.inbox:
			l.safeRun(fn)
		}
	}
}

func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("event handler panicked")
		}
	}()
	fn()
}

// Post queues fn. It is dropped once the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.inbox <- fn:
	case <-l.stopped:
	}
}

// Call runs fn on the loop and waits for it.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("event handler panicked: %v", r)
			}
		}()
		result <- fn()
	}
	select {
	case l.inbox <- wrapped:
	case <-l.stopped:
		return apperrors.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-l.stopped:
		return apperrors.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch runs task off the loop with a timeout and posts the closure it
// returns back onto the loop.
func (l *Loop) Dispatch(task func(ctx context.Context) func()) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.taskTimeout)
		defer cancel()
		if done := task(ctx); done != nil {
			l.Post(done)
		}
	}()
}

// Wait blocks until every dispatched task has returned or ctx ends.
// Completions of tasks that finish after the loop stopped are dropped.
func (l *Loop) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
