package eventloop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "watchtrack/internal/platform/errors"
	"watchtrack/internal/platform/eventloop"
)

func startLoop(t *testing.T) (*eventloop.Loop, context.CancelFunc) {
	t.Helper()
	loop := eventloop.New(8, time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	return loop, cancel
}

func TestCallRunsOnLoopInOrder(t *testing.T) {
	t.Parallel()
	loop, cancel := startLoop(t)
	defer cancel()

	var order []int
	for i := 0; i < 5; i++ {
		loop.Post(func() { order = append(order, i) })
	}
	err := loop.Call(context.Background(), func() error {
		if len(order) != 5 {
			return errors.New("posted work not drained first")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
}

func TestDispatchPostsCompletion(t *testing.T) {
	t.Parallel()
	loop, cancel := startLoop(t)
	defer cancel()

	done := make(chan string, 1)
	loop.Dispatch(func(ctx context.Context) func() {
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("task context should carry a deadline")
		}
		return func() { done <- "completed" }
	})
	select {
	case got := <-done:
		if got != "completed" {
			t.Fatalf("unexpected %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("completion never ran")
	}
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	t.Parallel()
	loop, cancel := startLoop(t)
	defer cancel()

	loop.Post(func() { panic("boom") })
	if err := loop.Call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("loop should survive a panic: %v", err)
	}
	if err := loop.Call(context.Background(), func() error { panic("again") }); err == nil {
		t.Fatalf("panicking call should report an error")
	}
}

func TestCallAfterStop(t *testing.T) {
	t.Parallel()
	loop, cancel := startLoop(t)
	cancel()
	select {
	case <-loop.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
	}
	for i := 0; i < 20; i++ {
		// fill the buffer so the send cannot win against the stopped channel
		loop.Post(func() {})
	}
	if err := loop.Call(context.Background(), func() error { return nil }); !errors.Is(err, apperrors.ErrLoopStopped) {
		t.Fatalf("expected loop stopped, got %v", err)
	}
}

func TestWaitBlocksOnInflightTasks(t *testing.T) {
	t.Parallel()
	loop, cancel := startLoop(t)
	defer cancel()

	release := make(chan struct{})
	loop.Dispatch(func(context.Context) func() {
		<-release
		return nil
	})
	short, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	if err := loop.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wait to time out, got %v", err)
	}
	close(release)
	if err := loop.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}
