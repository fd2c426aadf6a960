package scheduler

import (
	"sort"
	"sync"
	"time"

	"watchtrack/internal/platform/clock"
)

// Cancel stops a periodic task. It is safe to call more than once.
type Cancel func()

type Scheduler interface {
	Every(interval time.Duration, task func()) Cancel
}

// Ticking drives tasks from clock tickers. Ticks are never run on the ticker
// goroutine; each one is handed to post so the owner of the state runs it.
type Ticking struct {
	clock clock.Clock
	post  func(func())
}

func NewTicking(clk clock.Clock, post func(func())) *Ticking {
	return &Ticking{clock: clk, post: post}
}

func (s *Ticking) Every(interval time.Duration, task func()) Cancel {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				s.post(func() {
					// a tick queued before cancel must not run after it
					select {
					case <-done:
						return
					default:
					}
					task()
				})
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}

// Manual runs registered tasks only when Tick is called.
type Manual struct {
	next  int
	tasks map[int]manualTask
}

type manualTask struct {
	interval time.Duration
	run      func()
}

func NewManual() *Manual {
	return &Manual{tasks: map[int]manualTask{}}
}

func (m *Manual) Every(interval time.Duration, task func()) Cancel {
	id := m.next
	m.next++
	m.tasks[id] = manualTask{interval: interval, run: task}
	return func() { delete(m.tasks, id) }
}

// Tick fires every active task once in registration order. Tasks cancelled
// by an earlier task in the same tick are skipped.
func (m *Manual) Tick() {
	ids := make([]int, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		task, ok := m.tasks[id]
		if !ok {
			continue
		}
		task.run()
	}
}

func (m *Manual) TickN(n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

func (m *Manual) Active() int {
	return len(m.tasks)
}
