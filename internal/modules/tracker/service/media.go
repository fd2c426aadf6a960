package service

import (
	"context"
	"fmt"

	"watchtrack/internal/modules/tracker/dto"
	watchdomain "watchtrack/internal/modules/watch/domain"
	apperrors "watchtrack/internal/platform/errors"
	"watchtrack/internal/platform/metrics"
)

// observe updates the element mirror and registers its identity once
// metadata is ready.
func (s *TrackerService) observe(ev dto.PageEvent) (*binding, error) {
	if ev.ElementID == "" {
		return nil, fmt.Errorf("%w: %s requires element_id", apperrors.ErrInvalidInput, ev.Type)
	}
	b, ok := s.bindings[ev.ElementID]
	if !ok {
		b = &binding{elementID: ev.ElementID}
		s.bindings[ev.ElementID] = b
	}
	if ev.Media != nil {
		b.media = *ev.Media
	}
	if b.media.ReadyState >= 1 {
		s.resolve(b)
	}
	return b, nil
}

func (s *TrackerService) resolve(b *binding) {
	el := b.element()
	id := watchdomain.ResolveIdentity(el)
	if b.registered && id == b.identity {
		return
	}
	if b.registered && s.current == b.identity {
		// metadata changed under a playing element
		if s.tracking {
			s.finalize(b.identity)
		}
		s.current = id
	}
	b.identity = id
	b.registered = true
	if _, created := s.catalog.Register(id, el); created {
		s.log.Debug().Str("video", string(id)).Float64("duration", el.Duration).Msg("video registered")
	}
	s.tally.Ensure(id)
}

func (s *TrackerService) play(ev dto.PageEvent) error {
	b, err := s.observe(ev)
	if err != nil {
		return err
	}
	b.media.Paused = false
	b.media.Ended = false
	if !b.registered || !s.tracking {
		return nil
	}
	if s.current != "" && s.current != b.identity {
		s.finalize(s.current)
	}
	s.current = b.identity
	s.tally.Ensure(b.identity)
	if err := s.page.LockKeyboard(); err != nil && !isUnsupported(err) {
		s.log.Warn().Err(err).Msg("keyboard lock failed")
	}
	s.publishCounter()
	if b.stopTick == nil {
		b.stopTick = s.sched.Every(s.opts.TickInterval, func() { s.tick(b) })
	}
	return nil
}

func (s *TrackerService) tick(b *binding) {
	if !s.tracking || !b.registered || b.media.Paused || b.media.Ended || b.identity != s.current {
		return
	}
	limit := watchdomain.RoundSeconds(b.media.Duration)
	if s.tally.Observe(b.identity, b.media.CurrentTime, limit) {
		metrics.WatchedSeconds.Inc()
	}
}

func (s *TrackerService) pause(ev dto.PageEvent) error {
	b, err := s.observe(ev)
	if err != nil {
		return err
	}
	b.media.Paused = true
	s.stopTicking(b)
	return nil
}

func (s *TrackerService) ended(ev dto.PageEvent) error {
	b, err := s.observe(ev)
	if err != nil {
		return err
	}
	b.media.Ended = true
	s.stopTicking(b)
	if !s.tracking || !b.registered {
		return nil
	}
	s.finalize(b.identity)
	if s.current == b.identity {
		s.current = ""
	}
	return nil
}

func (s *TrackerService) remove(elementID string) {
	b, ok := s.bindings[elementID]
	if !ok {
		return
	}
	s.stopTicking(b)
	delete(s.bindings, elementID)
}

func (s *TrackerService) stopTicking(b *binding) {
	if b.stopTick != nil {
		b.stopTick()
		b.stopTick = nil
	}
}

func (s *TrackerService) captureKey(key string) {
	if !s.tracking || s.current == "" {
		return
	}
	s.catalog.AppendKey(s.current, key)
}

func (s *TrackerService) finalize(id watchdomain.Identity) {
	outcome, ok := watchdomain.Finalize(s.catalog, s.tally, id)
	if !ok {
		return
	}
	s.log.Info().
		Str("video", outcome.SourceURL).
		Int("duration", outcome.Duration).
		Int("watched", outcome.Watched).
		Str("status", string(outcome.Status)).
		Int("keys", len(outcome.Keys)).
		Bool("first_time", outcome.FirstTime).
		Msg("video finalized")
	if !outcome.FirstTime {
		return
	}
	sessionID := s.sessions.SessionID()
	if sessionID == "" {
		metrics.SuppressedReports.WithLabelValues("video").Inc()
		return
	}
	s.counter++
	report := dto.VideoReport{
		Counter:   s.counter,
		SessionID: sessionID,
		VideoID:   outcome.SourceURL,
		Identity:  string(outcome.Identity),
		Duration:  outcome.Duration,
		Watched:   outcome.Watched,
		Status:    string(outcome.Status),
		Keys:      outcome.Keys,
	}
	metrics.VideoReports.WithLabelValues(report.Status).Inc()
	if err := s.journal.RecordVideo(context.Background(), report, s.clock.Now()); err != nil {
		s.log.Warn().Err(err).Msg("journal video report")
	}
	s.publishCounter()

	generation := s.sessions.Generation()
	s.dispatcher.Dispatch(func(ctx context.Context) func() {
		reply, err := s.collector.LogVideo(ctx, report)
		return func() { s.handleReply("log_video", generation, reply, err) }
	})
}
