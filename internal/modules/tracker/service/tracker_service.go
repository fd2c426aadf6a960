package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	inactivitydomain "watchtrack/internal/modules/inactivity/domain"
	sessiondomain "watchtrack/internal/modules/session/domain"
	"watchtrack/internal/modules/tracker/dto"
	trackerout "watchtrack/internal/modules/tracker/port/out"
	watchdomain "watchtrack/internal/modules/watch/domain"
	"watchtrack/internal/platform/clock"
	apperrors "watchtrack/internal/platform/errors"
	"watchtrack/internal/platform/metrics"
	"watchtrack/internal/platform/scheduler"
)

type Options struct {
	TickInterval        time.Duration
	PollInterval        time.Duration
	InactivityThreshold time.Duration
}

type Deps struct {
	Clock      clock.Clock
	Scheduler  scheduler.Scheduler
	Dispatcher trackerout.Dispatcher
	Collector  trackerout.Collector
	Journal    trackerout.Journal
	Page       trackerout.PageControl
	Store      trackerout.StateStore
	Log        zerolog.Logger
}

// TrackerService owns all watch, inactivity and session state. It is not
// safe for concurrent use; every method must run on the event loop.
type TrackerService struct {
	clock      clock.Clock
	sched      scheduler.Scheduler
	dispatcher trackerout.Dispatcher
	collector  trackerout.Collector
	journal    trackerout.Journal
	page       trackerout.PageControl
	store      trackerout.StateStore
	log        zerolog.Logger
	opts       Options

	catalog  *watchdomain.Catalog
	tally    *watchdomain.Tally
	detector *inactivitydomain.Detector
	sessions *sessiondomain.Coordinator

	bindings map[string]*binding
	current  watchdomain.Identity
	tracking bool
	visible  bool
	counter  int
	stopPoll scheduler.Cancel
}

type binding struct {
	elementID  string
	media      dto.MediaState
	identity   watchdomain.Identity
	registered bool
	stopTick   scheduler.Cancel
}

func (b *binding) element() watchdomain.MediaElement {
	return watchdomain.MediaElement{
		CurrentSrc: b.media.CurrentSrc,
		Src:        b.media.Src,
		Duration:   b.media.Duration,
		Width:      b.media.Width,
		Height:     b.media.Height,
	}
}

func NewTrackerService(deps Deps, opts Options) *TrackerService {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &TrackerService{
		clock:      deps.Clock,
		sched:      deps.Scheduler,
		dispatcher: deps.Dispatcher,
		collector:  deps.Collector,
		journal:    deps.Journal,
		page:       deps.Page,
		store:      deps.Store,
		log:        deps.Log,
		opts:       opts,
		catalog:    watchdomain.NewCatalog(),
		tally:      watchdomain.NewTally(),
		detector:   inactivitydomain.NewDetector(opts.InactivityThreshold),
		sessions:   sessiondomain.NewCoordinator(),
		bindings:   map[string]*binding{},
		visible:    true,
	}
}

// Boot adopts the persisted login state and tells the page whether to block.
func (s *TrackerService) Boot(ctx context.Context) {
	state, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("load stored state; starting logged out")
		state = sessiondomain.StoredState{}
	}
	if state.LoggedIn {
		s.sessions.Set(state.Username, state.SessionID)
	}
	s.publishPageState()
}

// ApplyStoredState reconciles an external change of the persisted state.
func (s *TrackerService) ApplyStoredState(state sessiondomain.StoredState) {
	current, active := s.sessions.Current()
	if state.LoggedIn {
		if active && current == state.Session() {
			return
		}
		// a late read of a file we wrote before the latest split
		if active && state.Username == current.Username && s.sessions.Retired(state.SessionID) {
			s.log.Debug().Str("stored", state.SessionID).Str("current", current.ID).Msg("ignoring stale stored session")
			s.persistSessionID(current.ID)
			return
		}
		s.userLoggedIn(state.Username, state.SessionID)
		return
	}
	if active {
		s.userLoggedOut()
	}
}

func (s *TrackerService) HandleEvent(ev dto.PageEvent) error {
	now := s.clock.Now()
	switch ev.Type {
	case dto.EventMediaDiscovered, dto.EventMediaLoadedMetadata, dto.EventMediaTimeUpdate:
		if _, err := s.observe(ev); err != nil {
			return err
		}
	case dto.EventMediaPlay:
		if err := s.play(ev); err != nil {
			return err
		}
	case dto.EventMediaPause:
		if err := s.pause(ev); err != nil {
			return err
		}
	case dto.EventMediaEnded:
		if err := s.ended(ev); err != nil {
			return err
		}
	case dto.EventMediaRemoved:
		s.remove(ev.ElementID)
	case dto.EventKeyDown:
		s.captureKey(ev.Key)
		s.resume(now)
	case dto.EventPointerMove, dto.EventPointerDown, dto.EventScroll, dto.EventWindowFocus:
		s.resume(now)
	case dto.EventPageVisibility:
		if ev.Hidden == nil {
			return fmt.Errorf("%w: page.visibility requires hidden", apperrors.ErrInvalidInput)
		}
		if *ev.Hidden {
			s.visible = false
			if s.detector.Hidden(now, s.tracking) {
				s.log.Debug().Msg("inactivity started: tab hidden")
			}
		} else {
			s.visible = true
			s.resume(now)
		}
	case dto.EventWindowBlur:
		if s.detector.Blurred(now, s.tracking) {
			s.log.Debug().Msg("inactivity started: window blurred")
		}
	case dto.EventPageHello:
		s.page.SetCapabilities(ev.Capabilities)
		s.visible = true
		s.publishPageState()
	case dto.EventTabsClosed:
		if ev.RemainingTabs != nil && *ev.RemainingTabs == 0 {
			s.autoLogout()
		}
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownEvent, ev.Type)
	}
	metrics.PageEvents.WithLabelValues(ev.Type).Inc()
	return nil
}

func (s *TrackerService) Command(cmd dto.Command) error {
	switch cmd.Action {
	case dto.ActionStart:
		s.start(cmd.Username, cmd.SessionID)
	case dto.ActionStop:
		s.stop()
	case dto.ActionReset, dto.ActionResetCounter:
		s.reset()
	case dto.ActionUserLoggedIn:
		s.userLoggedIn(cmd.Username, cmd.SessionID)
	case dto.ActionUserLoggedOut:
		s.userLoggedOut()
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownCommand, cmd.Action)
	}
	return nil
}

// Shutdown flushes the current video and halts timers without ending the
// session, so a restarted daemon picks the login back up.
func (s *TrackerService) Shutdown() {
	if s.tracking && s.current != "" {
		s.finalize(s.current)
		s.current = ""
	}
	s.tracking = false
	s.haltTimers()
}

func (s *TrackerService) start(username, sessionID string) {
	if username == "" && sessionID == "" {
		current, _ := s.sessions.Current()
		username, sessionID = current.Username, current.ID
	}
	s.sessions.Set(username, sessionID)
	s.tally.Reset()
	s.counter = 0
	s.tracking = true
	if s.stopPoll == nil {
		s.stopPoll = s.sched.Every(s.opts.PollInterval, s.poll)
	}
	if sessionID == "" {
		s.log.Warn().Str("username", username).Msg("tracking without a session id; reports are suppressed")
	}
	s.log.Info().Str("username", username).Str("session_id", sessionID).Msg("tracking started")
	s.page.Publish(dto.Directive{Action: dto.DirectiveShowCounter})
	s.publishCounter()
}

func (s *TrackerService) stop() {
	s.tracking = false
	if s.current != "" {
		s.finalize(s.current)
		s.current = ""
	}
	s.haltTimers()
	s.detector.Suspend()
	prev := s.sessions.Clear()
	if prev.ID != "" {
		s.dispatchLogout(prev.ID)
	}
	s.log.Info().Str("session_id", prev.ID).Msg("tracking stopped")
	s.page.Publish(dto.Directive{Action: dto.DirectiveHideCounter})
}

func (s *TrackerService) reset() {
	s.catalog.Reset()
	s.tally.Reset()
	s.detector.Reset()
	s.current = ""
	s.counter = 0
	for _, b := range s.bindings {
		s.stopTicking(b)
		b.registered = false
		b.identity = ""
	}
	s.log.Info().Msg("counters and inactivity log reset")
	s.publishCounter()
}

func (s *TrackerService) userLoggedIn(username, sessionID string) {
	s.sessions.Set(username, sessionID)
	s.log.Info().Str("username", username).Msg("user logged in")
	s.page.Publish(dto.Directive{Action: dto.DirectiveUnblock})
}

func (s *TrackerService) userLoggedOut() {
	s.sessions.Clear()
	s.tracking = false
	s.haltTimers()
	s.detector.Suspend()
	s.log.Info().Msg("user logged out")
	s.page.Publish(dto.Directive{Action: dto.DirectiveHideCounter})
	s.page.Publish(dto.Directive{Action: dto.DirectiveBlock})
}

// autoLogout ends the session once the last tracked tab is gone.
func (s *TrackerService) autoLogout() {
	current, _ := s.sessions.Current()
	if current.ID == "" {
		return
	}
	s.tracking = false
	if s.current != "" {
		s.finalize(s.current)
		s.current = ""
	}
	s.haltTimers()
	s.detector.Suspend()
	s.sessions.Clear()
	s.dispatchLogout(current.ID)
	if err := s.store.Clear(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("clear stored state")
	}
	s.log.Info().Str("session_id", current.ID).Msg("last tab closed; logged out")
	s.page.Publish(dto.Directive{Action: dto.DirectiveHideCounter})
	s.page.Publish(dto.Directive{Action: dto.DirectiveBlock})
}

func (s *TrackerService) poll() {
	if s.detector.Poll(s.clock.Now(), s.tracking, s.visible) {
		s.log.Debug().Msg("inactivity started: no input")
	}
}

func (s *TrackerService) haltTimers() {
	for _, b := range s.bindings {
		s.stopTicking(b)
	}
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
}

func (s *TrackerService) dispatchLogout(sessionID string) {
	s.dispatcher.Dispatch(func(ctx context.Context) func() {
		err := s.collector.Logout(ctx, sessionID)
		if err == nil {
			return nil
		}
		return func() {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("collector logout failed")
		}
	})
}

func (s *TrackerService) handleReply(endpoint string, generation uint64, reply dto.CollectorReply, err error) {
	if err != nil {
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("collector report failed")
		return
	}
	if reply.NewSessionID == "" {
		return
	}
	previous := s.sessions.SessionID()
	result := s.sessions.ApplySplit(generation, reply.NewSessionID)
	if result != sessiondomain.SplitApplied {
		s.log.Debug().Str("endpoint", endpoint).Str("result", string(result)).Str("new_session_id", reply.NewSessionID).Msg("split directive ignored")
		return
	}
	metrics.SessionSplits.Inc()
	s.log.Info().Str("from", previous).Str("to", reply.NewSessionID).Msg("session split")
	s.persistSessionID(reply.NewSessionID)
	s.page.Publish(dto.Directive{Action: dto.DirectiveSessionSplit, SessionID: reply.NewSessionID})
}

func (s *TrackerService) persistSessionID(sessionID string) {
	ctx := context.Background()
	state, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("load stored state for split")
		return
	}
	if !state.LoggedIn || state.SessionID == sessionID {
		return
	}
	state.SessionID = sessionID
	if err := s.store.Save(ctx, state); err != nil {
		s.log.Warn().Err(err).Msg("persist split session id")
	}
}

func isUnsupported(err error) bool {
	return errors.Is(err, apperrors.ErrUnsupported)
}
