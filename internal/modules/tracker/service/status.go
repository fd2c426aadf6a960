package service

import (
	"fmt"

	"watchtrack/internal/modules/tracker/dto"
	watchdomain "watchtrack/internal/modules/watch/domain"
)

func (s *TrackerService) Status() dto.StatusOutput {
	session, active := s.sessions.Current()
	out := dto.StatusOutput{
		LoggedIn:     active,
		Username:     session.Username,
		SessionID:    session.ID,
		Tracking:     s.tracking,
		CurrentVideo: string(s.current),
		UniqueVideos: s.counter,
		Elements:     len(s.bindings),
		PageVisible:  s.visible,
	}
	for _, rec := range s.catalog.Records() {
		watched := s.tally.Watched(rec.Identity)
		total := watchdomain.RoundSeconds(rec.Duration)
		out.Videos = append(out.Videos, dto.VideoStatus{
			Identity:  string(rec.Identity),
			SourceURL: rec.SourceURL,
			Duration:  total,
			Watched:   watched,
			Status:    string(watchdomain.Classify(watched, total)),
			FirstTime: rec.FirstTime,
			Keys:      len(rec.Keys),
			Current:   rec.Identity == s.current,
		})
	}
	state := s.detector.State()
	out.Inactivity = dto.InactivityStatus{Phase: state.Phase.String(), Since: state.Since, Cause: string(state.Cause)}
	out.Periods = len(s.detector.Log())
	if last, ok := s.detector.Last(); ok {
		out.LastInactivity = &dto.PeriodStatus{Start: last.Start, End: last.End, Duration: last.Seconds(), Type: string(last.Cause)}
	}
	out.CounterText, out.InactivityText = s.counterText()
	return out
}

func (s *TrackerService) counterText() (string, string) {
	length := 0
	if rec, ok := s.catalog.Get(s.current); ok {
		length = watchdomain.RoundSeconds(rec.Duration)
	}
	counter := fmt.Sprintf("Unique Videos: %d | Current Video Length: %ds", s.counter, length)
	last, ok := s.detector.Last()
	if !ok {
		return counter, ""
	}
	return counter, fmt.Sprintf("Last Inactivity: %s | %ds", last.Cause, last.Seconds())
}

func (s *TrackerService) publishCounter() {
	text, detail := s.counterText()
	s.page.Publish(dto.Directive{Action: dto.DirectiveUpdateCounter, Text: text, Detail: detail})
}

// publishPageState replays the gate and counter state for a page that just
// connected.
func (s *TrackerService) publishPageState() {
	if _, active := s.sessions.Current(); active {
		s.page.Publish(dto.Directive{Action: dto.DirectiveUnblock})
	} else {
		s.page.Publish(dto.Directive{Action: dto.DirectiveBlock})
	}
	if s.tracking {
		s.page.Publish(dto.Directive{Action: dto.DirectiveShowCounter})
		s.publishCounter()
	} else {
		s.page.Publish(dto.Directive{Action: dto.DirectiveHideCounter})
	}
}
