package service

import (
	"context"
	"time"

	inactivitydomain "watchtrack/internal/modules/inactivity/domain"
	"watchtrack/internal/modules/tracker/dto"
	"watchtrack/internal/platform/metrics"
)

func (s *TrackerService) resume(now time.Time) {
	period, ok := s.detector.Resume(now)
	if !ok {
		return
	}
	s.closePeriod(period)
}

func (s *TrackerService) closePeriod(period inactivitydomain.Period) {
	report := dto.InactivityReport{
		SessionID: s.sessions.SessionID(),
		Start:     period.Start,
		End:       period.End,
		Duration:  period.Seconds(),
		Type:      string(period.Cause),
	}
	metrics.InactivityPeriods.WithLabelValues(report.Type).Inc()
	s.log.Info().
		Str("type", report.Type).
		Time("start", report.Start).
		Time("end", report.End).
		Int("duration", report.Duration).
		Msg("active again")
	if err := s.journal.RecordInactivity(context.Background(), report); err != nil {
		s.log.Warn().Err(err).Msg("journal inactivity period")
	}
	s.publishCounter()

	if report.SessionID == "" {
		metrics.SuppressedReports.WithLabelValues("inactivity").Inc()
		return
	}
	generation := s.sessions.Generation()
	s.dispatcher.Dispatch(func(ctx context.Context) func() {
		reply, err := s.collector.LogInactivity(ctx, report)
		return func() { s.handleReply("log_inactivity", generation, reply, err) }
	})
}
