package out

import (
	"context"
	"time"

	"watchtrack/internal/modules/tracker/dto"
	trackerout "watchtrack/internal/modules/tracker/port/out"
	"watchtrack/internal/platform/collector"
)

// isoMillis matches the collector's expected ISO-8601 UTC timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z"

type CollectorReporter struct {
	client *collector.Client
}

func NewCollectorReporter(client *collector.Client) trackerout.Collector {
	return &CollectorReporter{client: client}
}

func (r *CollectorReporter) LogVideo(ctx context.Context, report dto.VideoReport) (dto.CollectorReply, error) {
	reply, err := r.client.LogVideo(ctx, collector.VideoEntry{
		Counter:   report.Counter,
		SessionID: report.SessionID,
		VideoID:   report.VideoID,
		Duration:  report.Duration,
		Watched:   report.Watched,
		Status:    report.Status,
		Keys:      report.Keys,
	})
	return mapReply(reply), err
}

func (r *CollectorReporter) LogInactivity(ctx context.Context, report dto.InactivityReport) (dto.CollectorReply, error) {
	reply, err := r.client.LogInactivity(ctx, collector.InactivityEntry{
		SessionID: report.SessionID,
		StartTime: formatTime(report.Start),
		EndTime:   formatTime(report.End),
		Duration:  report.Duration,
		Type:      report.Type,
	})
	return mapReply(reply), err
}

func (r *CollectorReporter) Logout(ctx context.Context, sessionID string) error {
	return r.client.Logout(ctx, sessionID)
}

func mapReply(reply collector.Reply) dto.CollectorReply {
	id, _ := reply.SplitTo()
	return dto.CollectorReply{NewSessionID: id}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}
