package out_test

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	out "watchtrack/internal/modules/tracker/adapter/out"
	"watchtrack/internal/modules/tracker/dto"
)

type sequenceIDs struct{ n int }

func (s *sequenceIDs) New() string {
	s.n++
	return "row-" + strconv.Itoa(s.n)
}

func TestSQLiteJournalHistoryNewestFirst(t *testing.T) {
	t.Parallel()
	journal, err := out.NewSQLiteJournal(filepath.Join(t.TempDir(), "nested", "journal.db"), &sequenceIDs{})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	ctx := context.Background()
	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	if err := journal.RecordVideo(ctx, dto.VideoReport{Counter: 1, SessionID: "s1", VideoID: "a", Duration: 100, Watched: 95, Status: "Fully Watched", Keys: []string{"a", "b"}}, base); err != nil {
		t.Fatalf("record video: %v", err)
	}
	if err := journal.RecordVideo(ctx, dto.VideoReport{Counter: 2, SessionID: "s1", VideoID: "b", Duration: 60, Status: "Not Watched"}, base.Add(1500*time.Millisecond)); err != nil {
		t.Fatalf("record video: %v", err)
	}
	if err := journal.RecordInactivity(ctx, dto.InactivityReport{SessionID: "", Start: base, End: base.Add(10 * time.Second), Duration: 10, Type: "Window Blurred (Lost Focus)"}); err != nil {
		t.Fatalf("record inactivity: %v", err)
	}

	history, err := journal.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Videos) != 2 || history.Videos[0].VideoID != "b" || history.Videos[1].Keys != 2 {
		t.Fatalf("unexpected videos %+v", history.Videos)
	}
	if !history.Videos[0].RecordedAt.Equal(base.Add(1500 * time.Millisecond)) {
		t.Fatalf("recorded_at lost precision: %v", history.Videos[0].RecordedAt)
	}
	if len(history.Inactivity) != 1 || history.Inactivity[0].Duration != 10 || !history.Inactivity[0].End.Equal(base.Add(10*time.Second)) {
		t.Fatalf("unexpected inactivity %+v", history.Inactivity)
	}

	limited, err := journal.History(ctx, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(limited.Videos) != 1 || limited.Videos[0].ID != "row-2" {
		t.Fatalf("limit should keep the newest row: %+v", limited.Videos)
	}
}

func TestSQLiteJournalEmptyHistory(t *testing.T) {
	t.Parallel()
	journal, err := out.NewSQLiteJournal(filepath.Join(t.TempDir(), "journal.db"), nil)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer journal.Close()
	history, err := journal.History(context.Background(), 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history.Videos == nil || history.Inactivity == nil || len(history.Videos)+len(history.Inactivity) != 0 {
		t.Fatalf("expected empty non-nil lists: %+v", history)
	}
}
