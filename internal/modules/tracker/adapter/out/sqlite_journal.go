package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"watchtrack/internal/modules/tracker/dto"
	trackerout "watchtrack/internal/modules/tracker/port/out"
	"watchtrack/internal/platform/id"

	_ "modernc.org/sqlite"
)

// fixed width so stored timestamps sort lexically
const journalTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteJournal keeps a local copy of every report so history survives a
// collector outage.
type SQLiteJournal struct {
	db  *sql.DB
	ids id.Generator
}

var _ trackerout.Journal = (*SQLiteJournal)(nil)

func NewSQLiteJournal(dbPath string, ids id.Generator) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection serializes journal writes and history reads
	db.SetMaxOpenConns(1)
	if ids == nil {
		ids = id.UUID{}
	}
	journal := &SQLiteJournal{db: db, ids: ids}
	if err := journal.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

func (j *SQLiteJournal) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS videos (
  id TEXT PRIMARY KEY,
  counter INTEGER NOT NULL,
  session_id TEXT NOT NULL,
  video_id TEXT NOT NULL,
  identity TEXT NOT NULL,
  duration INTEGER NOT NULL,
  watched INTEGER NOT NULL,
  status TEXT NOT NULL,
  keys TEXT NOT NULL,
  recorded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS inactivity (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  duration INTEGER NOT NULL,
  type TEXT NOT NULL
);
`
	if _, err := j.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create journal tables: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) RecordVideo(ctx context.Context, report dto.VideoReport, at time.Time) error {
	keys := report.Keys
	if keys == nil {
		keys = []string{}
	}
	rawKeys, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}
	const stmt = `
INSERT INTO videos (id, counter, session_id, video_id, identity, duration, watched, status, keys, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err = j.db.ExecContext(ctx, stmt,
		j.ids.New(),
		report.Counter,
		report.SessionID,
		report.VideoID,
		report.Identity,
		report.Duration,
		report.Watched,
		report.Status,
		string(rawKeys),
		at.UTC().Format(journalTime),
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) RecordInactivity(ctx context.Context, report dto.InactivityReport) error {
	const stmt = `
INSERT INTO inactivity (id, session_id, start_time, end_time, duration, type)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := j.db.ExecContext(ctx, stmt,
		j.ids.New(),
		report.SessionID,
		report.Start.UTC().Format(journalTime),
		report.End.UTC().Format(journalTime),
		report.Duration,
		report.Type,
	)
	if err != nil {
		return fmt.Errorf("insert inactivity: %w", err)
	}
	return nil
}

// History returns up to limit rows of each kind, newest first.
func (j *SQLiteJournal) History(ctx context.Context, limit int) (dto.History, error) {
	videos, err := j.videos(ctx, limit)
	if err != nil {
		return dto.History{}, err
	}
	periods, err := j.periods(ctx, limit)
	if err != nil {
		return dto.History{}, err
	}
	return dto.History{Videos: videos, Inactivity: periods}, nil
}

func (j *SQLiteJournal) videos(ctx context.Context, limit int) ([]dto.VideoHistory, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT id, session_id, video_id, duration, watched, status, keys, recorded_at
FROM videos ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()
	out := []dto.VideoHistory{}
	for rows.Next() {
		var (
			row               dto.VideoHistory
			rawKeys, recorded string
		)
		if err := rows.Scan(&row.ID, &row.SessionID, &row.VideoID, &row.Duration, &row.Watched, &row.Status, &rawKeys, &recorded); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		var keys []string
		if err := json.Unmarshal([]byte(rawKeys), &keys); err != nil {
			return nil, fmt.Errorf("decode keys: %w", err)
		}
		row.Keys = len(keys)
		if row.RecordedAt, err = time.Parse(journalTime, recorded); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return out, nil
}

func (j *SQLiteJournal) periods(ctx context.Context, limit int) ([]dto.InactivityHistory, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT id, session_id, start_time, end_time, duration, type
FROM inactivity ORDER BY end_time DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query inactivity: %w", err)
	}
	defer rows.Close()
	out := []dto.InactivityHistory{}
	for rows.Next() {
		var (
			row        dto.InactivityHistory
			start, end string
		)
		if err := rows.Scan(&row.ID, &row.SessionID, &start, &end, &row.Duration, &row.Type); err != nil {
			return nil, fmt.Errorf("scan inactivity: %w", err)
		}
		if row.Start, err = time.Parse(journalTime, start); err != nil {
			return nil, fmt.Errorf("parse start_time: %w", err)
		}
		if row.End, err = time.Parse(journalTime, end); err != nil {
			return nil, fmt.Errorf("parse end_time: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inactivity: %w", err)
	}
	return out, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
