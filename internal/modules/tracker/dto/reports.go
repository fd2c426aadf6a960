package dto

import "time"

type VideoReport struct {
	Counter   int
	SessionID string
	VideoID   string
	Identity  string
	Duration  int
	Watched   int
	Status    string
	Keys      []string
}

type InactivityReport struct {
	SessionID string
	Start     time.Time
	End       time.Time
	Duration  int
	Type      string
}

type CollectorReply struct {
	NewSessionID string
}

type VideoHistory struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	VideoID    string    `json:"video_id"`
	Duration   int       `json:"duration"`
	Watched    int       `json:"watched"`
	Status     string    `json:"status"`
	Keys       int       `json:"keys"`
	RecordedAt time.Time `json:"recorded_at"`
}

type InactivityHistory struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Duration  int       `json:"duration"`
	Type      string    `json:"type"`
}

type History struct {
	Videos     []VideoHistory      `json:"videos"`
	Inactivity []InactivityHistory `json:"inactivity"`
}
