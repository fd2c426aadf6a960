package dto

import "time"

type VideoStatus struct {
	Identity  string `json:"identity"`
	SourceURL string `json:"source_url"`
	Duration  int    `json:"duration"`
	Watched   int    `json:"watched"`
	Status    string `json:"status"`
	FirstTime bool   `json:"first_time"`
	Keys      int    `json:"keys"`
	Current   bool   `json:"current"`
}

type InactivityStatus struct {
	Phase string    `json:"phase"`
	Since time.Time `json:"since"`
	Cause string    `json:"cause,omitempty"`
}

type PeriodStatus struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int       `json:"duration"`
	Type     string    `json:"type"`
}

type StatusOutput struct {
	LoggedIn       bool             `json:"logged_in"`
	Username       string           `json:"username,omitempty"`
	SessionID      string           `json:"session_id,omitempty"`
	Tracking       bool             `json:"tracking"`
	CurrentVideo   string           `json:"current_video,omitempty"`
	UniqueVideos   int              `json:"unique_videos"`
	Elements       int              `json:"elements"`
	Videos         []VideoStatus    `json:"videos"`
	Inactivity     InactivityStatus `json:"inactivity"`
	Periods        int              `json:"periods"`
	LastInactivity *PeriodStatus    `json:"last_inactivity,omitempty"`
	CounterText    string           `json:"counter_text"`
	InactivityText string           `json:"inactivity_text,omitempty"`
	PageVisible    bool             `json:"page_visible"`
}

type DaemonStatusOutput struct {
	Running    bool
	PID        int
	SocketPath string
	LogPath    string
}
