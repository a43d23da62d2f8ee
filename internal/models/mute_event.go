package models

import (
	"time"

	"gorm.io/gorm"
)

// MuteEvent records one real mute transition applied by the monitor
type MuteEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	Muted       bool           `gorm:"not null" json:"muted"`
	RunID       string         `gorm:"not null;index;size:36" json:"run_id"`
	Target      string         `gorm:"not null" json:"target"`       // Executable the trigger watches
	WindowTitle string         `gorm:"not null" json:"window_title"` // Trigger title at the time
	Backend     string         `gorm:"not null" json:"backend"`      // "wasapi" or "pulse"
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// MuteSpan is one stretch of time the endpoint stayed muted by adspot
type MuteSpan struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Seconds int64     `json:"seconds"`
	Open    bool      `json:"open"` // Still muted at report time
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period         ReportPeriod `json:"period"`
	Interruptions  int          `json:"interruptions"` // Mute events in the period
	Transitions    int          `json:"transitions"`
	MutedSeconds   int64        `json:"muted_seconds"`
	MutedMinutes   float64      `json:"muted_minutes"`
	CurrentlyMuted bool         `json:"currently_muted"`
	Errors         int64        `json:"errors"`
	Spans          []MuteSpan   `json:"spans"`
	GeneratedAt    time.Time    `json:"generated_at"`
}
