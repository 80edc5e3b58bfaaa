package models

import (
	"fmt"
	"time"
)

type TimeEntry struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	ProjectID   *string        `json:"project_id"`
	ProjectName *string        `json:"project_name,omitempty"`
	Description string         `json:"description"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     *time.Time     `json:"end_time"`
	Duration    *time.Duration `json:"-"`
	IsRunning   bool           `json:"is_running"`
}

// RecomputeDuration derives the duration from start and end. It must run before every save.
func (e *TimeEntry) RecomputeDuration() {
	if e.EndTime == nil {
		e.Duration = nil
		return
	}
	d := e.EndTime.Sub(e.StartTime)
	e.Duration = &d
}

// Close stops a running entry at the given instant.
func (e *TimeEntry) Close(at time.Time) {
	e.EndTime = &at
	e.IsRunning = false
	e.RecomputeDuration()
}

// FormatClock renders d as HH:MM:SS with unbounded hours. Sub-second parts are truncated.
func FormatClock(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	h, r := secs/3600, secs%3600
	m, s := r/60, r%60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// TimeEntryView adds the derived duration fields rendered to clients.
type TimeEntryView struct {
	TimeEntry
	DurationSeconds *int64  `json:"duration_seconds"`
	DurationDisplay string  `json:"duration_display"`
	ElapsedTime     *string `json:"elapsed_time,omitempty"`
}

// View renders the entry at now. Running entries also carry their elapsed time.
func (e TimeEntry) View(now time.Time) TimeEntryView {
	v := TimeEntryView{TimeEntry: e, DurationDisplay: FormatClock(0)}
	if e.Duration != nil {
		secs := int64(*e.Duration / time.Second)
		v.DurationSeconds = &secs
		v.DurationDisplay = FormatClock(*e.Duration)
	}
	if e.IsRunning {
		elapsed := FormatClock(now.Sub(e.StartTime))
		v.ElapsedTime = &elapsed
	}
	return v
}
