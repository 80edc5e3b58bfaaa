package models

import "time"

// ProjectTotal is the summed duration of completed entries for one project name.
// A nil ProjectName groups entries without a project.
type ProjectTotal struct {
	ProjectName *string
	Total       time.Duration
}

type ProjectBreakdown struct {
	ProjectName  string `json:"project_name"`
	HoursStr     string `json:"hours_str"`
	TotalSeconds int64  `json:"total_seconds"`
}

type Report struct {
	TotalTime        string             `json:"total_time"`
	TotalSeconds     int64              `json:"total_seconds"`
	ProjectBreakdown []ProjectBreakdown `json:"project_breakdown"`
}
