package models

import "time"

type ProjectType string

const (
	ProjectIndividual ProjectType = "individual"
	ProjectGroup      ProjectType = "group"
)

func IsValidProjectType(t ProjectType) bool {
	return t == ProjectIndividual || t == ProjectGroup
}

type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        ProjectType `json:"type"`
	CreatorID   string      `json:"-"`
	Creator     UserSummary `json:"creator"`
	TeamID      *string     `json:"team_id"`
	CreatedAt   time.Time   `json:"created_at"`
}
