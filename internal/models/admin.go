package models

// AdminUser is a user row annotated with activity counts.
type AdminUser struct {
	User
	TotalTimeEntries int `json:"total_time_entries"`
	TeamsCount       int `json:"teams_count"`
	ProjectsCount    int `json:"projects_count"`
}

type AdminTeam struct {
	Team
	ProjectsCount int `json:"projects_count"`
}

// AdminTeamDetail is the staff view of a single team.
type AdminTeamDetail struct {
	AdminTeam
	Members  []Member  `json:"members"`
	Projects []Project `json:"projects"`
}

type AdminProject struct {
	Project
	TeamName         *string `json:"team_name,omitempty"`
	TimeEntriesCount int     `json:"time_entries_count"`
}

// Overview holds the admin dashboard totals.
type Overview struct {
	TotalUsers           int `json:"total_users"`
	ActiveUsers          int `json:"active_users"`
	TotalTeams           int `json:"total_teams"`
	TotalProjects        int `json:"total_projects"`
	TotalTimeEntries     int `json:"total_time_entries"`
	NewUsersThisMonth    int `json:"new_users_this_month"`
	NewTeamsThisMonth    int `json:"new_teams_this_month"`
	NewProjectsThisMonth int `json:"new_projects_this_month"`
}

// DailyCount is the number of rows falling on one UTC day (YYYY-MM-DD).
type DailyCount struct {
	Day   string
	Count int
}

// DailyActivity holds the activity counters of one UTC day.
type DailyActivity struct {
	Day         string
	TimeEntries int
	NewProjects int
	ActiveUsers int
}

type GrowthPoint struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

type ActivityPoint struct {
	Date        string `json:"date"`
	TimeEntries int    `json:"time_entries"`
	NewProjects int    `json:"new_projects"`
	ActiveUsers int    `json:"active_users"`
}

// DayLayout formats the date keys of analytics series.
const DayLayout = "2006-01-02"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

type Paginated[T interface{}] struct {
	Count    int `json:"count"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Results  []T `json:"results"`
}

type UserFilter struct {
	Status string // active, inactive, staff
	Search string
	Page   Page
}

type TeamFilter struct {
	Search string
	Page   Page
}

type ProjectFilter struct {
	Type   ProjectType
	Search string
	Page   Page
}

type ActivityFilter struct {
	Action  ActivityAction
	AdminID string
	Page    Page
}
