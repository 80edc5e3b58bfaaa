package models

import "time"

type ActivityAction string

const (
	ActionUserCreate     ActivityAction = "user_create"
	ActionUserUpdate     ActivityAction = "user_update"
	ActionUserDelete     ActivityAction = "user_delete"
	ActionUserSuspend    ActivityAction = "user_suspend"
	ActionUserActivate   ActivityAction = "user_activate"
	ActionTeamDelete     ActivityAction = "team_delete"
	ActionProjectDelete  ActivityAction = "project_delete"
	ActionSettingsUpdate ActivityAction = "settings_update"
	ActionLogin          ActivityAction = "login"
	ActionLogout         ActivityAction = "logout"
)

func IsValidActivityAction(a ActivityAction) bool {
	switch a {
	case ActionUserCreate, ActionUserUpdate, ActionUserDelete, ActionUserSuspend, ActionUserActivate,
		ActionTeamDelete, ActionProjectDelete, ActionSettingsUpdate, ActionLogin, ActionLogout:
		return true
	}
	return false
}

// ActivityLog is one row of the admin audit trail.
type ActivityLog struct {
	ID          string         `json:"id"`
	AdminUserID *string        `json:"admin_user_id,omitempty"`
	AdminEmail  *string        `json:"admin_email,omitempty"`
	Action      ActivityAction `json:"action"`
	TargetType  string         `json:"target_type"`
	TargetID    *string        `json:"target_id,omitempty"`
	Description string         `json:"description"`
	IPAddress   *string        `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedBy   *string   `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
