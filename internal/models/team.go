package models

import "time"

type Team struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     string      `json:"-"`
	Owner       UserSummary `json:"owner"`
	MemberCount int         `json:"member_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TeamMember is an explicit membership row. The owner may or may not have one.
type TeamMember struct {
	TeamID   string      `json:"team_id"`
	UserID   string      `json:"-"`
	User     UserSummary `json:"user"`
	JoinedAt time.Time   `json:"joined_at"`
}

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// Member is a single entry of the synthesised member list.
type Member struct {
	User     UserSummary `json:"user"`
	Role     MemberRole  `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}
