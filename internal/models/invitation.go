package models

import (
	"strings"
	"time"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Placeholder addresses of share-by-link invitations look like link-<uuid>@invite.link.
// The domain is reserved: real invitations may not target it.
const (
	LinkInvitationPrefix = "link-"
	LinkInvitationDomain = "@invite.link"
)

// Invitation represents an invitation to join a team.
type Invitation struct {
	ID          string           `json:"id"`
	TeamID      string           `json:"team_id"`
	Team        Team             `json:"team"`
	Email       string           `json:"email"`
	InvitedByID string           `json:"-"`
	InvitedBy   UserSummary      `json:"invited_by"`
	Token       string           `json:"token"`
	Status      InvitationStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	AcceptedAt  *time.Time       `json:"accepted_at,omitempty"`
}

// IsValid reports whether the invitation can still be accepted at now.
// The stored status is never flipped to expired, so expiry is checked here.
func (i Invitation) IsValid(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}

// IsExpired determines whether the invitation validity window has elapsed.
func (i Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsLink reports whether the invitation carries a placeholder address.
func (i Invitation) IsLink() bool {
	return strings.HasPrefix(i.Email, LinkInvitationPrefix) && IsReservedInviteAddress(i.Email)
}

// IsReservedInviteAddress reports whether email belongs to the placeholder domain.
func IsReservedInviteAddress(email string) bool {
	return strings.HasSuffix(strings.ToLower(email), LinkInvitationDomain)
}

// InvitationDetail is the public rendering of an invitation with its computed state.
type InvitationDetail struct {
	Invitation
	IsValid   bool `json:"is_valid"`
	IsExpired bool `json:"is_expired"`
}

func (i Invitation) Detail(now time.Time) InvitationDetail {
	return InvitationDetail{Invitation: i, IsValid: i.IsValid(now), IsExpired: i.IsExpired(now)}
}
