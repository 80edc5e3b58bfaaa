package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInvitationValidity(t *testing.T) {
	created := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	inv := Invitation{
		Status:    InvitationPending,
		CreatedAt: created,
		ExpiresAt: created.Add(7 * 24 * time.Hour),
	}

	require.True(t, inv.IsValid(created))
	require.False(t, inv.IsValid(created.Add(8*24*time.Hour)))
	require.True(t, inv.IsExpired(created.Add(8*24*time.Hour)))
	require.Equal(t, InvitationPending, inv.Status)

	inv.Status = InvitationDeclined
	require.False(t, inv.IsValid(created))
}

func TestInvitationIsLink(t *testing.T) {
	require.True(t, Invitation{Email: "link-abc" + LinkInvitationDomain}.IsLink())
	require.False(t, Invitation{Email: "dev@example.com"}.IsLink())
	require.False(t, Invitation{Email: "someone" + LinkInvitationDomain}.IsLink())
	require.True(t, IsReservedInviteAddress("Someone@INVITE.link"))
}

func TestPageNormalize(t *testing.T) {
	p := Page{}.Normalize()
	require.Equal(t, 1, p.Number)
	require.Equal(t, DefaultPageSize, p.Size)
	require.Equal(t, 0, p.Offset())

	p = Page{Number: 3, Size: 500}.Normalize()
	require.Equal(t, MaxPageSize, p.Size)
	require.Equal(t, 200, p.Offset())
}
