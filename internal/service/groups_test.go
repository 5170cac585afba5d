package service

import (
	"context"
	"testing"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/stretchr/testify/require"
)

// TestGroups_PrivateJoinFlow — заявка в закрытую группу, одобрение, выход.
func TestGroups_PrivateJoinFlow(t *testing.T) {
	s, _, _ := newServiceWithMemory(t)
	ctx := context.Background()
	admin, user := newSession("admin"), newSession("user")
	mustMe(t, s, user)

	g, err := s.CreateGroup(ctx, admin, CreateGroupInput{Name: " club ", IsPrivate: true})
	require.NoError(t, err)
	require.Equal(t, "club", g.Name)
	require.Equal(t, admin.UserID, g.AdminID)
	require.True(t, g.IsMember(admin.UserID))

	g, err = s.JoinGroup(ctx, user, g.ID)
	require.NoError(t, err)
	require.True(t, g.IsPending(user.UserID))
	require.False(t, g.IsMember(user.UserID))

	_, err = s.JoinGroup(ctx, user, g.ID)
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.ApproveMember(ctx, user, g.ID, user.UserID)
	require.ErrorIs(t, err, ErrForbidden)

	g, err = s.ApproveMember(ctx, admin, g.ID, user.UserID)
	require.NoError(t, err)
	require.True(t, g.IsMember(user.UserID))
	require.False(t, g.IsPending(user.UserID))

	page, err := s.ListGroups(ctx, user, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	require.ErrorIs(t, s.LeaveGroup(ctx, admin, g.ID), ErrAdminCannotLeave)
	require.NoError(t, s.LeaveGroup(ctx, user, g.ID))
	require.ErrorIs(t, s.LeaveGroup(ctx, user, g.ID), ErrNotFound)
}

// TestGroups_PublicJoinAndReject — в открытую группу вступают сразу; отклонение заявки.
func TestGroups_PublicJoinAndReject(t *testing.T) {
	s, _, _ := newServiceWithMemory(t)
	ctx := context.Background()
	admin, user, other := newSession("admin"), newSession("user"), newSession("other")

	open, err := s.CreateGroup(ctx, admin, CreateGroupInput{Name: "open"})
	require.NoError(t, err)
	open, err = s.JoinGroup(ctx, user, open.ID)
	require.NoError(t, err)
	require.True(t, open.IsMember(user.UserID))

	closed, err := s.CreateGroup(ctx, admin, CreateGroupInput{Name: "closed", IsPrivate: true})
	require.NoError(t, err)
	_, err = s.JoinGroup(ctx, other, closed.ID)
	require.NoError(t, err)

	closed, err = s.RejectMember(ctx, admin, closed.ID, other.UserID)
	require.NoError(t, err)
	require.False(t, closed.IsPending(other.UserID))
	require.False(t, closed.IsMember(other.UserID))

	_, err = s.RejectMember(ctx, admin, closed.ID, other.UserID)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestGroups_InviteFlow — приглашение, уведомление, вступление по приглашению и отказ.
func TestGroups_InviteFlow(t *testing.T) {
	s, _, _ := newServiceWithMemory(t)
	ctx := context.Background()
	admin, user, other := newSession("admin"), newSession("user"), newSession("other")
	mustMe(t, s, user)
	mustMe(t, s, other)

	g, err := s.CreateGroup(ctx, admin, CreateGroupInput{Name: "club", IsPrivate: true})
	require.NoError(t, err)

	_, err = s.InviteUser(ctx, user, g.ID, other.UserID)
	require.ErrorIs(t, err, ErrForbidden)

	g, err = s.InviteUser(ctx, admin, g.ID, user.UserID)
	require.NoError(t, err)
	require.True(t, g.IsInvited(user.UserID))

	_, err = s.InviteUser(ctx, admin, g.ID, user.UserID)
	require.ErrorIs(t, err, ErrConflict)

	notes, err := s.ListNotifications(ctx, user, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, notes.Items, 1)
	require.Equal(t, models.NotificationGroupInvite, notes.Items[0].Type)
	require.Equal(t, g.ID, notes.Items[0].EntityID)
	require.NoError(t, s.MarkNotificationRead(ctx, user, notes.Items[0].ID))

	// приглашённый вступает в закрытую группу минуя заявку
	g, err = s.JoinGroup(ctx, user, g.ID)
	require.NoError(t, err)
	require.True(t, g.IsMember(user.UserID))
	require.False(t, g.IsInvited(user.UserID))

	_, err = s.InviteUser(ctx, admin, g.ID, other.UserID)
	require.NoError(t, err)
	require.NoError(t, s.DeclineInvite(ctx, other, g.ID))
	require.ErrorIs(t, s.DeclineInvite(ctx, other, g.ID), ErrNotFound)
}

// TestGroups_RemoveAndDelete — исключение участника и удаление группы только администратором.
func TestGroups_RemoveAndDelete(t *testing.T) {
	s, _, _ := newServiceWithMemory(t)
	ctx := context.Background()
	admin, user := newSession("admin"), newSession("user")

	g, err := s.CreateGroup(ctx, admin, CreateGroupInput{Name: "club"})
	require.NoError(t, err)
	_, err = s.JoinGroup(ctx, user, g.ID)
	require.NoError(t, err)

	_, err = s.RemoveMember(ctx, admin, g.ID, admin.UserID)
	require.ErrorIs(t, err, ErrInvalidArgument)

	g, err = s.RemoveMember(ctx, admin, g.ID, user.UserID)
	require.NoError(t, err)
	require.False(t, g.IsMember(user.UserID))

	require.ErrorIs(t, s.DeleteGroup(ctx, user, g.ID), ErrForbidden)
	require.NoError(t, s.DeleteGroup(ctx, admin, g.ID))

	_, err = s.GroupByID(ctx, g.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateGroup(ctx, admin, CreateGroupInput{Name: "  "})
	require.ErrorIs(t, err, ErrInvalidArgument)
}
