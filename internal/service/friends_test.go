package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/stretchr/testify/require"
)

// TestFriendRequest_SendAccept — заявка видна обеим сторонам, принятие делает друзьями обоих.
func TestFriendRequest_SendAccept(t *testing.T) {
	s, st, _ := newServiceWithMemory(t)
	ctx := context.Background()
	alice, bob := newSession("alice"), newSession("bob")
	mustMe(t, s, alice)
	mustMe(t, s, bob)

	require.NoError(t, s.SendFriendRequest(ctx, alice, bob.UserID))

	a, _ := st.UserByID(ctx, alice.UserID)
	b, _ := st.UserByID(ctx, bob.UserID)
	require.Equal(t, []string{bob.UserID}, a.OutgoingFriendRequests)
	require.Equal(t, []string{alice.UserID}, b.IncomingFriendRequests)

	// повтор и встречная заявка — конфликт
	require.ErrorIs(t, s.SendFriendRequest(ctx, alice, bob.UserID), ErrConflict)
	require.ErrorIs(t, s.SendFriendRequest(ctx, bob, alice.UserID), ErrConflict)

	require.NoError(t, s.AcceptFriendRequest(ctx, bob, alice.UserID))

	a, _ = st.UserByID(ctx, alice.UserID)
	b, _ = st.UserByID(ctx, bob.UserID)
	require.Empty(t, a.OutgoingFriendRequests)
	require.Empty(t, b.IncomingFriendRequests)
	require.Equal(t, []string{bob.UserID}, a.Friends)
	require.Equal(t, []string{alice.UserID}, b.Friends)

	require.ErrorIs(t, s.SendFriendRequest(ctx, alice, bob.UserID), ErrConflict)

	friends, err := s.Friends(ctx, alice)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	require.Equal(t, bob.UserID, friends[0].ID)

	// уведомления: bob получил заявку, alice — подтверждение
	pb, err := s.ListNotifications(ctx, bob, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, pb.Items, 1)
	require.Equal(t, models.NotificationFriendRequest, pb.Items[0].Type)

	pa, err := s.ListNotifications(ctx, alice, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, pa.Items, 1)
	require.Equal(t, models.NotificationFriendAccepted, pa.Items[0].Type)
}

// TestFriendRequest_DeclineKeepsFriends — отказ снимает заявку, друзья не меняются.
func TestFriendRequest_DeclineKeepsFriends(t *testing.T) {
	s, st, _ := newServiceWithMemory(t)
	ctx := context.Background()
	alice, bob := newSession("alice"), newSession("bob")
	mustMe(t, s, alice)
	mustMe(t, s, bob)

	require.NoError(t, s.SendFriendRequest(ctx, alice, bob.UserID))
	require.NoError(t, s.DeclineFriendRequest(ctx, bob, alice.UserID))

	a, _ := st.UserByID(ctx, alice.UserID)
	b, _ := st.UserByID(ctx, bob.UserID)
	require.Empty(t, a.OutgoingFriendRequests)
	require.Empty(t, b.IncomingFriendRequests)
	require.Empty(t, a.Friends)
	require.Empty(t, b.Friends)

	require.ErrorIs(t, s.DeclineFriendRequest(ctx, bob, alice.UserID), ErrNotFound)
}

// TestFriendRequest_CancelAndRemove — отзыв заявки и разрыв дружбы.
func TestFriendRequest_CancelAndRemove(t *testing.T) {
	s, st, _ := newServiceWithMemory(t)
	ctx := context.Background()
	alice, bob := newSession("alice"), newSession("bob")
	mustMe(t, s, alice)
	mustMe(t, s, bob)

	require.ErrorIs(t, s.CancelFriendRequest(ctx, alice, bob.UserID), ErrNotFound)
	require.NoError(t, s.SendFriendRequest(ctx, alice, bob.UserID))
	require.NoError(t, s.CancelFriendRequest(ctx, alice, bob.UserID))

	b, _ := st.UserByID(ctx, bob.UserID)
	require.Empty(t, b.IncomingFriendRequests)

	require.ErrorIs(t, s.RemoveFriend(ctx, alice, bob.UserID), ErrNotFound)
	require.NoError(t, s.SendFriendRequest(ctx, alice, bob.UserID))
	require.NoError(t, s.AcceptFriendRequest(ctx, bob, alice.UserID))
	require.NoError(t, s.RemoveFriend(ctx, bob, alice.UserID))

	a, _ := st.UserByID(ctx, alice.UserID)
	b, _ = st.UserByID(ctx, bob.UserID)
	require.Empty(t, a.Friends)
	require.Empty(t, b.Friends)
}

// TestFriendRequest_PreChecks — себе, несуществующему, битый id, принятие без заявки.
func TestFriendRequest_PreChecks(t *testing.T) {
	s, _, _ := newServiceWithMemory(t)
	ctx := context.Background()
	alice, bob := newSession("alice"), newSession("bob")
	mustMe(t, s, alice)
	mustMe(t, s, bob)

	require.ErrorIs(t, s.SendFriendRequest(ctx, alice, alice.UserID), ErrInvalidArgument)
	require.ErrorIs(t, s.SendFriendRequest(ctx, alice, "not-a-uuid"), ErrInvalidArgument)
	require.ErrorIs(t, s.SendFriendRequest(ctx, alice, uuid.NewString()), ErrNotFound)
	require.ErrorIs(t, s.AcceptFriendRequest(ctx, alice, bob.UserID), ErrNotFound)
}
