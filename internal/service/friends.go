package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/pkg/log"
)

// friendPair загружает документы вызывающего и второй стороны для проверок.
// Вызывающий создаётся при первом обращении; вторая сторона обязана существовать.
func (s *Service) friendPair(ctx context.Context, lg *slog.Logger, op string, sess session.Session, otherID string) (*models.User, *models.User, error) {
	if err := requireSession(lg, op, sess); err != nil {
		return nil, nil, err
	}

	otherID = strings.TrimSpace(otherID)
	if _, err := uuid.Parse(otherID); err != nil {
		return nil, nil, invalid(lg, op, "bad user id")
	}
	if otherID == sess.UserID {
		return nil, nil, invalid(lg, op, "self reference")
	}

	me, err := s.ensureUser(ctx, sess)
	if err != nil {
		return nil, nil, storageErr(lg, op, "ensureUser", err)
	}

	other, err := s.storage.UserByID(ctx, otherID)
	if err != nil {
		return nil, nil, storageErr(lg, op, "UserByID", err)
	}

	return me, other, nil
}

// SendFriendRequest — заявка в друзья от текущего пользователя к toID.
//
// Ошибки:
//   - ErrInvalidArgument — заявка самому себе или битый id;
//   - ErrNotFound — адресата нет;
//   - ErrConflict — уже друзья или заявка уже висит в любую сторону.
func (s *Service) SendFriendRequest(ctx context.Context, sess session.Session, toID string) error {
	const op = "service/friends/SendFriendRequest"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "to_id", toID)

	me, to, err := s.friendPair(ctx, lg, op, sess, toID)
	if err != nil {
		return err
	}

	if slices.Contains(me.Friends, to.ID) ||
		slices.Contains(me.OutgoingFriendRequests, to.ID) ||
		slices.Contains(me.IncomingFriendRequests, to.ID) {
		lg.Warn("friend request already exists")
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}

	if err := s.storage.SendFriendRequest(ctx, me.ID, to.ID); err != nil {
		return storageErr(lg, op, "SendFriendRequest", err)
	}

	s.invalidateUsers(ctx, lg, me.ID, to.ID)
	s.notify(ctx, models.Notification{
		UserID:   to.ID,
		ActorID:  me.ID,
		Type:     models.NotificationFriendRequest,
		EntityID: me.ID,
	})

	return nil
}

// CancelFriendRequest — отзыв своей исходящей заявки.
func (s *Service) CancelFriendRequest(ctx context.Context, sess session.Session, toID string) error {
	const op = "service/friends/CancelFriendRequest"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "to_id", toID)

	me, to, err := s.friendPair(ctx, lg, op, sess, toID)
	if err != nil {
		return err
	}

	if !slices.Contains(me.OutgoingFriendRequests, to.ID) {
		return notFound(lg, op, "outgoing request")
	}

	if err := s.storage.CancelFriendRequest(ctx, me.ID, to.ID); err != nil {
		return storageErr(lg, op, "CancelFriendRequest", err)
	}

	s.invalidateUsers(ctx, lg, me.ID, to.ID)

	return nil
}

// AcceptFriendRequest — принять входящую заявку от requesterID.
// Обе стороны становятся друзьями, заявка исчезает у обоих одним батчем.
func (s *Service) AcceptFriendRequest(ctx context.Context, sess session.Session, requesterID string) error {
	const op = "service/friends/AcceptFriendRequest"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "requester_id", requesterID)

	me, requester, err := s.friendPair(ctx, lg, op, sess, requesterID)
	if err != nil {
		return err
	}

	if !slices.Contains(me.IncomingFriendRequests, requester.ID) {
		return notFound(lg, op, "incoming request")
	}

	if err := s.storage.AcceptFriendRequest(ctx, me.ID, requester.ID); err != nil {
		return storageErr(lg, op, "AcceptFriendRequest", err)
	}

	s.invalidateUsers(ctx, lg, me.ID, requester.ID)
	s.notify(ctx, models.Notification{
		UserID:   requester.ID,
		ActorID:  me.ID,
		Type:     models.NotificationFriendAccepted,
		EntityID: me.ID,
	})

	return nil
}

// DeclineFriendRequest — отклонить входящую заявку; список друзей не меняется.
func (s *Service) DeclineFriendRequest(ctx context.Context, sess session.Session, requesterID string) error {
	const op = "service/friends/DeclineFriendRequest"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "requester_id", requesterID)

	me, requester, err := s.friendPair(ctx, lg, op, sess, requesterID)
	if err != nil {
		return err
	}

	if !slices.Contains(me.IncomingFriendRequests, requester.ID) {
		return notFound(lg, op, "incoming request")
	}

	if err := s.storage.DeclineFriendRequest(ctx, me.ID, requester.ID); err != nil {
		return storageErr(lg, op, "DeclineFriendRequest", err)
	}

	s.invalidateUsers(ctx, lg, me.ID, requester.ID)

	return nil
}

// RemoveFriend — разорвать дружбу с обеих сторон.
func (s *Service) RemoveFriend(ctx context.Context, sess session.Session, friendID string) error {
	const op = "service/friends/RemoveFriend"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "friend_id", friendID)

	me, friend, err := s.friendPair(ctx, lg, op, sess, friendID)
	if err != nil {
		return err
	}

	if !slices.Contains(me.Friends, friend.ID) {
		return notFound(lg, op, "friend")
	}

	if err := s.storage.RemoveFriend(ctx, me.ID, friend.ID); err != nil {
		return storageErr(lg, op, "RemoveFriend", err)
	}

	s.invalidateUsers(ctx, lg, me.ID, friend.ID)

	return nil
}
