package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/pkg/log"
)

const (
	maxGroupNameLength        = 100
	maxGroupDescriptionLength = 1000
)

// CreateGroupInput — новая группа; создатель становится администратором и участником.
type CreateGroupInput struct {
	Name        string
	Description string
	IsPrivate   bool
}

// CreateGroup — создание группы.
func (s *Service) CreateGroup(ctx context.Context, sess session.Session, in CreateGroupInput) (*models.Group, error) {
	const op = "service/groups/CreateGroup"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || utf8.RuneCountInString(in.Name) > maxGroupNameLength {
		return nil, invalid(lg, op, "bad name")
	}
	if utf8.RuneCountInString(in.Description) > maxGroupDescriptionLength {
		return nil, invalid(lg, op, "description too long")
	}

	if _, err := s.ensureUser(ctx, sess); err != nil {
		return nil, storageErr(lg, op, "ensureUser", err)
	}

	g, err := s.storage.CreateGroup(ctx, models.Group{
		Name:        in.Name,
		Description: in.Description,
		AdminID:     sess.UserID,
		MemberIDs:   []string{sess.UserID},
		IsPrivate:   in.IsPrivate,
	})
	if err != nil {
		return nil, storageErr(lg, op, "CreateGroup", err)
	}

	return g, nil
}

// GroupByID — группа по идентификатору.
func (s *Service) GroupByID(ctx context.Context, id string) (*models.Group, error) {
	const op = "service/groups/GroupByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		return nil, invalid(lg, op, "empty id")
	}

	g, err := s.storage.GroupByID(ctx, id)
	if err != nil {
		return nil, storageErr(lg, op, "GroupByID", err)
	}

	return g, nil
}

// ListGroups — группы, в которых состоит текущий пользователь.
func (s *Service) ListGroups(ctx context.Context, sess session.Session, p models.ListParams) (*models.Page[models.Group], error) {
	const op = "service/groups/ListGroups"

	lg := log.From(ctx).With("op", op, "user_id", sess.UserID)

	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}
	if p.PageSize < 0 {
		return nil, invalid(lg, op, "negative page_size")
	}

	page, err := s.storage.ListGroupsByMember(ctx, sess.UserID, p)
	if err != nil {
		return nil, storageErr(lg, op, "ListGroupsByMember", err)
	}

	return page, nil
}

// loadGroup — сессия, непустой id и существующая группа.
func (s *Service) loadGroup(ctx context.Context, lg *slog.Logger, op string, sess session.Session, groupID string) (*models.Group, error) {
	if err := requireSession(lg, op, sess); err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, invalid(lg, op, "empty group_id")
	}

	g, err := s.storage.GroupByID(ctx, groupID)
	if err != nil {
		return nil, storageErr(lg, op, "GroupByID", err)
	}

	return g, nil
}

// adminGroup — как loadGroup, но вызывающий обязан быть администратором.
func (s *Service) adminGroup(ctx context.Context, lg *slog.Logger, op string, sess session.Session, groupID string) (*models.Group, error) {
	g, err := s.loadGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return nil, err
	}

	if g.AdminID != sess.UserID {
		lg.Warn("not the group admin")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return g, nil
}

func (s *Service) updateMembership(ctx context.Context, lg *slog.Logger, op, groupID string, ch models.MembershipChange) (*models.Group, error) {
	g, err := s.storage.UpdateMembership(ctx, groupID, ch)
	if err != nil {
		return nil, storageErr(lg, op, "UpdateMembership", err)
	}

	return g, nil
}

// DeleteGroup — удаление группы администратором.
func (s *Service) DeleteGroup(ctx context.Context, sess session.Session, groupID string) error {
	const op = "service/groups/DeleteGroup"

	groupID = strings.TrimSpace(groupID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID)

	if _, err := s.adminGroup(ctx, lg, op, sess, groupID); err != nil {
		return err
	}

	if err := s.storage.DeleteGroup(ctx, groupID); err != nil {
		return storageErr(lg, op, "DeleteGroup", err)
	}

	return nil
}

// JoinGroup — вступление в группу:
//   - приглашённый становится участником (приглашение снимается);
//   - в открытую группу вступают сразу;
//   - в закрытую подаётся заявка (pending).
//
// Уже участник или уже в заявках — ErrConflict.
func (s *Service) JoinGroup(ctx context.Context, sess session.Session, groupID string) (*models.Group, error) {
	const op = "service/groups/JoinGroup"

	groupID = strings.TrimSpace(groupID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID)

	g, err := s.loadGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return nil, err
	}

	if g.IsMember(sess.UserID) || g.IsPending(sess.UserID) {
		lg.Warn("already member or pending")
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	}

	var ch models.MembershipChange
	switch {
	case g.IsInvited(sess.UserID):
		ch = models.MembershipChange{AddMembers: []string{sess.UserID}, RemoveInvited: []string{sess.UserID}}
	case !g.IsPrivate:
		ch = models.MembershipChange{AddMembers: []string{sess.UserID}}
	default:
		ch = models.MembershipChange{AddPending: []string{sess.UserID}}
	}

	return s.updateMembership(ctx, lg, op, groupID, ch)
}

// LeaveGroup — выход из группы. Администратор выйти не может (ErrAdminCannotLeave).
func (s *Service) LeaveGroup(ctx context.Context, sess session.Session, groupID string) error {
	const op = "service/groups/LeaveGroup"

	groupID = strings.TrimSpace(groupID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID)

	g, err := s.loadGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return err
	}

	if g.AdminID == sess.UserID {
		lg.Warn("admin cannot leave")
		return fmt.Errorf("%s: %w", op, ErrAdminCannotLeave)
	}
	if !g.IsMember(sess.UserID) {
		return notFound(lg, op, "membership")
	}

	_, err = s.updateMembership(ctx, lg, op, groupID, models.MembershipChange{RemoveMembers: []string{sess.UserID}})
	return err
}

// InviteUser — приглашение пользователя администратором.
func (s *Service) InviteUser(ctx context.Context, sess session.Session, groupID, userID string) (*models.Group, error) {
	const op = "service/groups/InviteUser"

	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID, "invitee_id", userID)

	g, err := s.adminGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(userID); err != nil {
		return nil, invalid(lg, op, "bad user id")
	}
	if g.IsMember(userID) || g.IsInvited(userID) {
		lg.Warn("already member or invited")
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	}

	if _, err := s.storage.UserByID(ctx, userID); err != nil {
		return nil, storageErr(lg, op, "UserByID", err)
	}

	ch := models.MembershipChange{AddInvited: []string{userID}}
	// Пригласили того, кто уже подал заявку: сразу принимаем.
	if g.IsPending(userID) {
		ch = models.MembershipChange{AddMembers: []string{userID}, RemovePending: []string{userID}}
	}

	out, err := s.updateMembership(ctx, lg, op, groupID, ch)
	if err != nil {
		return nil, err
	}

	if len(ch.AddInvited) > 0 {
		s.notify(ctx, models.Notification{
			UserID:   userID,
			ActorID:  sess.UserID,
			Type:     models.NotificationGroupInvite,
			EntityID: groupID,
		})
	}

	return out, nil
}

// DeclineInvite — отказ от своего приглашения.
func (s *Service) DeclineInvite(ctx context.Context, sess session.Session, groupID string) error {
	const op = "service/groups/DeclineInvite"

	groupID = strings.TrimSpace(groupID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID)

	g, err := s.loadGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return err
	}

	if !g.IsInvited(sess.UserID) {
		return notFound(lg, op, "invite")
	}

	_, err = s.updateMembership(ctx, lg, op, groupID, models.MembershipChange{RemoveInvited: []string{sess.UserID}})
	return err
}

// ApproveMember — администратор принимает заявку userID.
func (s *Service) ApproveMember(ctx context.Context, sess session.Session, groupID, userID string) (*models.Group, error) {
	const op = "service/groups/ApproveMember"

	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID, "member_id", userID)

	g, err := s.adminGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return nil, err
	}

	if !g.IsPending(userID) {
		return nil, notFound(lg, op, "join request")
	}

	return s.updateMembership(ctx, lg, op, groupID, models.MembershipChange{
		AddMembers:    []string{userID},
		RemovePending: []string{userID},
	})
}

// RejectMember — администратор отклоняет заявку userID.
func (s *Service) RejectMember(ctx context.Context, sess session.Session, groupID, userID string) (*models.Group, error) {
	const op = "service/groups/RejectMember"

	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID, "member_id", userID)

	g, err := s.adminGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return nil, err
	}

	if !g.IsPending(userID) {
		return nil, notFound(lg, op, "join request")
	}

	return s.updateMembership(ctx, lg, op, groupID, models.MembershipChange{RemovePending: []string{userID}})
}

// RemoveMember — администратор исключает участника. Себя исключить нельзя.
func (s *Service) RemoveMember(ctx context.Context, sess session.Session, groupID, userID string) (*models.Group, error) {
	const op = "service/groups/RemoveMember"

	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	lg := log.From(ctx).With("op", op, "user_id", sess.UserID, "group_id", groupID, "member_id", userID)

	g, err := s.adminGroup(ctx, lg, op, sess, groupID)
	if err != nil {
		return nil, err
	}

	if userID == g.AdminID {
		return nil, invalid(lg, op, "admin cannot be removed")
	}
	if !g.IsMember(userID) {
		return nil, notFound(lg, op, "member")
	}

	return s.updateMembership(ctx, lg, op, groupID, models.MembershipChange{RemoveMembers: []string{userID}})
}
