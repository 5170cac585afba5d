package models

import (
	"slices"
	"time"
)

// Group — сообщество (коллекция groups). AdminID фиксирован при создании.
type Group struct {
	ID               string    `bson:"_id"`
	Name             string    `bson:"name"`
	Description      string    `bson:"description"`
	AdminID          string    `bson:"admin_id"`
	MemberIDs        []string  `bson:"member_ids"`
	PendingMemberIDs []string  `bson:"pending_member_ids"`
	InvitedUserIDs   []string  `bson:"invited_user_ids"`
	IsPrivate        bool      `bson:"is_private"`
	CreatedAt        time.Time `bson:"created_at"`
}

// IsMember, IsPending, IsInvited проверяют принадлежность userID соответствующему множеству.
func (g Group) IsMember(userID string) bool { return slices.Contains(g.MemberIDs, userID) }
func (g Group) IsPending(userID string) bool { return slices.Contains(g.PendingMemberIDs, userID) }
func (g Group) IsInvited(userID string) bool { return slices.Contains(g.InvitedUserIDs, userID) }

// MembershipChange — набор изменений множеств группы, применяемый одним обновлением.
// Одно и то же множество не должно одновременно пополняться и очищаться.
type MembershipChange struct {
	AddMembers    []string
	RemoveMembers []string
	AddPending    []string
	RemovePending []string
	AddInvited    []string
	RemoveInvited []string
}

// Empty сообщает, что изменений нет.
func (m MembershipChange) Empty() bool {
	return len(m.AddMembers)+len(m.RemoveMembers)+len(m.AddPending)+
		len(m.RemovePending)+len(m.AddInvited)+len(m.RemoveInvited) == 0
}
