package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateGroup сохраняет группу; администратор сразу становится участником.
func (m *Mongo) CreateGroup(ctx context.Context, group models.Group) (*models.Group, error) {
	const op = "storage/mongo/CreateGroup"

	group.ID = primitive.NewObjectID().Hex()
	group.CreatedAt = now()
	group.MemberIDs = nonNil(group.MemberIDs)
	group.PendingMemberIDs = nonNil(group.PendingMemberIDs)
	group.InvitedUserIDs = nonNil(group.InvitedUserIDs)

	if _, err := m.groups.InsertOne(ctx, group); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &group, nil
}

// GroupByID возвращает группу по идентификатору.
func (m *Mongo) GroupByID(ctx context.Context, id string) (*models.Group, error) {
	const op = "storage/mongo/GroupByID"

	var out models.Group
	if err := m.groups.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// ListGroupsByMember — группы участника, created_at DESC.
func (m *Mongo) ListGroupsByMember(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Group], error) {
	const op = "storage/mongo/ListGroupsByMember"

	page, err := findPage(ctx, m.groups, limitOrDefault(m.cfg, p.PageSize), pageQuery{
		filter:    bson.D{{Key: "member_ids", Value: userID}},
		sortField: "created_at",
		desc:      true,
		params:    p,
	}, func(g models.Group) (time.Time, string) { return g.CreatedAt, g.ID })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// membershipUpdate собирает $addToSet/$pull по множествам группы.
func membershipUpdate(ch models.MembershipChange) bson.D {
	add := bson.D{}
	pull := bson.D{}

	addTo := func(field string, ids []string) {
		if len(ids) > 0 {
			add = append(add, bson.E{Key: field, Value: bson.D{{Key: "$each", Value: ids}}})
		}
	}
	pullFrom := func(field string, ids []string) {
		if len(ids) > 0 {
			pull = append(pull, bson.E{Key: field, Value: bson.D{{Key: "$in", Value: ids}}})
		}
	}

	addTo("member_ids", ch.AddMembers)
	addTo("pending_member_ids", ch.AddPending)
	addTo("invited_user_ids", ch.AddInvited)
	pullFrom("member_ids", ch.RemoveMembers)
	pullFrom("pending_member_ids", ch.RemovePending)
	pullFrom("invited_user_ids", ch.RemoveInvited)

	update := bson.D{}
	if len(add) > 0 {
		update = append(update, bson.E{Key: "$addToSet", Value: add})
	}
	if len(pull) > 0 {
		update = append(update, bson.E{Key: "$pull", Value: pull})
	}

	return update
}

// UpdateMembership применяет изменения множеств одним findAndModify.
func (m *Mongo) UpdateMembership(ctx context.Context, groupID string, change models.MembershipChange) (*models.Group, error) {
	const op = "storage/mongo/UpdateMembership"

	if change.Empty() {
		return m.GroupByID(ctx, groupID)
	}

	var out models.Group
	err := m.groups.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: groupID}},
		membershipUpdate(change),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// DeleteGroup удаляет группу.
func (m *Mongo) DeleteGroup(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteGroup"

	res, err := m.groups.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
