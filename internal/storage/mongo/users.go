package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertUser создаёт профиль (с пустыми множествами) или обновляет имя существующего.
func (m *Mongo) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage/mongo/UpsertUser"

	ts := now()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "username", Value: user.Username},
			{Key: "display_name", Value: user.DisplayName},
			{Key: "updated_at", Value: ts},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "friends", Value: []string{}},
			{Key: "incoming_friend_requests", Value: []string{}},
			{Key: "outgoing_friend_requests", Value: []string{}},
			{Key: "fcm_token", Value: ""},
			{Key: "created_at", Value: ts},
		}},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.User
	if err := m.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: user.ID}}, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// UserByID возвращает профиль по идентификатору.
func (m *Mongo) UserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage/mongo/UserByID"

	var out models.User
	if err := m.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// UsersByIDs возвращает найденные профили; порядок не гарантируется.
func (m *Mongo) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	const op = "storage/mongo/UsersByIDs"

	if len(ids) == 0 {
		return []models.User{}, nil
	}

	cur, err := m.users.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}

	out := make([]models.User, 0, len(ids))
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	return out, nil
}

// SetFCMToken сохраняет push-токен устройства.
func (m *Mongo) SetFCMToken(ctx context.Context, userID, token string) error {
	const op = "storage/mongo/SetFCMToken"

	res, err := m.users.UpdateByID(ctx, userID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "fcm_token", Value: token},
			{Key: "updated_at", Value: now()},
		}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// userUpdate — изменение одного документа в составе батча заявки в друзья.
type userUpdate struct {
	id     string
	update bson.D
}

func setOps(pull, addToSet bson.D) bson.D {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now()}}}}
	if len(pull) > 0 {
		update = append(update, bson.E{Key: "$pull", Value: pull})
	}
	if len(addToSet) > 0 {
		update = append(update, bson.E{Key: "$addToSet", Value: addToSet})
	}

	return update
}

// applyFriendBatch применяет изменения обоих пользователей в одной транзакции.
// Отсутствие любого документа откатывает весь батч с storage.ErrNotFound.
func (m *Mongo) applyFriendBatch(ctx context.Context, op string, updates ...userUpdate) error {
	err := m.withTx(ctx, func(sc mongodriver.SessionContext) error {
		for _, u := range updates {
			res, err := m.users.UpdateByID(sc, u.id, u.update)
			if err != nil {
				return err
			}

			if res.MatchedCount == 0 {
				return storage.ErrNotFound
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SendFriendRequest: from.outgoing += to, to.incoming += from.
func (m *Mongo) SendFriendRequest(ctx context.Context, fromID, toID string) error {
	return m.applyFriendBatch(ctx, "storage/mongo/SendFriendRequest",
		userUpdate{fromID, setOps(nil, bson.D{{Key: "outgoing_friend_requests", Value: toID}})},
		userUpdate{toID, setOps(nil, bson.D{{Key: "incoming_friend_requests", Value: fromID}})},
	)
}

// CancelFriendRequest: from.outgoing -= to, to.incoming -= from.
func (m *Mongo) CancelFriendRequest(ctx context.Context, fromID, toID string) error {
	return m.applyFriendBatch(ctx, "storage/mongo/CancelFriendRequest",
		userUpdate{fromID, setOps(bson.D{{Key: "outgoing_friend_requests", Value: toID}}, nil)},
		userUpdate{toID, setOps(bson.D{{Key: "incoming_friend_requests", Value: fromID}}, nil)},
	)
}

// AcceptFriendRequest: заявка снимается с обеих сторон, пользователи становятся друзьями.
func (m *Mongo) AcceptFriendRequest(ctx context.Context, userID, requesterID string) error {
	return m.applyFriendBatch(ctx, "storage/mongo/AcceptFriendRequest",
		userUpdate{userID, setOps(
			bson.D{{Key: "incoming_friend_requests", Value: requesterID}},
			bson.D{{Key: "friends", Value: requesterID}},
		)},
		userUpdate{requesterID, setOps(
			bson.D{{Key: "outgoing_friend_requests", Value: userID}},
			bson.D{{Key: "friends", Value: userID}},
		)},
	)
}

// DeclineFriendRequest: заявка снимается с обеих сторон, друзья не меняются.
func (m *Mongo) DeclineFriendRequest(ctx context.Context, userID, requesterID string) error {
	return m.applyFriendBatch(ctx, "storage/mongo/DeclineFriendRequest",
		userUpdate{userID, setOps(bson.D{{Key: "incoming_friend_requests", Value: requesterID}}, nil)},
		userUpdate{requesterID, setOps(bson.D{{Key: "outgoing_friend_requests", Value: userID}}, nil)},
	)
}

// RemoveFriend: дружба снимается с обеих сторон.
func (m *Mongo) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return m.applyFriendBatch(ctx, "storage/mongo/RemoveFriend",
		userUpdate{userID, setOps(bson.D{{Key: "friends", Value: friendID}}, nil)},
		userUpdate{friendID, setOps(bson.D{{Key: "friends", Value: userID}}, nil)},
	)
}
