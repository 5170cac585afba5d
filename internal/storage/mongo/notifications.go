package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateNotification сохраняет непрочитанное уведомление.
func (m *Mongo) CreateNotification(ctx context.Context, n models.Notification) (*models.Notification, error) {
	const op = "storage/mongo/CreateNotification"

	n.ID = primitive.NewObjectID().Hex()
	n.CreatedAt = now()
	n.Read = false

	if _, err := m.notifications.InsertOne(ctx, n); err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &n, nil
}

// ListNotifications — уведомления получателя, created_at DESC.
func (m *Mongo) ListNotifications(ctx context.Context, userID string, p models.ListParams) (*models.Page[models.Notification], error) {
	const op = "storage/mongo/ListNotifications"

	page, err := findPage(ctx, m.notifications, limitOrDefault(m.cfg, p.PageSize), pageQuery{
		filter:    bson.D{{Key: "user_id", Value: userID}},
		sortField: "created_at",
		desc:      true,
		params:    p,
	}, func(n models.Notification) (time.Time, string) { return n.CreatedAt, n.ID })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// MarkNotificationRead помечает уведомление прочитанным; чужое — storage.ErrNotFound.
func (m *Mongo) MarkNotificationRead(ctx context.Context, userID, id string) error {
	const op = "storage/mongo/MarkNotificationRead"

	res, err := m.notifications.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
