package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/go-social-network/internal/config"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// limitOrDefault приводит запрошенный размер страницы к лимитам конфигурации.
func limitOrDefault(cfg *config.Config, pageSize int32) int64 {
	return storage.PageLimit(pageSize, cfg.Limits.Default, cfg.Limits.Max)
}

// pageQuery — keyset-пагинация по (sortField, _id).
type pageQuery struct {
	filter    bson.D
	sortField string
	desc      bool
	params    models.ListParams
}

// findPage читает limit+1 документов: лишний означает, что есть следующая страница.
// Битый page_token — storage.ErrInvalidCursor.
func findPage[T any](ctx context.Context, coll *mongodriver.Collection, limit int64, q pageQuery, key func(T) (time.Time, string)) (*models.Page[T], error) {
	dir, cmp := 1, "$gt"
	if q.desc {
		dir, cmp = -1, "$lt"
	}

	filter := append(bson.D{}, q.filter...)
	if strings.TrimSpace(q.params.PageToken) != "" {
		t, id, err := storage.DecodeCursor(q.params.PageToken)
		if err != nil {
			return nil, err
		}

		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: q.sortField, Value: bson.D{{Key: cmp, Value: t}}}},
			bson.D{
				{Key: q.sortField, Value: t},
				{Key: "_id", Value: bson.D{{Key: cmp, Value: id}}},
			},
		}})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: q.sortField, Value: dir}, {Key: "_id", Value: dir}}).
		SetLimit(limit + 1)

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]T, 0, limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	page := &models.Page[T]{Items: items}
	if int64(len(items)) > limit {
		page.Items = items[:limit]
		t, id := key(page.Items[limit-1])
		page.NextPageToken = storage.EncodeCursor(t, id)
	}

	return page, nil
}
