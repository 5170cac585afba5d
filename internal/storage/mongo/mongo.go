// Package mongo реализует storage.Storage поверх MongoDB.
// Транзакции (лайки комментариев, счётчик комментариев, заявки в друзья) требуют replica set.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-social-network/internal/config"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection         = "users"
	postsCollection         = "posts"
	savedPostsCollection    = "saved_posts"
	commentsCollection      = "comments"
	chatsCollection         = "chats"
	messagesCollection      = "messages"
	groupsCollection        = "groups"
	notificationsCollection = "notifications"

	defaultDBName = "social"
)

var _ storage.Storage = (*Mongo)(nil)

// Mongo — адаптер MongoDB: клиент, база и коллекции.
type Mongo struct {
	cfg           *config.Config
	client        *mongodriver.Client
	db            *mongodriver.Database
	users         *mongodriver.Collection
	posts         *mongodriver.Collection
	savedPosts    *mongodriver.Collection
	comments      *mongodriver.Collection
	chats         *mongodriver.Collection
	messages      *mongodriver.Collection
	groups        *mongodriver.Collection
	notifications *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение, подготавливает коллекции и индексы.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(cfg.DB.URL))

	m := &Mongo{
		cfg:           cfg,
		client:        cli,
		db:            db,
		users:         db.Collection(usersCollection),
		posts:         db.Collection(postsCollection),
		savedPosts:    db.Collection(savedPostsCollection),
		comments:      db.Collection(commentsCollection),
		chats:         db.Collection(chatsCollection),
		messages:      db.Collection(messagesCollection),
		groups:        db.Collection(groupsCollection),
		notifications: db.Collection(notificationsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Close отключает клиента.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы под выборки сервиса:
//   - лента и посты автора: created_at DESC;
//   - дерево комментариев: post_id и parent_id + created_at ASC;
//   - список чатов: participants + last_message_time DESC, сообщения: chat_id + created_at ASC;
//   - закладки, группы участника, уведомления получателя.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	specs := []struct {
		coll   *mongodriver.Collection
		models []mongodriver.IndexModel
	}{
		{m.users, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName("username")},
		}},
		{m.posts, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("created_desc")},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("user_created_desc")},
		}},
		{m.savedPosts, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "saved_at", Value: -1}}, Options: options.Index().SetName("user_saved_desc")},
		}},
		{m.comments, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "post_id", Value: 1}}, Options: options.Index().SetName("post")},
			{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("parent_created_asc")},
		}},
		{m.chats, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "last_message_time", Value: -1}}, Options: options.Index().SetName("participants_last_desc")},
		}},
		{m.messages, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("chat_created_asc")},
		}},
		{m.groups, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "member_ids", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("member_created_desc")},
		}},
		{m.notifications, []mongodriver.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("user_created_desc")},
		}},
	}

	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("mongo ensure indexes %s: %w", s.coll.Name(), err)
		}
	}

	return nil
}

// withTx выполняет fn в multi-document транзакции.
// Ошибка из fn прерывает транзакцию и возвращается как есть.
func (m *Mongo) withTx(ctx context.Context, fn func(sc mongodriver.SessionContext) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(sc mongodriver.SessionContext) (any, error) {
		return nil, fn(sc)
	})

	return err
}

// databaseFromURI извлекает имя базы из пути URI; по умолчанию — "social".
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}

// now — текущее время с точностью MongoDB DateTime (миллисекунды).
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// nonNil гарантирует, что множество пишется массивом, а не null ($addToSet не работает с null).
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
