// Package repo persists users, groups and messages in MongoDB. Message
// order is ObjectID order, which follows creation time; the pagination
// cursors upstream encode those ids.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/kamva/mgm/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"group-chat/auth"
	"group-chat/core/chat"
)

type MongoConf struct {
	MongoHost string `env:"MONGO_HOST" required:"true"`
	MongoUser string `env:"MONGO_USER" required:"true"`
	MongoPass string `env:"MONGO_PASSWORD"`
	MongoPort int    `env:"MONGO_PORT"`
}

func NewInsecureMongoCli(conf *MongoConf) *mongo.Client {
	if conf.MongoPort == 0 {
		conf.MongoPort = 27017
	}
	mongoOptions := &options.ClientOptions{}
	mongoOptions.Monitor = otelmongo.NewMonitor()
	mongoOptions.ApplyURI(fmt.Sprintf("mongodb://%s:%s@%s:%d", conf.MongoUser, conf.MongoPass, conf.MongoHost, conf.MongoPort))

	mongoCli, err := mongo.Connect(context.TODO(), mongoOptions)
	if err != nil {
		panic(fmt.Errorf("can't create mongodb client: %w", err))
	}

	return mongoCli
}

type messageModel struct {
	// DefaultModel adds _id, created_at and updated_at fields to the Model.
	mgm.DefaultModel `bson:",inline"`
	GroupID          string `bson:"groupID"`
	AuthorID         string `bson:"authorID"`
	Text             string `bson:"text"`
}

func (m *messageModel) toChat() chat.Message {
	return chat.Message{
		ID:        m.ID.Hex(),
		GroupID:   m.GroupID,
		AuthorID:  m.AuthorID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

type groupModel struct {
	mgm.DefaultModel `bson:",inline"`
	Name             string   `bson:"name"`
	CreatorID        string   `bson:"creatorID"`
	MemberIDs        []string `bson:"memberIDs"`
}

func (g *groupModel) toChat() chat.Group {
	return chat.Group{
		ID:        g.ID.Hex(),
		Name:      g.Name,
		CreatorID: g.CreatorID,
		MemberIDs: g.MemberIDs,
		CreatedAt: g.CreatedAt,
	}
}

type userModel struct {
	mgm.DefaultModel `bson:",inline"`
	Email            string `bson:"email"`
	Username         string `bson:"username"`
	PasswordHash     string `bson:"passwordHash"`
	Version          int    `bson:"v"`
}

func (u *userModel) toAccount() auth.Account {
	return auth.Account{
		ID:           u.ID.Hex(),
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Version:      u.Version,
	}
}

// Store implements chat.Store and auth.AccountStore on one database.
type Store struct {
	messages *mgm.Collection
	groups   *mgm.Collection
	users    *mgm.Collection
}

func NewMongoStore(cli *mongo.Client) (*Store, error) {
	db := cli.Database("groupchat")

	store := &Store{
		messages: mgm.NewCollection(db, "messages"),
		groups:   mgm.NewCollection(db, "groups"),
		users:    mgm.NewCollection(db, "users"),
	}

	ctx := context.Background()

	_, err := store.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "groupID", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("can't create messages index: %w", err)
	}

	unique := true
	_, err = store.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: &options.IndexOptions{Unique: &unique},
	})
	if err != nil {
		return nil, fmt.Errorf("can't create users email index: %w", err)
	}

	return store, nil
}

func (s *Store) CreateMessage(ctx context.Context, groupID, authorID, text string) (chat.Message, error) {
	msg := &messageModel{GroupID: groupID, AuthorID: authorID, Text: text}

	if err := s.messages.CreateWithCtx(ctx, msg); err != nil {
		return chat.Message{}, err
	}
	return msg.toChat(), nil
}

func (s *Store) ListMessages(ctx context.Context, groupID string) ([]chat.Message, error) {
	cur, err := s.messages.Find(ctx, bson.M{"groupID": groupID},
		&options.FindOptions{Sort: bson.M{"_id": 1}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.Background())

	messages := make([]chat.Message, 0)
	for cur.Next(ctx) {
		m := messageModel{}
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("cant decode cursor's element into messageModel{}, err:%w", err)
		}
		messages = append(messages, m.toChat())
	}

	return messages, cur.Err()
}

func (s *Store) CreateGroup(ctx context.Context, name, creatorID string, memberIDs []string) (chat.Group, error) {
	group := &groupModel{Name: name, CreatorID: creatorID, MemberIDs: memberIDs}

	if err := s.groups.CreateWithCtx(ctx, group); err != nil {
		return chat.Group{}, err
	}
	return group.toChat(), nil
}

func (s *Store) GroupByID(ctx context.Context, id string) (chat.Group, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return chat.Group{}, chat.ErrNotFound{Type: "group", ID: id}
	}

	group := groupModel{}
	err = s.groups.FindOne(ctx, bson.M{"_id": oid}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.Group{}, chat.ErrNotFound{Type: "group", ID: id}
	}
	if err != nil {
		return chat.Group{}, err
	}
	return group.toChat(), nil
}

func (s *Store) UpdateGroup(ctx context.Context, id, name string, memberIDs []string) (chat.Group, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return chat.Group{}, chat.ErrNotFound{Type: "group", ID: id}
	}

	set := bson.M{}
	if name != "" {
		set["name"] = name
	}
	if memberIDs != nil {
		set["memberIDs"] = memberIDs
	}
	if len(set) == 0 {
		return s.GroupByID(ctx, id)
	}

	after := options.After
	group := groupModel{}
	err = s.groups.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.Group{}, chat.ErrNotFound{Type: "group", ID: id}
	}
	if err != nil {
		return chat.Group{}, err
	}
	return group.toChat(), nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) (chat.Group, error) {
	oid, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return chat.Group{}, chat.ErrNotFound{Type: "group", ID: groupID}
	}

	after := options.After
	group := groupModel{}
	err = s.groups.FindOneAndUpdate(ctx, bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"memberIDs": userID}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.Group{}, chat.ErrNotFound{Type: "group", ID: groupID}
	}
	if err != nil {
		return chat.Group{}, err
	}
	return group.toChat(), nil
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return chat.ErrNotFound{Type: "group", ID: id}
	}

	_, err = s.groups.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (s *Store) UserByID(ctx context.Context, id string) (chat.User, error) {
	user, err := s.userModelByID(ctx, id)
	if err != nil {
		return chat.User{}, err
	}
	return chat.User{ID: user.ID.Hex(), Email: user.Email, Username: user.Username}, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	user := userModel{}
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	if err != nil {
		return auth.Account{}, err
	}
	return user.toAccount(), nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (auth.Account, error) {
	user, err := s.userModelByID(ctx, id)
	if err != nil {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	return user.toAccount(), nil
}

func (s *Store) CreateAccount(ctx context.Context, account auth.Account) (auth.Account, error) {
	user := &userModel{
		Email:        account.Email,
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		Version:      account.Version,
	}

	if err := s.users.CreateWithCtx(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.Account{}, auth.ErrEmailTaken
		}
		return auth.Account{}, err
	}
	return user.toAccount(), nil
}

func (s *Store) userModelByID(ctx context.Context, id string) (*userModel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, chat.ErrNotFound{Type: "user", ID: id}
	}

	user := userModel{}
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, chat.ErrNotFound{Type: "user", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
