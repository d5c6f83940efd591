package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a filtered read or scoped mutation matches no
// document. An unparseable object id is treated the same way.
var ErrNotFound = errors.New("not found")

const (
	usersCollection         = "users"
	chatsCollection         = "chats"
	notificationsCollection = "notifications"
	postsCollection         = "posts"
	plantsCollection        = "plants"
)

// Mongo is the durable record store backed by MongoDB collections.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// Ping verifies store connectivity for readiness checks.
func (s *Mongo) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// --- Users ---

func (s *Mongo) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Following == nil {
		user.Following = []string{}
	}
	if user.Followers == nil {
		user.Followers = []string{}
	}
	res, err := s.db.Collection(usersCollection).InsertOne(ctx, user)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return user, nil
}

func (s *Mongo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *Mongo) GetUserByID(ctx context.Context, id string) (User, error) {
	oid, err := objectID(id)
	if err != nil {
		return User{}, err
	}
	var user User
	err = s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (s *Mongo) ListUsersExcept(ctx context.Context, email string) ([]User, error) {
	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{"email": bson.M{"$ne": email}})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *Mongo) SetFollowing(ctx context.Context, email string, following []string) error {
	res, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"following": following}},
	)
	if err != nil {
		return fmt.Errorf("update following: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) SetFollowers(ctx context.Context, email string, followers []string) error {
	res, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"followers": followers}},
	)
	if err != nil {
		return fmt.Errorf("update followers: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Chat messages ---

func (s *Mongo) InsertChat(ctx context.Context, msg ChatMessage) (ChatMessage, error) {
	res, err := s.db.Collection(chatsCollection).InsertOne(ctx, msg)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("insert chat: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return msg, nil
}

// ChatsBetween returns the merged thread of both directions sorted by
// timestamp ascending.
func (s *Mongo) ChatsBetween(ctx context.Context, a, b string) ([]ChatMessage, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderEmail": a, "receiverEmail": b},
		bson.M{"senderEmail": b, "receiverEmail": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.db.Collection(chatsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find chats: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}
	return messages, nil
}

// MarkChatsRead flips the read flag on every unread message from sender to
// receiver in one bulk update.
func (s *Mongo) MarkChatsRead(ctx context.Context, sender, receiver string) error {
	_, err := s.db.Collection(chatsCollection).UpdateMany(ctx,
		bson.M{"senderEmail": sender, "receiverEmail": receiver, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark chats read: %w", err)
	}
	return nil
}

// ChatsTouching returns every message sent or received by email, newest first.
func (s *Mongo) ChatsTouching(ctx context.Context, email string) ([]ChatMessage, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderEmail": email},
		bson.M{"receiverEmail": email},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := s.db.Collection(chatsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find chats: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}
	return messages, nil
}

func (s *Mongo) CountUnreadChats(ctx context.Context, sender, receiver string) (int64, error) {
	count, err := s.db.Collection(chatsCollection).CountDocuments(ctx,
		bson.M{"senderEmail": sender, "receiverEmail": receiver, "read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread chats: %w", err)
	}
	return count, nil
}

// --- Notifications ---

func (s *Mongo) InsertNotification(ctx context.Context, n Notification) (Notification, error) {
	res, err := s.db.Collection(notificationsCollection).InsertOne(ctx, n)
	if err != nil {
		return Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return n, nil
}

// InsertNotifications bulk-inserts one batch of fan-out records.
func (s *Mongo) InsertNotifications(ctx context.Context, batch []Notification) ([]Notification, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	docs := make([]any, len(batch))
	for i := range batch {
		docs[i] = batch[i]
	}
	res, err := s.db.Collection(notificationsCollection).InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("insert notifications: %w", err)
	}
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(batch) {
			batch[i].ID = oid
		}
	}
	return batch, nil
}

func (s *Mongo) NotificationsFor(ctx context.Context, email string, limit int64) ([]Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := s.db.Collection(notificationsCollection).Find(ctx, bson.M{"userId": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *Mongo) CountUnreadNotifications(ctx context.Context, email string) (int64, error) {
	count, err := s.db.Collection(notificationsCollection).CountDocuments(ctx,
		bson.M{"userId": email, "read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead flips the read flag on a single notification owned by
// email and returns the updated record.
func (s *Mongo) MarkNotificationRead(ctx context.Context, id, email string) (Notification, error) {
	oid, err := objectID(id)
	if err != nil {
		return Notification{}, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n Notification
	err = s.db.Collection(notificationsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": email},
		bson.M{"$set": bson.M{"read": true}},
		opts,
	).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return Notification{}, ErrNotFound
	}
	if err != nil {
		return Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *Mongo) MarkAllNotificationsRead(ctx context.Context, email string) error {
	_, err := s.db.Collection(notificationsCollection).UpdateMany(ctx,
		bson.M{"userId": email, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *Mongo) DeleteNotification(ctx context.Context, id, email string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(notificationsCollection).DeleteOne(ctx,
		bson.M{"_id": oid, "userId": email})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) ClearNotifications(ctx context.Context, email string) (int64, error) {
	res, err := s.db.Collection(notificationsCollection).DeleteMany(ctx, bson.M{"userId": email})
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return res.DeletedCount, nil
}

// --- Posts ---

func (s *Mongo) InsertPost(ctx context.Context, post Post) (Post, error) {
	if post.Comments == nil {
		post.Comments = []Comment{}
	}
	if post.LikedBy == nil {
		post.LikedBy = []string{}
	}
	res, err := s.db.Collection(postsCollection).InsertOne(ctx, post)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = oid
	}
	return post, nil
}

func (s *Mongo) ListPosts(ctx context.Context) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := s.db.Collection(postsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (s *Mongo) GetPost(ctx context.Context, id string) (Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return Post{}, err
	}
	var post Post
	err = s.db.Collection(postsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("find post: %w", err)
	}
	return post, nil
}

// UpdatePost replaces the whole document. Callers read-then-write the current
// persisted state; last write wins at the document level.
func (s *Mongo) UpdatePost(ctx context.Context, post Post) error {
	res, err := s.db.Collection(postsCollection).ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) DeletePost(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(postsCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchPosts is the store-level fallback when indexed search is unavailable:
// a case-insensitive substring match on captions.
func (s *Mongo) SearchPosts(ctx context.Context, text, email string, limit int) ([]Post, error) {
	filter := bson.M{"caption": bson.M{"$regex": text, "$options": "i"}}
	if email != "" {
		filter["email"] = email
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := s.db.Collection(postsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// --- Plants ---

func (s *Mongo) InsertPlant(ctx context.Context, plant Plant) (Plant, error) {
	if plant.DailyEntries == nil {
		plant.DailyEntries = []DailyEntry{}
	}
	res, err := s.db.Collection(plantsCollection).InsertOne(ctx, plant)
	if err != nil {
		return Plant{}, fmt.Errorf("insert plant: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		plant.ID = oid
	}
	return plant, nil
}

func (s *Mongo) PlantsFor(ctx context.Context, email string) ([]Plant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateAdded", Value: -1}})
	cursor, err := s.db.Collection(plantsCollection).Find(ctx, bson.M{"userEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	defer cursor.Close(ctx)

	var plants []Plant
	if err := cursor.All(ctx, &plants); err != nil {
		return nil, fmt.Errorf("decode plants: %w", err)
	}
	return plants, nil
}

func (s *Mongo) GetPlant(ctx context.Context, id string) (Plant, error) {
	oid, err := objectID(id)
	if err != nil {
		return Plant{}, err
	}
	var plant Plant
	err = s.db.Collection(plantsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&plant)
	if err == mongo.ErrNoDocuments {
		return Plant{}, ErrNotFound
	}
	if err != nil {
		return Plant{}, fmt.Errorf("find plant: %w", err)
	}
	return plant, nil
}

func (s *Mongo) UpdatePlant(ctx context.Context, plant Plant) error {
	res, err := s.db.Collection(plantsCollection).ReplaceOne(ctx, bson.M{"_id": plant.ID}, plant)
	if err != nil {
		return fmt.Errorf("update plant: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) DeletePlant(ctx context.Context, id, email string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(plantsCollection).DeleteOne(ctx,
		bson.M{"_id": oid, "userEmail": email})
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
