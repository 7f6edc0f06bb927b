package leadstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultDatabase = "rag_chatbot"

// MongoStore keeps leads in a MongoDB collection with a unique index on
// session_id, so concurrent inserts for one session collapse into updates.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects, pings, and ensures the lead indexes. The database
// name is taken from the URI path when present.
func OpenMongo(ctx context.Context, uri string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(45 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetSocketTimeout(20 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(databaseFromURI(uri)).Collection("leads"),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func databaseFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "mongodb+srv://")
	trimmed = strings.TrimPrefix(trimmed, "mongodb://")
	slash := strings.Index(trimmed, "/")
	if slash < 0 {
		return defaultDatabase
	}
	name := trimmed[slash+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	if name == "" {
		return defaultDatabase
	}
	return name
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := true
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: &options.IndexOptions{
				Unique: &unique,
				Name:   strPtr("chatbot_session_idx"),
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create lead indexes: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func (s *MongoStore) Insert(ctx context.Context, lead *Lead) error {
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	_, err := s.collection.InsertOne(ctx, lead)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	// A lead for this session already exists. Merge the new fields in.
	set := bson.M{"status": StatusUpdated, "updated_at": now}
	if lead.Name != "" {
		set["name"] = lead.Name
	}
	if lead.Phone != "" {
		set["phone"] = lead.Phone
	}
	if lead.Email != "" {
		set["email"] = lead.Email
	}
	if lead.Question != "" {
		set["question"] = lead.Question
	}
	_, err = s.collection.UpdateOne(ctx,
		bson.M{"session_id": lead.SessionID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update existing lead: %w", err)
	}
	return nil
}

func (s *MongoStore) FindBySession(ctx context.Context, sessionID string) (*Lead, error) {
	var lead Lead
	err := s.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&lead)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return &lead, nil
}

func (s *MongoStore) UpdatePhone(ctx context.Context, sessionID, phone string) error {
	return s.update(ctx, sessionID, bson.M{
		"phone":  phone,
		"status": StatusPhoneCollected,
	})
}

func (s *MongoStore) UpdateEmail(ctx context.Context, sessionID, email string) error {
	return s.update(ctx, sessionID, bson.M{
		"email":  email,
		"status": StatusComplete,
	})
}

func (s *MongoStore) Complete(ctx context.Context, sessionID string) error {
	return s.update(ctx, sessionID, bson.M{"status": StatusComplete})
}

func (s *MongoStore) update(ctx context.Context, sessionID string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return nil
}

func (s *MongoStore) All(ctx context.Context) ([]Lead, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer cursor.Close(ctx)

	var leads []Lead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, fmt.Errorf("failed to decode leads: %w", err)
	}
	return leads, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
