package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/repository"
)

const collectionName = "whatsapp_messages"

// MongoDBRepository implements repository.MessageStore on a MongoDB collection.
type MongoDBRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		coll:   client.Database(dbName).Collection(collectionName),
	}, nil
}

// EnsureIndexes creates the message_id unique index and the lookup indexes.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "message_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "contact_id", Value: 1}}},
		{Keys: bson.D{{Key: "phone", Value: 1}}},
		{Keys: bson.D{{Key: "direction", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) Create(ctx context.Context, record *models.StoredMessageRecord) error {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert message %s: %w", record.MessageID, err)
	}
	return nil
}

func (r *MongoDBRepository) FindByMessageID(ctx context.Context, messageID string) (*models.StoredMessageRecord, error) {
	var rec models.StoredMessageRecord
	err := r.coll.FindOne(ctx, bson.M{"message_id": messageID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load message %s: %w", messageID, err)
	}
	return &rec, nil
}

// UpdateStatus stamps the lifecycle field of status, backfilling earlier
// stages. Failed only touches failed_at.
func (r *MongoDBRepository) UpdateStatus(ctx context.Context, messageID string, status models.Status, at time.Time) error {
	fields, err := statusFields(status)
	if err != nil {
		return err
	}
	return r.fill(ctx, messageID, "status "+string(status), fillPipeline(at, fields...))
}

func (r *MongoDBRepository) UpdateResponse(ctx context.Context, messageID string, response models.Response, at time.Time) error {
	var field string
	switch response {
	case models.ResponseApproved:
		field = "approved_at"
	case models.ResponseDeclined:
		field = "declined_at"
	default:
		return fmt.Errorf("unknown response %q", response)
	}
	return r.fill(ctx, messageID, "response "+string(response), fillPipeline(at, field))
}

func (r *MongoDBRepository) RecordError(ctx context.Context, messageID string, code int, message string) error {
	update := bson.M{"$set": bson.M{
		"error_code":    code,
		"error_message": message,
		"updated_at":    time.Now().UTC(),
	}}
	return r.fill(ctx, messageID, "error", update)
}

func (r *MongoDBRepository) UpdateConversation(ctx context.Context, messageID string, update models.ConversationUpdate) error {
	return r.fill(ctx, messageID, "conversation", conversationUpdate(update, time.Now().UTC()))
}

// CountByStatus tallies documents created in [from, to).
func (r *MongoDBRepository) CountByStatus(ctx context.Context, from, to time.Time) (models.DeliveryCounts, error) {
	cursor, err := r.coll.Aggregate(ctx, countPipeline(from, to))
	if err != nil {
		return models.DeliveryCounts{}, fmt.Errorf("failed to count messages: %w", err)
	}
	defer cursor.Close(ctx)

	var counts models.DeliveryCounts
	if cursor.Next(ctx) {
		if err := cursor.Decode(&counts); err != nil {
			return models.DeliveryCounts{}, fmt.Errorf("failed to decode message counts: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return models.DeliveryCounts{}, fmt.Errorf("failed to count messages: %w", err)
	}
	return counts, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) fill(ctx context.Context, messageID, what string, update any) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"message_id": messageID}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s of message %s: %w", what, messageID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func statusFields(status models.Status) ([]string, error) {
	switch status {
	case models.StatusSent:
		return []string{"sent_at"}, nil
	case models.StatusDelivered:
		return []string{"sent_at", "delivered_at"}, nil
	case models.StatusRead:
		return []string{"sent_at", "delivered_at", "read_at"}, nil
	case models.StatusFailed:
		return []string{"failed_at"}, nil
	default:
		return nil, fmt.Errorf("unknown message status %q", status)
	}
}

// fillPipeline sets each field to at unless it already holds a value.
func fillPipeline(at time.Time, fields ...string) mongo.Pipeline {
	set := bson.D{}
	for _, f := range fields {
		set = append(set, bson.E{Key: f, Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + f, at}}}})
	}
	set = append(set, bson.E{Key: "updated_at", Value: "$$NOW"})
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// conversationUpdate only sets the fields present in u.
func conversationUpdate(u models.ConversationUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.ConversationID != "" {
		set["conversation_id"] = u.ConversationID
	}
	if u.Origin != "" {
		set["conversation_origin"] = u.Origin
	}
	if u.ExpiresAt != nil {
		set["conversation_expires_at"] = *u.ExpiresAt
	}
	if u.Category != "" {
		set["category"] = u.Category
	}
	if u.Billable != nil {
		set["billable"] = *u.Billable
	}
	return bson.M{"$set": set}
}

func countPipeline(from, to time.Time) mongo.Pipeline {
	present := func(field string) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$gt", Value: bson.A{"$" + field, nil}}}, 1, 0,
		}}}}}
	}
	directionIs := func(d models.Direction) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$direction", string(d)}}}, 1, 0,
		}}}}}
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{
			{Key: "$gte", Value: from},
			{Key: "$lt", Value: to},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: directionIs(models.DirectionOutbound)},
			{Key: "sent", Value: present("sent_at")},
			{Key: "delivered", Value: present("delivered_at")},
			{Key: "read", Value: present("read_at")},
			{Key: "failed", Value: present("failed_at")},
			{Key: "approved", Value: present("approved_at")},
			{Key: "declined", Value: present("declined_at")},
			{Key: "inbound", Value: directionIs(models.DirectionInbound)},
		}}},
	}
}
