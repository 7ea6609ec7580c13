package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// deliveryDocument is the stored shape of a delivery record
type deliveryDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Content   interface{}        `bson:"content"`
	Timestamp time.Time          `bson:"timestamp"`
}

func (d *deliveryDocument) toRecord() *domain.DeliveryRecord {
	return &domain.DeliveryRecord{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		Timestamp: d.Timestamp,
	}
}

// DeliveryRepository implements storage.DeliveryRepository using MongoDB
type DeliveryRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewDeliveryRepository creates a new MongoDB-backed delivery repository
func NewDeliveryRepository(mongoURI, database, collection string) (*DeliveryRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Nested documents decode as bson.M so stored content reads back as plain maps
	clientOptions := options.Client().
		ApplyURI(mongoURI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DeliveryRepository{
		client:     client,
		database:   database,
		collection: collection,
	}, nil
}

func (r *DeliveryRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Store inserts one record into the collection
func (r *DeliveryRepository) Store(ctx context.Context, record *domain.DeliveryRecord) error {
	if record == nil {
		return domain.ErrInvalidInput
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	doc := deliveryDocument{
		Content:   record.Content,
		Timestamp: record.Timestamp,
	}

	result, err := r.coll().InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("%w: failed to insert record: %w", domain.ErrDatabaseError, err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}

	return nil
}

// Recent retrieves up to limit records ordered by timestamp descending
func (r *DeliveryRepository) Recent(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultRecentLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query records: %w", domain.ErrDatabaseError, err)
	}
	defer cursor.Close(ctx)

	var docs []deliveryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: failed to decode records: %w", domain.ErrDatabaseError, err)
	}

	records := make([]*domain.DeliveryRecord, len(docs))
	for i := range docs {
		records[i] = docs[i].toRecord()
	}

	return records, nil
}

// Count returns the total number of records in the collection
func (r *DeliveryRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count records: %w", domain.ErrDatabaseError, err)
	}
	return count, nil
}

// Close closes the MongoDB connection
func (r *DeliveryRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
