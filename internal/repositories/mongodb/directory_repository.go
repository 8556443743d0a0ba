package mongodb

import (
	"context"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MinistryRepository implements the repositories.MinistryRepository interface
type MinistryRepository struct {
	collection *mongo.Collection
}

// NewMinistryRepository creates a new MinistryRepository
func NewMinistryRepository(db *mongo.Database) repositories.MinistryRepository {
	return &MinistryRepository{
		collection: db.Collection("ministries"),
	}
}

// FindActive returns active ministries sorted by name
func (r *MinistryRepository) FindActive(ctx context.Context) ([]*models.Ministry, error) {
	opts := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ministries []*models.Ministry
	if err := cursor.All(ctx, &ministries); err != nil {
		return nil, err
	}
	if ministries == nil {
		ministries = []*models.Ministry{}
	}
	return ministries, nil
}

// EventRepository implements the repositories.EventRepository interface
type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *mongo.Database) repositories.EventRepository {
	return &EventRepository{
		collection: db.Collection("events"),
	}
}

// FindPublished returns published events, most recent first
func (r *EventRepository) FindPublished(ctx context.Context, limit int) ([]*models.Event, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.M{"startDate": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"isPublished": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.Event{}
	}
	return events, nil
}
