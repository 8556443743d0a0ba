package mongodb

import (
	"context"
	"time"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecipientRepository implements the repositories.RecipientRepository interface
type RecipientRepository struct {
	collection *mongo.Collection
}

// NewRecipientRepository creates a new RecipientRepository
func NewRecipientRepository(db *mongo.Database) repositories.RecipientRepository {
	return &RecipientRepository{
		collection: db.Collection("sms_recipients"),
	}
}

// CreateMany bulk-inserts recipient rows for a campaign
func (r *RecipientRepository) CreateMany(ctx context.Context, recipients []*models.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(recipients))
	for _, recipient := range recipients {
		recipient.ID = primitive.NewObjectID()
		recipient.CreatedAt = time.Now()
		docs = append(docs, recipient)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindPending fetches up to limit PENDING recipients in insertion order
func (r *RecipientRepository) FindPending(ctx context.Context, campaignID primitive.ObjectID, limit int) ([]*models.Recipient, error) {
	filter := bson.M{
		"campaignId": campaignID,
		"status":     models.RecipientStatusPending,
	}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recipients []*models.Recipient
	if err := cursor.All(ctx, &recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

// FindByCampaign returns a sample of recipients for a campaign, most recently sent first
func (r *RecipientRepository) FindByCampaign(ctx context.Context, campaignID primitive.ObjectID, limit int) ([]*models.Recipient, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.M{"sentAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"campaignId": campaignID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recipients []*models.Recipient
	if err := cursor.All(ctx, &recipients); err != nil {
		return nil, err
	}
	if recipients == nil {
		recipients = []*models.Recipient{}
	}
	return recipients, nil
}

// MarkSent transitions a recipient to SENT
func (r *RecipientRepository) MarkSent(ctx context.Context, id primitive.ObjectID, sentAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"status": models.RecipientStatusSent,
			"sentAt": sentAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// MarkFailed transitions a recipient to FAILED with the normalized provider error
func (r *RecipientRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	update := bson.M{
		"$set": bson.M{
			"status":       models.RecipientStatusFailed,
			"errorMessage": errorMessage,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// CountByStatus returns recipient counts grouped by status for one campaign
func (r *RecipientRepository) CountByStatus(ctx context.Context, campaignID primitive.ObjectID) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"campaignId": campaignID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(results))
	for _, result := range results {
		counts[result.Status] = result.Count
	}
	return counts, nil
}

// CountByCampaign counts all recipients belonging to a campaign
func (r *RecipientRepository) CountByCampaign(ctx context.Context, campaignID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"campaignId": campaignID})
}
