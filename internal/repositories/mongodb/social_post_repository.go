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

// SocialPostRepository implements the repositories.SocialPostRepository interface
type SocialPostRepository struct {
	collection *mongo.Collection
}

// NewSocialPostRepository creates a new SocialPostRepository
func NewSocialPostRepository(db *mongo.Database) repositories.SocialPostRepository {
	return &SocialPostRepository{
		collection: db.Collection("social_posts"),
	}
}

// Create creates a new post
func (r *SocialPostRepository) Create(ctx context.Context, post *models.SocialPost) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// FindByID finds a post by ID
func (r *SocialPostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SocialPost, error) {
	var post models.SocialPost
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// FindAll finds posts with optional status and account filters, newest first
func (r *SocialPostRepository) FindAll(ctx context.Context, status string, accountID *primitive.ObjectID, page, limit int) ([]*models.SocialPost, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if accountID != nil {
		filter["accountId"] = *accountID
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []*models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.SocialPost{}
	}
	return posts, nil
}

// Count counts posts matching the optional filters
func (r *SocialPostRepository) Count(ctx context.Context, status string, accountID *primitive.ObjectID) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if accountID != nil {
		filter["accountId"] = *accountID
	}
	return r.collection.CountDocuments(ctx, filter)
}

// Update replaces a post document
func (r *SocialPostRepository) Update(ctx context.Context, post *models.SocialPost) error {
	post.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	return err
}

// Delete deletes a post
func (r *SocialPostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindDueScheduled finds SCHEDULED posts whose scheduledAt has passed
func (r *SocialPostRepository) FindDueScheduled(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	filter := bson.M{
		"status":      models.PostStatusScheduled,
		"scheduledAt": bson.M{"$lte": now},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []*models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SetStatus updates only the status field
func (r *SocialPostRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// MarkPublished transitions a post to PUBLISHED with the provider's post ID
func (r *SocialPostRepository) MarkPublished(ctx context.Context, id primitive.ObjectID, platformPostID string, publishedAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"status":         models.PostStatusPublished,
			"publishedAt":    publishedAt,
			"platformPostId": platformPostID,
			"updatedAt":      time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// MarkFailed transitions a post to FAILED with the normalized provider error
func (r *SocialPostRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	update := bson.M{
		"$set": bson.M{
			"status":       models.PostStatusFailed,
			"errorMessage": errorMessage,
			"updatedAt":    time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// FindInRange returns posts scheduled or published inside [start, end], for the calendar view
func (r *SocialPostRepository) FindInRange(ctx context.Context, start, end time.Time) ([]*models.SocialPost, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"scheduledAt": bson.M{"$gte": start, "$lte": end}},
			bson.M{"publishedAt": bson.M{"$gte": start, "$lte": end}},
		},
	}
	opts := options.Find().SetSort(bson.M{"scheduledAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []*models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.SocialPost{}
	}
	return posts, nil
}
