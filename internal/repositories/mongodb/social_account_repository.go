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

// SocialAccountRepository implements the repositories.SocialAccountRepository interface
type SocialAccountRepository struct {
	collection *mongo.Collection
}

// NewSocialAccountRepository creates a new SocialAccountRepository
func NewSocialAccountRepository(db *mongo.Database) repositories.SocialAccountRepository {
	return &SocialAccountRepository{
		collection: db.Collection("social_accounts"),
	}
}

// FindByID finds an account by ID
func (r *SocialAccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SocialAccount, error) {
	var account models.SocialAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindActive returns all connected (non-disconnected) accounts, newest first
func (r *SocialAccountRepository) FindActive(ctx context.Context) ([]*models.SocialAccount, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*models.SocialAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}
	return accounts, nil
}

// FindExpiring returns active accounts with a refresh token whose access
// token expires before the given instant
func (r *SocialAccountRepository) FindExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	filter := bson.M{
		"isActive":     true,
		"refreshToken": bson.M{"$nin": bson.A{nil, ""}},
		"tokenExpiry":  bson.M{"$lt": before},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*models.SocialAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Upsert inserts or updates an account on its (platform, accountId) unique key.
// Reconnecting a previously disconnected account reactivates it in place.
func (r *SocialAccountRepository) Upsert(ctx context.Context, account *models.SocialAccount) error {
	now := time.Now()
	filter := bson.M{
		"platform":  account.Platform,
		"accountId": account.AccountID,
	}
	update := bson.M{
		"$set": bson.M{
			"accountName":  account.AccountName,
			"accessToken":  account.AccessToken,
			"refreshToken": account.RefreshToken,
			"tokenExpiry":  account.TokenExpiry,
			"isActive":     true,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"platform":  account.Platform,
			"accountId": account.AccountID,
			"createdAt": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// UpdateTokens persists a refreshed token set on an account
func (r *SocialAccountRepository) UpdateTokens(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiry time.Time) error {
	set := bson.M{
		"accessToken": accessToken,
		"tokenExpiry": expiry,
		"updatedAt":   time.Now(),
	}
	if refreshToken != "" {
		set["refreshToken"] = refreshToken
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// Deactivate soft-deletes an account, preserving post history joins
func (r *SocialAccountRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"isActive":  false,
			"updatedAt": time.Now(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
