package mongodb

import (
	"context"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AudienceRepository implements the repositories.AudienceRepository interface.
// It reads member profiles and event registrations; campaign dispatch snapshots
// these rows at promotion time and never re-resolves mid-campaign.
type AudienceRepository struct {
	members       *mongo.Collection
	registrations *mongo.Collection
}

// NewAudienceRepository creates a new AudienceRepository
func NewAudienceRepository(db *mongo.Database) repositories.AudienceRepository {
	return &AudienceRepository{
		members:       db.Collection("member_profiles"),
		registrations: db.Collection("event_registrations"),
	}
}

var hasPhone = bson.M{"$nin": bson.A{nil, ""}}

func (r *AudienceRepository) findMembers(ctx context.Context, filter bson.M) ([]*models.AudienceMember, error) {
	cursor, err := r.members.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []*models.MemberProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}

	audience := make([]*models.AudienceMember, 0, len(profiles))
	for _, profile := range profiles {
		userID := profile.UserID
		audience = append(audience, &models.AudienceMember{
			Phone:  profile.Phone,
			Name:   profile.FullName(),
			UserID: &userID,
		})
	}
	return audience, nil
}

// FindAllMembers returns every member with a phone number
func (r *AudienceRepository) FindAllMembers(ctx context.Context) ([]*models.AudienceMember, error) {
	return r.findMembers(ctx, bson.M{"phone": hasPhone})
}

// FindMinistryMembers returns members of one ministry with a phone number
func (r *AudienceRepository) FindMinistryMembers(ctx context.Context, ministryID primitive.ObjectID) ([]*models.AudienceMember, error) {
	return r.findMembers(ctx, bson.M{"phone": hasPhone, "ministryIds": ministryID})
}

// FindEventRegistrants returns registrants for one event with a phone number
func (r *AudienceRepository) FindEventRegistrants(ctx context.Context, eventID primitive.ObjectID) ([]*models.AudienceMember, error) {
	cursor, err := r.registrations.Find(ctx, bson.M{"eventId": eventID, "phone": hasPhone})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var registrations []*models.EventRegistration
	if err := cursor.All(ctx, &registrations); err != nil {
		return nil, err
	}

	audience := make([]*models.AudienceMember, 0, len(registrations))
	for _, registration := range registrations {
		audience = append(audience, &models.AudienceMember{
			Phone:  registration.Phone,
			Name:   registration.Name,
			UserID: registration.UserID,
		})
	}
	return audience, nil
}

// CountAllMembers counts members with a phone number
func (r *AudienceRepository) CountAllMembers(ctx context.Context) (int64, error) {
	return r.members.CountDocuments(ctx, bson.M{"phone": hasPhone})
}

// CountMinistryMembers counts members of one ministry with a phone number
func (r *AudienceRepository) CountMinistryMembers(ctx context.Context, ministryID primitive.ObjectID) (int64, error) {
	return r.members.CountDocuments(ctx, bson.M{"phone": hasPhone, "ministryIds": ministryID})
}

// CountEventRegistrants counts registrants for one event with a phone number
func (r *AudienceRepository) CountEventRegistrants(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return r.registrations.CountDocuments(ctx, bson.M{"eventId": eventID, "phone": hasPhone})
}
