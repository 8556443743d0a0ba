package repositories

import (
	"context"
	"time"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignRepository defines the interface for SMS campaign ledger operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	FindAll(ctx context.Context, status string, page, limit int) ([]*models.Campaign, error)
	Count(ctx context.Context, status string) (int64, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// FindDueScheduled returns SCHEDULED campaigns whose scheduledAt is at or before now.
	FindDueScheduled(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	FindByStatus(ctx context.Context, status string) ([]*models.Campaign, error)
	UpdateCounts(ctx context.Context, id primitive.ObjectID, sentCount, failedCount int) error
}

// RecipientRepository defines the interface for campaign recipient rows
type RecipientRepository interface {
	CreateMany(ctx context.Context, recipients []*models.Recipient) error
	FindPending(ctx context.Context, campaignID primitive.ObjectID, limit int) ([]*models.Recipient, error)
	FindByCampaign(ctx context.Context, campaignID primitive.ObjectID, limit int) ([]*models.Recipient, error)
	MarkSent(ctx context.Context, id primitive.ObjectID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error
	// CountByStatus returns recipient counts grouped by status for one campaign.
	CountByStatus(ctx context.Context, campaignID primitive.ObjectID) (map[string]int64, error)
	CountByCampaign(ctx context.Context, campaignID primitive.ObjectID) (int64, error)
}

// SocialAccountRepository defines the interface for connected social accounts
type SocialAccountRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.SocialAccount, error)
	FindActive(ctx context.Context) ([]*models.SocialAccount, error)
	// FindExpiring returns active accounts holding a refresh token whose
	// access token expires before the given instant.
	FindExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
	// Upsert inserts or updates on the (platform, accountId) unique key and
	// reactivates a previously disconnected account.
	Upsert(ctx context.Context, account *models.SocialAccount) error
	UpdateTokens(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiry time.Time) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

// SocialPostRepository defines the interface for the social post ledger
type SocialPostRepository interface {
	Create(ctx context.Context, post *models.SocialPost) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.SocialPost, error)
	FindAll(ctx context.Context, status string, accountID *primitive.ObjectID, page, limit int) ([]*models.SocialPost, error)
	Count(ctx context.Context, status string, accountID *primitive.ObjectID) (int64, error)
	Update(ctx context.Context, post *models.SocialPost) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// FindDueScheduled returns SCHEDULED posts whose scheduledAt is at or before now.
	FindDueScheduled(ctx context.Context, now time.Time) ([]*models.SocialPost, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	MarkPublished(ctx context.Context, id primitive.ObjectID, platformPostID string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error
	// FindInRange returns posts whose scheduled or published date falls in [start, end].
	FindInRange(ctx context.Context, start, end time.Time) ([]*models.SocialPost, error)
}

// SettingsRepository is the key/value settings store. The dispatch engine
// consumes it read-only and re-reads it every tick so credential rotation
// takes effect within one interval.
type SettingsRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
}

// AudienceRepository resolves campaign target selectors into recipient rows.
// Resolution is a pure read of membership state at the instant it runs.
type AudienceRepository interface {
	FindAllMembers(ctx context.Context) ([]*models.AudienceMember, error)
	FindMinistryMembers(ctx context.Context, ministryID primitive.ObjectID) ([]*models.AudienceMember, error)
	FindEventRegistrants(ctx context.Context, eventID primitive.ObjectID) ([]*models.AudienceMember, error)
	CountAllMembers(ctx context.Context) (int64, error)
	CountMinistryMembers(ctx context.Context, ministryID primitive.ObjectID) (int64, error)
	CountEventRegistrants(ctx context.Context, eventID primitive.ObjectID) (int64, error)
}

// MinistryRepository lists ministries for the campaign target picker
type MinistryRepository interface {
	FindActive(ctx context.Context) ([]*models.Ministry, error)
}

// EventRepository lists events for the campaign target picker
type EventRepository interface {
	FindPublished(ctx context.Context, limit int) ([]*models.Event, error)
}

// UserRepository defines the interface for operator accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
