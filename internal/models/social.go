package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Social platforms
const (
	PlatformFacebook  = "FACEBOOK"
	PlatformInstagram = "INSTAGRAM"
	PlatformTwitter   = "TWITTER"
	PlatformTikTok    = "TIKTOK"
)

// SocialPost statuses
const (
	PostStatusDraft      = "DRAFT"
	PostStatusScheduled  = "SCHEDULED"
	PostStatusPublishing = "PUBLISHING"
	PostStatusPublished  = "PUBLISHED"
	PostStatusFailed     = "FAILED"
)

// Media types
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// SocialAccount is a connected social-media account. Accounts are never
// deleted, only deactivated, so published posts keep their account join.
type SocialAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Platform     string             `bson:"platform" json:"platform"`
	AccountID    string             `bson:"accountId" json:"accountId"`
	AccountName  string             `bson:"accountName" json:"accountName"`
	AccessToken  string             `bson:"accessToken" json:"-"`
	RefreshToken string             `bson:"refreshToken,omitempty" json:"-"`
	TokenExpiry  *time.Time         `bson:"tokenExpiry,omitempty" json:"tokenExpiry,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TokenExpired reports whether the account's access token is already past
// expiry at the given instant. Accounts without an expiry never expire.
func (a *SocialAccount) TokenExpired(now time.Time) bool {
	return a.TokenExpiry != nil && a.TokenExpiry.Before(now)
}

// SocialPost is a scheduled or published social-media post. Editable only
// while DRAFT/SCHEDULED; PUBLISHING transitions one way to PUBLISHED or FAILED.
type SocialPost struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AccountID      primitive.ObjectID `bson:"accountId" json:"accountId"`
	Content        string             `bson:"content" json:"content"`
	MediaURLs      []string           `bson:"mediaUrls" json:"mediaUrls"`
	MediaType      string             `bson:"mediaType,omitempty" json:"mediaType,omitempty"`
	Status         string             `bson:"status" json:"status"`
	ScheduledAt    *time.Time         `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`
	PublishedAt    *time.Time         `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	PlatformPostID string             `bson:"platformPostId,omitempty" json:"platformPostId,omitempty"`
	ErrorMessage   string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedByID    primitive.ObjectID `bson:"createdById" json:"createdById"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsEditable reports whether the post may still be modified.
func (p *SocialPost) IsEditable() bool {
	return p.Status == PostStatusDraft || p.Status == PostStatusScheduled
}
