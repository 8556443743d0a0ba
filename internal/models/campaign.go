package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign statuses
const (
	CampaignStatusDraft      = "DRAFT"
	CampaignStatusScheduled  = "SCHEDULED"
	CampaignStatusProcessing = "PROCESSING"
	CampaignStatusCompleted  = "COMPLETED"
	CampaignStatusFailed     = "FAILED"
	CampaignStatusCancelled  = "CANCELLED"
)

// Campaign target types
const (
	TargetAllMembers       = "ALL_MEMBERS"
	TargetMinistry         = "MINISTRY"
	TargetEventRegistrants = "EVENT_REGISTRANTS"
)

// MaxCampaignMessageLength is the longest SMS body we accept (3 concatenated segments).
const MaxCampaignMessageLength = 480

// Campaign represents a bulk SMS campaign
type Campaign struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string              `bson:"name" json:"name"`
	Message         string              `bson:"message" json:"message"`
	TargetType      string              `bson:"targetType" json:"targetType"`
	TargetID        *primitive.ObjectID `bson:"targetId,omitempty" json:"targetId,omitempty"`
	Status          string              `bson:"status" json:"status"`
	ScheduledAt     *time.Time          `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`
	StartedAt       *time.Time          `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt     *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	TotalRecipients int                 `bson:"totalRecipients" json:"totalRecipients"`
	SentCount       int                 `bson:"sentCount" json:"sentCount"`
	FailedCount     int                 `bson:"failedCount" json:"failedCount"`
	CreatedByID     primitive.ObjectID  `bson:"createdById" json:"createdById"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsEditable reports whether the campaign may still be modified or deleted.
// Once dispatch begins the campaign is owned by the queue.
func (c *Campaign) IsEditable() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusScheduled
}

// Recipient statuses
const (
	RecipientStatusPending = "PENDING"
	RecipientStatusSent    = "SENT"
	RecipientStatusFailed  = "FAILED"
)

// Recipient is a per-campaign fan-out row, materialized once from the target
// audience when the campaign leaves DRAFT/SCHEDULED. SENT and FAILED are terminal.
type Recipient struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CampaignID   primitive.ObjectID  `bson:"campaignId" json:"campaignId"`
	Phone        string              `bson:"phone" json:"phone"`
	Name         string              `bson:"name" json:"name"`
	UserID       *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Status       string              `bson:"status" json:"status"`
	SentAt       *time.Time          `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	ErrorMessage string              `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}

// AudienceMember is one row returned by the audience resolvers.
type AudienceMember struct {
	Phone  string              `bson:"phone" json:"phone"`
	Name   string              `bson:"name" json:"name"`
	UserID *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
}
