package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberProfile is the membership record the SMS audience resolvers read.
// Only members with a phone number are targetable.
type MemberProfile struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID   `bson:"userId" json:"userId"`
	FirstName   string               `bson:"firstName" json:"firstName"`
	LastName    string               `bson:"lastName" json:"lastName"`
	Phone       string               `bson:"phone,omitempty" json:"phone,omitempty"`
	MinistryIDs []primitive.ObjectID `bson:"ministryIds,omitempty" json:"ministryIds,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// FullName returns the member's display name as used on recipient rows.
func (m *MemberProfile) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Ministry is a church ministry, used as an SMS target selector.
type Ministry struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	IsActive bool               `bson:"isActive" json:"isActive"`
}

// Event is a church event, used as an SMS target selector.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
}

// EventRegistration links a person (member or guest) to an event.
type EventRegistration struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	EventID   primitive.ObjectID  `bson:"eventId" json:"eventId"`
	Name      string              `bson:"name" json:"name"`
	Phone     string              `bson:"phone,omitempty" json:"phone,omitempty"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
