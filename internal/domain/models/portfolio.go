// internal/domain/models/portfolio.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Portfolio is the immutable record of one completed contribution.
//
// ActivityTitle is a snapshot of the opportunity title at derivation time;
// later title edits never alter an existing portfolio. Exactly one
// portfolio exists per (volunteer, application), enforced by a unique
// index. Portfolios are never updated or deleted.
type Portfolio struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	VolunteerID       primitive.ObjectID `bson:"volunteer_id" json:"volunteer_id"`
	ApplicationID     primitive.ObjectID `bson:"application_id" json:"application_id"`
	ActivityTitle     string             `bson:"activity_title" json:"activity_title"`
	ContributionHours int                `bson:"contribution_hours" json:"contribution_hours"`

	// Optional annotations supplied at derivation time.
	Certificate string `bson:"certificate,omitempty" json:"certificate,omitempty"`
	Badge       string `bson:"badge,omitempty" json:"badge,omitempty"`
	Feedback    string `bson:"feedback,omitempty" json:"feedback,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
