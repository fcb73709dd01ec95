// internal/domain/models/opportunity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Opportunity is a time-bounded, capacity-limited volunteering offer.
//
// Invariants:
//   - StartDate < EndDate
//   - Capacity > 0, fixed shape (mutable only by the owning organization)
//   - never hard-deleted while non-terminal applications reference it
type Opportunity struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Title          string             `bson:"title" json:"title"`
	TitleCI        string             `bson:"title_ci" json:"title_ci"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	Category       string             `bson:"category,omitempty" json:"category,omitempty"`
	StartDate      time.Time          `bson:"start_date" json:"start_date"`
	EndDate        time.Time          `bson:"end_date" json:"end_date"`
	Capacity       int                `bson:"capacity" json:"capacity"`
	RequiredSkills []string           `bson:"required_skills,omitempty" json:"required_skills,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the opportunity's window has closed at t.
func (o Opportunity) Expired(t time.Time) bool {
	return t.After(o.EndDate)
}

// DurationHours returns the window length rounded to whole hours.
// Portfolios derive contribution hours from this value.
func (o Opportunity) DurationHours() int {
	return int(o.EndDate.Sub(o.StartDate).Round(time.Hour) / time.Hour)
}
