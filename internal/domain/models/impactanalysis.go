// internal/domain/models/impactanalysis.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImpactAnalysis is an organization's aggregate of completed-activity
// outcomes for one opportunity. At most one exists per
// (organization, opportunity) pair, enforced by a unique index. The owning
// organization may update or delete it.
type ImpactAnalysis struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID  primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	OpportunityID   primitive.ObjectID `bson:"opportunity_id" json:"opportunity_id"`
	TotalHours      int                `bson:"total_hours" json:"total_hours"`
	TotalVolunteers int                `bson:"total_volunteers" json:"total_volunteers"`
	Beneficiaries   int                `bson:"beneficiaries" json:"beneficiaries"`
	RegionCovered   string             `bson:"region_covered,omitempty" json:"region_covered,omitempty"`

	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}
