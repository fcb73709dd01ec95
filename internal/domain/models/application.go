// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus is the closed lifecycle state of an application.
//
// The graph is:
//
//	PENDING → ACCEPTED | REJECTED
//	ACCEPTED → COMPLETED
//
// REJECTED and COMPLETED are terminal.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "PENDING"
	StatusAccepted  ApplicationStatus = "ACCEPTED"
	StatusRejected  ApplicationStatus = "REJECTED"
	StatusCompleted ApplicationStatus = "COMPLETED"
)

// AllApplicationStatuses lists every lifecycle state, for validation and
// for aggregation queries that fan out per status.
var AllApplicationStatuses = []ApplicationStatus{
	StatusPending, StatusAccepted, StatusRejected, StatusCompleted,
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted:
		return true
	case StatusPending, StatusAccepted:
		return false
	}
	return false
}

// CanTransitionTo reports whether target is reachable from s in one step.
// The switch is exhaustive over the source state so a new status cannot be
// silently ignored.
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusAccepted || target == StatusRejected
	case StatusAccepted:
		return target == StatusCompleted
	case StatusRejected, StatusCompleted:
		return false
	}
	return false
}

// Application links a volunteer to an opportunity and carries the lifecycle
// state. At most one application exists per (volunteer, opportunity) pair,
// enforced by a unique index.
type Application struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	VolunteerID   primitive.ObjectID `bson:"volunteer_id" json:"volunteer_id"`
	OpportunityID primitive.ObjectID `bson:"opportunity_id" json:"opportunity_id"`
	Status        ApplicationStatus  `bson:"status" json:"status"`

	// Position and Description are set only alongside an accept or
	// complete transition, never at creation.
	Position    string `bson:"position,omitempty" json:"position,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	ApplyDate time.Time `bson:"apply_date" json:"apply_date"`
}
