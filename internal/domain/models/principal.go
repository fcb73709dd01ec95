// internal/domain/models/principal.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role identifies which kind of profile a verified principal owns.
// Roles form a closed set; anything else fails authorization closed.
type Role string

const (
	RoleVolunteer    Role = "volunteer"
	RoleOrganization Role = "organization"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleVolunteer, RoleOrganization:
		return true
	}
	return false
}

// Principal is an already-verified actor: authentication happens upstream,
// the engine only ever sees the resulting (id, role) pair.
type Principal struct {
	UserID primitive.ObjectID
	Role   Role
}

// IsZero reports whether p carries no verified identity.
func (p Principal) IsZero() bool {
	return p.UserID.IsZero()
}
