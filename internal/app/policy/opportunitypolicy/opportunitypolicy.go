// internal/app/policy/opportunitypolicy.go
//
// Package opportunitypolicy holds the authorization decisions for
// opportunity management: only the owning organization may update or
// delete an opportunity.
package opportunitypolicy

import (
	"github.com/dalemusser/volunthub/internal/domain/models"
)

// CanManage reports whether the organization owns the opportunity.
func CanManage(org models.OrganizationProfile, opp models.Opportunity) bool {
	return opp.OrganizationID == org.ID
}
