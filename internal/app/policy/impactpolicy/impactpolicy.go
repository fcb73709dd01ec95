// internal/app/policy/impactpolicy.go
//
// Package impactpolicy holds the authorization decisions for impact
// analyses: the organization owning the referenced opportunity is the only
// actor that may create, update, or delete an analysis for it.
package impactpolicy

import (
	"github.com/dalemusser/volunthub/internal/domain/models"
)

// CanCreate reports whether the organization owns the opportunity the new
// analysis would reference.
func CanCreate(org models.OrganizationProfile, opp models.Opportunity) bool {
	return opp.OrganizationID == org.ID
}

// CanManage reports whether the organization owns an existing analysis.
func CanManage(org models.OrganizationProfile, ia models.ImpactAnalysis) bool {
	return ia.OrganizationID == org.ID
}
