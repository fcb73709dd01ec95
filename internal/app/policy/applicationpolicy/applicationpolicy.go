// internal/app/policy/applicationpolicy.go
//
// Package applicationpolicy holds the authorization decisions for
// application lifecycle operations. Each operation has exactly one
// decision function, called once per engine call with the already-resolved
// profiles and target entities.
//
// Authorization rules:
//   - apply: any resolved volunteer may apply on their own behalf
//   - transition (accept/reject/complete): only the organization owning
//     the application's opportunity
//   - withdraw: only the volunteer owning the application
package applicationpolicy

import (
	"github.com/dalemusser/volunthub/internal/domain/models"
)

// CanTransition reports whether the organization may drive the
// application's opportunity through a status transition.
func CanTransition(org models.OrganizationProfile, opp models.Opportunity) bool {
	return opp.OrganizationID == org.ID
}

// CanWithdraw reports whether the volunteer owns the application and may
// withdraw it. State validity (non-terminal only) is the engine's concern,
// not the policy's.
func CanWithdraw(vol models.VolunteerProfile, app models.Application) bool {
	return app.VolunteerID == vol.ID
}

// CanView reports whether the principal's resolved profile is a party to
// the application: the applicant volunteer or the counterparty
// organization (via the opportunity).
func CanView(app models.Application, opp models.Opportunity, vol *models.VolunteerProfile, org *models.OrganizationProfile) bool {
	if vol != nil && app.VolunteerID == vol.ID {
		return true
	}
	if org != nil && opp.OrganizationID == org.ID {
		return true
	}
	return false
}
