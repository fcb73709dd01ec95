// internal/app/metrics/pipeline.go
//
// Package metrics implements the derivation pipeline: portfolios derived
// from completed applications, and impact analyses aggregated from
// completed work per opportunity and per organization. Derived records
// are historical snapshots; later edits to the source opportunity never
// retroactively change them.
package metrics

import (
	"context"
	"errors"

	"github.com/dalemusser/volunthub/internal/app/policy/impactpolicy"
	"github.com/dalemusser/volunthub/internal/app/store/applications"
	"github.com/dalemusser/volunthub/internal/app/store/events"
	"github.com/dalemusser/volunthub/internal/app/store/impact"
	"github.com/dalemusser/volunthub/internal/app/store/opportunities"
	"github.com/dalemusser/volunthub/internal/app/store/portfolios"
	"github.com/dalemusser/volunthub/internal/app/system/authz"
	"github.com/dalemusser/volunthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunthub/internal/app/system/timeouts"
	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Pipeline struct {
	resolver      *authz.Resolver
	opportunities *opportunitystore.Store
	applications  *applicationstore.Store
	portfolios    *portfoliostore.Store
	impact        *impactstore.Store
	events        *eventstore.Store
	log           *zap.Logger
}

func NewPipeline(
	resolver *authz.Resolver,
	opportunities *opportunitystore.Store,
	applications *applicationstore.Store,
	portfolios *portfoliostore.Store,
	impact *impactstore.Store,
	events *eventstore.Store,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		resolver:      resolver,
		opportunities: opportunities,
		applications:  applications,
		portfolios:    portfolios,
		impact:        impact,
		events:        events,
		log:           log,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.ErrNotFound
	}
	return err
}

// Annotations are the optional extras attached to a portfolio at
// derivation time. Portfolios are immutable afterwards, so this is the
// only moment they can be set.
type Annotations struct {
	Certificate string
	Badge       string
	Feedback    string
}

// DerivePortfolio creates the portfolio for a completed application. It
// is system-triggered by lifecycle completion, not invoked by a
// principal. Contribution hours are the opportunity's window rounded to
// whole hours, and the activity title is snapshotted at derivation time.
// A second derivation for the same application fails with a Conflict from
// the uniqueness constraint, never a duplicate row.
func (p *Pipeline) DerivePortfolio(ctx context.Context, applicationID primitive.ObjectID, ann *Annotations) (models.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	app, err := p.applications.GetByID(ctx, applicationID)
	if err != nil {
		return models.Portfolio{}, mapNotFound(err)
	}
	if app.Status != models.StatusCompleted {
		return models.Portfolio{}, apperr.ErrInvalidState
	}

	opp, err := p.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return models.Portfolio{}, mapNotFound(err)
	}

	draft := models.Portfolio{
		VolunteerID:       app.VolunteerID,
		ApplicationID:     app.ID,
		ActivityTitle:     opp.Title,
		ContributionHours: opp.DurationHours(),
	}
	if ann != nil {
		draft.Certificate = htmlsanitize.Plain(ann.Certificate)
		draft.Badge = htmlsanitize.Plain(ann.Badge)
		draft.Feedback = htmlsanitize.Sanitize(ann.Feedback)
	}

	pf, err := p.portfolios.Create(ctx, draft)
	if err != nil {
		return models.Portfolio{}, err
	}

	p.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindPortfolioCreated,
		ApplicationID: app.ID,
		OpportunityID: opp.ID,
		SubjectID:     pf.ID,
	})
	p.log.Info("portfolio derived",
		zap.String("portfolio_id", pf.ID.Hex()),
		zap.String("application_id", app.ID.Hex()),
		zap.Int("contribution_hours", pf.ContributionHours))
	return pf, nil
}

// ImpactSummary is the read-only aggregation over one opportunity's
// completed work.
type ImpactSummary struct {
	TotalHours      int
	TotalVolunteers int
}

// ComputeImpact aggregates an opportunity's completed applications:
// distinct completed volunteers, and the hours of the portfolios those
// applications produced.
func (p *Pipeline) ComputeImpact(ctx context.Context, opportunityID primitive.ObjectID) (ImpactSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	completed, err := p.applications.ListCompletedByOpportunity(ctx, opportunityID)
	if err != nil {
		return ImpactSummary{}, apperr.Transient("compute impact", err)
	}
	return p.summarize(ctx, completed)
}

func (p *Pipeline) summarize(ctx context.Context, completed []models.Application) (ImpactSummary, error) {
	if len(completed) == 0 {
		return ImpactSummary{}, nil
	}

	volunteers := make(map[primitive.ObjectID]struct{}, len(completed))
	appIDs := make([]primitive.ObjectID, 0, len(completed))
	for _, a := range completed {
		volunteers[a.VolunteerID] = struct{}{}
		appIDs = append(appIDs, a.ID)
	}

	pfs, err := p.portfolios.ListByApplications(ctx, appIDs)
	if err != nil {
		return ImpactSummary{}, apperr.Transient("compute impact", err)
	}

	sum := ImpactSummary{TotalVolunteers: len(volunteers)}
	for _, pf := range pfs {
		sum.TotalHours += pf.ContributionHours
	}
	return sum, nil
}

// ImpactInput carries the caller-settable fields of a new analysis; the
// metric totals are computed, not supplied.
type ImpactInput struct {
	Beneficiaries int
	RegionCovered string
}

// CreateImpactAnalysis seeds a new analysis for one opportunity from its
// completed-applications snapshot. Only the organization owning the
// opportunity may create one, and only one may exist per opportunity.
func (p *Pipeline) CreateImpactAnalysis(ctx context.Context, principal models.Principal, opportunityID primitive.ObjectID, in ImpactInput) (models.ImpactAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	org, err := p.resolver.ResolveOrganization(ctx, principal)
	if err != nil {
		return models.ImpactAnalysis{}, err
	}

	opp, err := p.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return models.ImpactAnalysis{}, mapNotFound(err)
	}
	if !impactpolicy.CanCreate(org, opp) {
		return models.ImpactAnalysis{}, apperr.ErrForbidden
	}

	sum, err := p.ComputeImpact(ctx, opp.ID)
	if err != nil {
		return models.ImpactAnalysis{}, err
	}

	region := htmlsanitize.Plain(in.RegionCovered)
	if region == "" {
		region = opp.Location
	}

	ia, err := p.impact.Create(ctx, models.ImpactAnalysis{
		OrganizationID:  org.ID,
		OpportunityID:   opp.ID,
		TotalHours:      sum.TotalHours,
		TotalVolunteers: sum.TotalVolunteers,
		Beneficiaries:   in.Beneficiaries,
		RegionCovered:   region,
	})
	if err != nil {
		return models.ImpactAnalysis{}, err
	}

	p.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindImpactCreated,
		ActorUserID:   principal.UserID,
		OpportunityID: opp.ID,
		SubjectID:     ia.ID,
	})
	return ia, nil
}

// UpdateImpactAnalysis applies a partial update to an analysis the
// principal's organization owns.
func (p *Pipeline) UpdateImpactAnalysis(ctx context.Context, principal models.Principal, id primitive.ObjectID, patch impactstore.Patch) (models.ImpactAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := p.resolver.ResolveOrganization(ctx, principal)
	if err != nil {
		return models.ImpactAnalysis{}, err
	}

	ia, err := p.impact.GetByID(ctx, id)
	if err != nil {
		return models.ImpactAnalysis{}, mapNotFound(err)
	}
	if !impactpolicy.CanManage(org, ia) {
		return models.ImpactAnalysis{}, apperr.ErrForbidden
	}

	if patch.RegionCovered != "" {
		patch.RegionCovered = htmlsanitize.Plain(patch.RegionCovered)
	}
	updated, err := p.impact.Update(ctx, ia.ID, patch)
	if err != nil {
		return models.ImpactAnalysis{}, mapNotFound(err)
	}

	p.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindImpactUpdated,
		ActorUserID:   principal.UserID,
		OpportunityID: ia.OpportunityID,
		SubjectID:     ia.ID,
	})
	return updated, nil
}

// DeleteImpactAnalysis removes an analysis the principal's organization
// owns.
func (p *Pipeline) DeleteImpactAnalysis(ctx context.Context, principal models.Principal, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := p.resolver.ResolveOrganization(ctx, principal)
	if err != nil {
		return err
	}

	ia, err := p.impact.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if !impactpolicy.CanManage(org, ia) {
		return apperr.ErrForbidden
	}

	n, err := p.impact.Delete(ctx, ia.ID)
	if err != nil {
		return apperr.Transient("delete impact analysis", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}

	p.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindImpactDeleted,
		ActorUserID:   principal.UserID,
		OpportunityID: ia.OpportunityID,
		SubjectID:     ia.ID,
	})
	return nil
}

// ListImpactAnalyses returns the principal organization's analyses, most
// recently updated first.
func (p *Pipeline) ListImpactAnalyses(ctx context.Context, principal models.Principal) ([]models.ImpactAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := p.resolver.ResolveOrganization(ctx, principal)
	if err != nil {
		return nil, err
	}
	return p.impact.ListByOrganization(ctx, org.ID)
}

// OrganizationImpact is the roll-up across all of one organization's
// opportunities. Volunteers are de-duplicated across the whole
// organization; hours are summed per opportunity, so a volunteer who
// completed several opportunities contributes each engagement's hours.
type OrganizationImpact struct {
	TotalHours            int
	TotalVolunteers       int
	Opportunities         int
	CompletedApplications int
}

// CalculateOrganizationImpact recomputes the organization-wide totals
// from current completed applications and their portfolios.
func (p *Pipeline) CalculateOrganizationImpact(ctx context.Context, principal models.Principal) (OrganizationImpact, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	org, err := p.resolver.ResolveOrganization(ctx, principal)
	if err != nil {
		return OrganizationImpact{}, err
	}

	opps, err := p.opportunities.ListByOrganization(ctx, org.ID)
	if err != nil {
		return OrganizationImpact{}, apperr.Transient("organization impact", err)
	}
	oppIDs := make([]primitive.ObjectID, 0, len(opps))
	for _, o := range opps {
		oppIDs = append(oppIDs, o.ID)
	}

	completed, err := p.applications.ListCompletedByOpportunities(ctx, oppIDs)
	if err != nil {
		return OrganizationImpact{}, apperr.Transient("organization impact", err)
	}

	sum, err := p.summarize(ctx, completed)
	if err != nil {
		return OrganizationImpact{}, err
	}
	return OrganizationImpact{
		TotalHours:            sum.TotalHours,
		TotalVolunteers:       sum.TotalVolunteers,
		Opportunities:         len(opps),
		CompletedApplications: len(completed),
	}, nil
}

// GetPortfolio returns one portfolio to its owning volunteer.
func (p *Pipeline) GetPortfolio(ctx context.Context, principal models.Principal, id primitive.ObjectID) (models.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	vol, err := p.resolver.ResolveVolunteer(ctx, principal)
	if err != nil {
		return models.Portfolio{}, err
	}
	pf, err := p.portfolios.GetByID(ctx, id)
	if err != nil {
		return models.Portfolio{}, mapNotFound(err)
	}
	if pf.VolunteerID != vol.ID {
		return models.Portfolio{}, apperr.ErrForbidden
	}
	return pf, nil
}

// GetImpactAnalysis returns one analysis to its owning organization.
func (p *Pipeline) GetImpactAnalysis(ctx context.Context, principal models.Principal, id primitive.ObjectID) (models.ImpactAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	org, err := p.resolver.ResolveOrganization(ctx, principal)
	if err != nil {
		return models.ImpactAnalysis{}, err
	}
	ia, err := p.impact.GetByID(ctx, id)
	if err != nil {
		return models.ImpactAnalysis{}, mapNotFound(err)
	}
	if !impactpolicy.CanManage(org, ia) {
		return models.ImpactAnalysis{}, apperr.ErrForbidden
	}
	return ia, nil
}

// ListMyPortfolios returns the principal volunteer's portfolio entries,
// newest first.
func (p *Pipeline) ListMyPortfolios(ctx context.Context, principal models.Principal) ([]models.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	vol, err := p.resolver.ResolveVolunteer(ctx, principal)
	if err != nil {
		return nil, err
	}
	return p.portfolios.ListByVolunteer(ctx, vol.ID)
}

// PortfolioStats returns the principal volunteer's activity count and
// total contributed hours.
func (p *Pipeline) PortfolioStats(ctx context.Context, principal models.Principal) (portfoliostore.VolunteerTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	vol, err := p.resolver.ResolveVolunteer(ctx, principal)
	if err != nil {
		return portfoliostore.VolunteerTotals{}, err
	}
	return p.portfolios.TotalsForVolunteer(ctx, vol.ID)
}

// ApplicationStatistics returns the principal volunteer's per-status
// application counts.
func (p *Pipeline) ApplicationStatistics(ctx context.Context, principal models.Principal) (applicationstore.Statistics, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	vol, err := p.resolver.ResolveVolunteer(ctx, principal)
	if err != nil {
		return applicationstore.Statistics{}, err
	}
	return p.applications.StatisticsFor(ctx, &vol.ID)
}
