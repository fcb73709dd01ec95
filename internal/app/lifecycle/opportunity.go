// internal/app/lifecycle/opportunity.go
package lifecycle

import (
	"context"
	"time"

	"github.com/dalemusser/volunthub/internal/app/policy/opportunitypolicy"
	"github.com/dalemusser/volunthub/internal/app/store/events"
	"github.com/dalemusser/volunthub/internal/app/store/opportunities"
	"github.com/dalemusser/volunthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunthub/internal/app/system/timeouts"
	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OpportunityInput carries the caller-settable fields for creating an
// opportunity.
type OpportunityInput struct {
	Title          string
	Description    string
	Location       string
	Category       string
	StartDate      time.Time
	EndDate        time.Time
	Capacity       int
	RequiredSkills []string
}

// CreateOpportunity creates an opportunity owned by the principal's
// organization.
func (e *Engine) CreateOpportunity(ctx context.Context, p models.Principal, in OpportunityInput) (models.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := e.resolver.ResolveOrganization(ctx, p)
	if err != nil {
		return models.Opportunity{}, err
	}

	opp, err := e.opportunities.Create(ctx, models.Opportunity{
		OrganizationID: org.ID,
		Title:          htmlsanitize.Plain(in.Title),
		Description:    htmlsanitize.Sanitize(in.Description),
		Location:       in.Location,
		Category:       in.Category,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Capacity:       in.Capacity,
		RequiredSkills: in.RequiredSkills,
	})
	if err != nil {
		return models.Opportunity{}, err
	}

	e.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindOpportunityCreated,
		ActorUserID:   p.UserID,
		OpportunityID: opp.ID,
	})
	e.log.Info("opportunity created",
		zap.String("opportunity_id", opp.ID.Hex()),
		zap.String("organization_id", org.ID.Hex()))
	return opp, nil
}

// UpdateOpportunity applies a partial update to an opportunity the
// principal's organization owns. The resulting window must still satisfy
// start < end, and an opportunity whose end date has passed can no longer
// be edited.
func (e *Engine) UpdateOpportunity(ctx context.Context, p models.Principal, id primitive.ObjectID, patch opportunitystore.Patch) (models.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := e.resolver.ResolveOrganization(ctx, p)
	if err != nil {
		return models.Opportunity{}, err
	}

	opp, err := e.opportunities.GetByID(ctx, id)
	if err != nil {
		return models.Opportunity{}, mapNotFound(err)
	}
	if !opportunitypolicy.CanManage(org, opp) {
		return models.Opportunity{}, apperr.ErrForbidden
	}
	if opp.Expired(time.Now().UTC()) {
		return models.Opportunity{}, apperr.ErrExpired
	}

	start, end := opp.StartDate, opp.EndDate
	if patch.StartDate != nil {
		start = *patch.StartDate
	}
	if patch.EndDate != nil {
		end = *patch.EndDate
	}
	if !start.Before(end) {
		return models.Opportunity{}, apperr.ErrInvalidState
	}

	if patch.Title != "" {
		patch.Title = htmlsanitize.Plain(patch.Title)
	}
	if patch.Description != "" {
		patch.Description = htmlsanitize.Sanitize(patch.Description)
	}

	if err := e.opportunities.Update(ctx, opp.ID, patch); err != nil {
		return models.Opportunity{}, apperr.Transient("update opportunity", err)
	}
	updated, err := e.opportunities.GetByID(ctx, opp.ID)
	if err != nil {
		return models.Opportunity{}, mapNotFound(err)
	}

	e.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindOpportunityUpdated,
		ActorUserID:   p.UserID,
		OpportunityID: opp.ID,
	})
	return updated, nil
}

// DeleteOpportunity removes an opportunity the principal's organization
// owns. Deletion is refused with a Conflict while any PENDING, ACCEPTED,
// or COMPLETED applications reference it; only fully rejected (or absent)
// dependents permit removal.
func (e *Engine) DeleteOpportunity(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := e.resolver.ResolveOrganization(ctx, p)
	if err != nil {
		return err
	}

	opp, err := e.opportunities.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if !opportunitypolicy.CanManage(org, opp) {
		return apperr.ErrForbidden
	}

	blocking, err := e.applications.CountBlockingDeletion(ctx, opp.ID)
	if err != nil {
		return apperr.Transient("delete opportunity", err)
	}
	if blocking > 0 {
		return apperr.ErrHasDependents
	}

	n, err := e.opportunities.Delete(ctx, opp.ID)
	if err != nil {
		return apperr.Transient("delete opportunity", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}

	e.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindOpportunityDeleted,
		ActorUserID:   p.UserID,
		OpportunityID: opp.ID,
	})
	e.log.Info("opportunity deleted",
		zap.String("opportunity_id", opp.ID.Hex()),
		zap.String("organization_id", org.ID.Hex()))
	return nil
}

// GetOpportunity returns one opportunity. Opportunities are public
// listings; no principal is required to read one.
func (e *Engine) GetOpportunity(ctx context.Context, id primitive.ObjectID) (models.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	opp, err := e.opportunities.GetByID(ctx, id)
	if err != nil {
		return models.Opportunity{}, mapNotFound(err)
	}
	return opp, nil
}

// ListMyOpportunities returns the principal organization's opportunities,
// newest first.
func (e *Engine) ListMyOpportunities(ctx context.Context, p models.Principal) ([]models.Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := e.resolver.ResolveOrganization(ctx, p)
	if err != nil {
		return nil, err
	}
	return e.opportunities.ListByOrganization(ctx, org.ID)
}

// AcceptedCount exposes the capacity ledger read.
func (e *Engine) AcceptedCount(ctx context.Context, opportunityID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	return e.applications.AcceptedCount(ctx, opportunityID)
}
