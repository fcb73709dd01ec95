// internal/app/lifecycle/application.go
package lifecycle

import (
	"context"
	"time"

	"github.com/dalemusser/volunthub/internal/app/policy/applicationpolicy"
	"github.com/dalemusser/volunthub/internal/app/store/applications"
	"github.com/dalemusser/volunthub/internal/app/store/events"
	"github.com/dalemusser/volunthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunthub/internal/app/system/timeouts"
	"github.com/dalemusser/volunthub/internal/app/system/txn"
	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TransitionExtra is the optional free-text payload a transition may
// carry. It is persisted only on transitions to ACCEPTED or COMPLETED.
type TransitionExtra struct {
	Position    string
	Description string
}

// Apply creates a PENDING application by the principal's volunteer for the
// opportunity. Admission is refused when the opportunity has ended or is
// already at capacity; the unique (volunteer, opportunity) index turns a
// concurrent double-submission into a Conflict.
func (e *Engine) Apply(ctx context.Context, p models.Principal, opportunityID primitive.ObjectID) (models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	vol, err := e.resolver.ResolveVolunteer(ctx, p)
	if err != nil {
		return models.Application{}, err
	}

	opp, err := e.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return models.Application{}, mapNotFound(err)
	}
	if opp.Expired(time.Now().UTC()) {
		return models.Application{}, apperr.ErrExpired
	}

	accepted, err := e.applications.AcceptedCount(ctx, opp.ID)
	if err != nil {
		return models.Application{}, apperr.Transient("apply", err)
	}
	if accepted >= int64(opp.Capacity) {
		return models.Application{}, apperr.ErrCapacityExceeded
	}

	app, err := e.applications.Create(ctx, vol.ID, opp.ID)
	if err != nil {
		return models.Application{}, err
	}

	e.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindApplicationCreated,
		ActorUserID:   p.UserID,
		ApplicationID: app.ID,
		OpportunityID: opp.ID,
	})
	e.log.Info("application created",
		zap.String("application_id", app.ID.Hex()),
		zap.String("opportunity_id", opp.ID.Hex()),
		zap.String("volunteer_id", vol.ID.Hex()))
	return app, nil
}

// Transition moves an application to target on behalf of the organization
// owning its opportunity. Transitions to ACCEPTED re-check capacity and
// commit the check and the status write as one atomic unit; the first
// accept to observe free capacity wins, a concurrent one fails with
// CapacityExceeded and never rolls back the winner.
func (e *Engine) Transition(ctx context.Context, p models.Principal, applicationID primitive.ObjectID, target models.ApplicationStatus, extra *TransitionExtra) (models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := e.resolver.ResolveOrganization(ctx, p)
	if err != nil {
		return models.Application{}, err
	}
	if !target.Valid() {
		return models.Application{}, apperr.ErrInvalidTransition
	}

	app, err := e.applications.GetByID(ctx, applicationID)
	if err != nil {
		return models.Application{}, mapNotFound(err)
	}
	opp, err := e.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return models.Application{}, mapNotFound(err)
	}
	if !applicationpolicy.CanTransition(org, opp) {
		return models.Application{}, apperr.ErrForbidden
	}
	if !app.Status.CanTransitionTo(target) {
		return models.Application{}, apperr.ErrInvalidTransition
	}

	var storeExtra *applicationstore.Extra
	if extra != nil && (target == models.StatusAccepted || target == models.StatusCompleted) {
		storeExtra = &applicationstore.Extra{
			Position:    htmlsanitize.Plain(extra.Position),
			Description: htmlsanitize.Sanitize(extra.Description),
		}
	}

	var updated models.Application
	if target == models.StatusAccepted {
		updated, err = e.accept(ctx, app, opp, storeExtra)
	} else {
		updated, err = e.applications.UpdateStatus(ctx, app.ID, app.Status, target, storeExtra)
		if err != nil {
			err = mapLostRace(err)
		}
	}
	if err != nil {
		return models.Application{}, err
	}

	e.events.Record(ctx, eventstore.Event{
		Kind:          transitionEventKind(target),
		ActorUserID:   p.UserID,
		ApplicationID: app.ID,
		OpportunityID: opp.ID,
	})
	e.log.Info("application transitioned",
		zap.String("application_id", app.ID.Hex()),
		zap.String("from", string(app.Status)),
		zap.String("to", string(target)))

	// Completion triggers portfolio derivation. The transition is already
	// committed; a derivation failure is surfaced in the logs and can be
	// retried through the pipeline without re-running the transition.
	if target == models.StatusCompleted && e.deriver != nil {
		if _, derr := e.deriver.DerivePortfolio(ctx, app.ID, nil); derr != nil {
			e.log.Warn("portfolio derivation failed",
				zap.String("application_id", app.ID.Hex()),
				zap.Error(derr))
		}
	}
	return updated, nil
}

// accept performs the capacity check and the status write as one unit.
// The per-opportunity lock is held unconditionally: snapshot-isolated
// transactions abort only on write-write conflicts, so two accepts of
// different applications would both read a stale count and both commit.
// Inside the lock a majority-concern transaction (when the deployment
// supports one) keeps the count and the write on one snapshot.
func (e *Engine) accept(ctx context.Context, app models.Application, opp models.Opportunity, extra *applicationstore.Extra) (models.Application, error) {
	key := opp.ID.Hex()
	e.acceptLocks.Lock(key)
	defer e.acceptLocks.Unlock(key)

	res, err := txn.WithTransaction(ctx, e.client, func(sc mongo.SessionContext) (interface{}, error) {
		return e.checkAndAccept(sc, app, opp, extra)
	})
	if err == nil {
		return res.(models.Application), nil
	}
	if !txn.IsNotSupported(err) {
		return models.Application{}, err
	}

	e.log.Debug("transactions unavailable, accepting outside a session",
		zap.String("opportunity_id", opp.ID.Hex()))
	return e.checkAndAccept(ctx, app, opp, extra)
}

func (e *Engine) checkAndAccept(ctx context.Context, app models.Application, opp models.Opportunity, extra *applicationstore.Extra) (models.Application, error) {
	accepted, err := e.applications.AcceptedCount(ctx, opp.ID)
	if err != nil {
		return models.Application{}, apperr.Transient("accept", err)
	}
	if accepted >= int64(opp.Capacity) {
		return models.Application{}, apperr.ErrCapacityExceeded
	}
	updated, err := e.applications.UpdateStatus(ctx, app.ID, app.Status, models.StatusAccepted, extra)
	if err != nil {
		return models.Application{}, mapLostRace(err)
	}
	return updated, nil
}

// Withdraw deletes the principal's own application while it is still
// PENDING or REJECTED. Accepted and completed applications are engaged
// commitments and cannot be withdrawn. Returns a snapshot of the removed
// application.
func (e *Engine) Withdraw(ctx context.Context, p models.Principal, applicationID primitive.ObjectID) (models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	vol, err := e.resolver.ResolveVolunteer(ctx, p)
	if err != nil {
		return models.Application{}, err
	}

	app, err := e.applications.GetByID(ctx, applicationID)
	if err != nil {
		return models.Application{}, mapNotFound(err)
	}
	if !applicationpolicy.CanWithdraw(vol, app) {
		return models.Application{}, apperr.ErrForbidden
	}
	if app.Status == models.StatusAccepted || app.Status == models.StatusCompleted {
		return models.Application{}, apperr.ErrInvalidState
	}

	if err := e.applications.Delete(ctx, app.ID); err != nil {
		return models.Application{}, apperr.Transient("withdraw", err)
	}

	e.events.Record(ctx, eventstore.Event{
		Kind:          eventstore.KindApplicationWithdrawn,
		ActorUserID:   p.UserID,
		ApplicationID: app.ID,
		OpportunityID: app.OpportunityID,
	})
	e.log.Info("application withdrawn",
		zap.String("application_id", app.ID.Hex()),
		zap.String("volunteer_id", vol.ID.Hex()))
	return app, nil
}

// GetApplication returns one application to a party of it: the applicant
// volunteer or the counterparty organization.
func (e *Engine) GetApplication(ctx context.Context, p models.Principal, applicationID primitive.ObjectID) (models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	if p.IsZero() {
		return models.Application{}, apperr.ErrUnauthenticated
	}

	app, err := e.applications.GetByID(ctx, applicationID)
	if err != nil {
		return models.Application{}, mapNotFound(err)
	}
	opp, err := e.opportunities.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return models.Application{}, mapNotFound(err)
	}

	var vol *models.VolunteerProfile
	var org *models.OrganizationProfile
	switch p.Role {
	case models.RoleVolunteer:
		v, err := e.resolver.ResolveVolunteer(ctx, p)
		if err != nil {
			return models.Application{}, err
		}
		vol = &v
	case models.RoleOrganization:
		o, err := e.resolver.ResolveOrganization(ctx, p)
		if err != nil {
			return models.Application{}, err
		}
		org = &o
	default:
		return models.Application{}, apperr.ErrForbidden
	}

	if !applicationpolicy.CanView(app, opp, vol, org) {
		return models.Application{}, apperr.ErrForbidden
	}
	return app, nil
}

// ListMyApplications returns the principal volunteer's applications,
// newest first.
func (e *Engine) ListMyApplications(ctx context.Context, p models.Principal) ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	vol, err := e.resolver.ResolveVolunteer(ctx, p)
	if err != nil {
		return nil, err
	}
	return e.applications.ListByVolunteer(ctx, vol.ID)
}

// ListMyApplicationsByStatus narrows ListMyApplications to one status.
func (e *Engine) ListMyApplicationsByStatus(ctx context.Context, p models.Principal, status models.ApplicationStatus) ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	if !status.Valid() {
		return nil, apperr.ErrInvalidState
	}
	vol, err := e.resolver.ResolveVolunteer(ctx, p)
	if err != nil {
		return nil, err
	}
	return e.applications.ListByVolunteerAndStatus(ctx, vol.ID, status)
}

// ListApplicationsForOpportunity returns an opportunity's applications to
// its owning organization, newest first.
func (e *Engine) ListApplicationsForOpportunity(ctx context.Context, p models.Principal, opportunityID primitive.ObjectID) ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	org, err := e.resolver.ResolveOrganization(ctx, p)
	if err != nil {
		return nil, err
	}
	opp, err := e.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !applicationpolicy.CanTransition(org, opp) {
		return nil, apperr.ErrForbidden
	}
	return e.applications.ListByOpportunity(ctx, opp.ID)
}

func transitionEventKind(target models.ApplicationStatus) string {
	switch target {
	case models.StatusAccepted:
		return eventstore.KindApplicationAccepted
	case models.StatusRejected:
		return eventstore.KindApplicationRejected
	case models.StatusCompleted:
		return eventstore.KindApplicationCompleted
	}
	return "application_transitioned"
}
