package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/volunthub/internal/app/metrics"
	"github.com/dalemusser/volunthub/internal/app/store/applications"
	"github.com/dalemusser/volunthub/internal/app/store/events"
	"github.com/dalemusser/volunthub/internal/app/store/impact"
	"github.com/dalemusser/volunthub/internal/app/store/opportunities"
	"github.com/dalemusser/volunthub/internal/app/store/organizations"
	"github.com/dalemusser/volunthub/internal/app/store/portfolios"
	"github.com/dalemusser/volunthub/internal/app/store/volunteers"
	"github.com/dalemusser/volunthub/internal/app/system/authz"
	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"github.com/dalemusser/volunthub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newPipeline(t *testing.T, db *mongo.Database) (*metrics.Pipeline, *testutil.Fixtures) {
	t.Helper()

	resolver := authz.NewResolver(volunteerstore.New(db), organizationstore.New(db))
	pipeline := metrics.NewPipeline(
		resolver,
		opportunitystore.New(db),
		applicationstore.New(db),
		portfoliostore.New(db),
		impactstore.New(db),
		eventstore.New(db),
		zap.NewNop(),
	)
	return pipeline, testutil.NewFixtures(t, db)
}

func TestDerivePortfolio_EightHourWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, _ := fx.CreateOrganization(ctx, "Helpers Inc")
	vol, _ := fx.CreateVolunteer(ctx, "Ada Volunteer")
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC)
	opp := fx.CreateOpportunity(ctx, org.ID, "Beach Cleanup", start, end, 5)
	app := fx.CreateApplication(ctx, vol.ID, opp.ID, models.StatusCompleted)

	pf, err := pipeline.DerivePortfolio(ctx, app.ID, nil)
	if err != nil {
		t.Fatalf("DerivePortfolio failed: %v", err)
	}
	if pf.ContributionHours != 8 {
		t.Errorf("expected 8 contribution hours, got %d", pf.ContributionHours)
	}
	if pf.ActivityTitle != "Beach Cleanup" {
		t.Errorf("expected activity title snapshot, got %q", pf.ActivityTitle)
	}
	if pf.VolunteerID != vol.ID {
		t.Errorf("portfolio bound to wrong volunteer")
	}
}

func TestDerivePortfolio_TitleIsSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, _ := fx.CreateOrganization(ctx, "Helpers Inc")
	vol, _ := fx.CreateVolunteer(ctx, "Ada Volunteer")
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	opp := fx.CreateOpportunity(ctx, org.ID, "Original Title", start, start.Add(4*time.Hour), 5)
	app := fx.CreateApplication(ctx, vol.ID, opp.ID, models.StatusCompleted)

	pf, err := pipeline.DerivePortfolio(ctx, app.ID, nil)
	if err != nil {
		t.Fatalf("DerivePortfolio failed: %v", err)
	}

	if err := opportunitystore.New(db).Update(ctx, opp.ID, opportunitystore.Patch{Title: "Renamed"}); err != nil {
		t.Fatalf("title update failed: %v", err)
	}

	got, err := portfoliostore.New(db).GetByID(ctx, pf.ID)
	if err != nil {
		t.Fatalf("portfolio reload failed: %v", err)
	}
	if got.ActivityTitle != "Original Title" {
		t.Errorf("portfolio title changed retroactively: %q", got.ActivityTitle)
	}
}

func TestDerivePortfolio_NotCompletedIsInvalidState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, _ := fx.CreateOrganization(ctx, "Helpers Inc")
	vol, _ := fx.CreateVolunteer(ctx, "Ada Volunteer")
	start := time.Now().UTC().Add(24 * time.Hour)
	opp := fx.CreateOpportunity(ctx, org.ID, "Beach Cleanup", start, start.Add(8*time.Hour), 5)
	app := fx.CreateApplication(ctx, vol.ID, opp.ID, models.StatusAccepted)

	_, err := pipeline.DerivePortfolio(ctx, app.ID, nil)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
}

func TestDerivePortfolio_SecondDerivationIsConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, _ := fx.CreateOrganization(ctx, "Helpers Inc")
	vol, _ := fx.CreateVolunteer(ctx, "Ada Volunteer")
	start := time.Now().UTC().Add(-48 * time.Hour)
	opp := fx.CreateOpportunity(ctx, org.ID, "Beach Cleanup", start, start.Add(8*time.Hour), 5)
	app := fx.CreateApplication(ctx, vol.ID, opp.ID, models.StatusCompleted)

	if _, err := pipeline.DerivePortfolio(ctx, app.ID, nil); err != nil {
		t.Fatalf("first derivation failed: %v", err)
	}
	_, err := pipeline.DerivePortfolio(ctx, app.ID, nil)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict on second derivation, got %v", err)
	}
}

func TestComputeImpact_AggregatesCompletedWork(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, _ := fx.CreateOrganization(ctx, "Helpers Inc")
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	opp := fx.CreateOpportunity(ctx, org.ID, "Food Drive", start, start.Add(4*time.Hour), 10)

	for i := 0; i < 3; i++ {
		vol, _ := fx.CreateVolunteer(ctx, "Volunteer")
		app := fx.CreateApplication(ctx, vol.ID, opp.ID, models.StatusCompleted)
		if _, err := pipeline.DerivePortfolio(ctx, app.ID, nil); err != nil {
			t.Fatalf("derivation failed: %v", err)
		}
	}
	// A pending application contributes nothing.
	vol, _ := fx.CreateVolunteer(ctx, "Pending Volunteer")
	fx.CreateApplication(ctx, vol.ID, opp.ID, models.StatusPending)

	sum, err := pipeline.ComputeImpact(ctx, opp.ID)
	if err != nil {
		t.Fatalf("ComputeImpact failed: %v", err)
	}
	if sum.TotalVolunteers != 3 {
		t.Errorf("expected 3 volunteers, got %d", sum.TotalVolunteers)
	}
	if sum.TotalHours != 12 {
		t.Errorf("expected 12 total hours (3 x 4h), got %d", sum.TotalHours)
	}
}

func TestImpactAnalysis_CreateUpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, orgP := fx.CreateOrganization(ctx, "Helpers Inc")
	vol, _ := fx.CreateVolunteer(ctx, "Ada Volunteer")
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	opp := fx.CreateOpportunity(ctx, org.ID, "River Cleanup", start, start.Add(6*time.Hour), 10)
	app := fx.CreateApplication(ctx, vol.ID, opp.ID, models.StatusCompleted)
	if _, err := pipeline.DerivePortfolio(ctx, app.ID, nil); err != nil {
		t.Fatalf("derivation failed: %v", err)
	}

	ia, err := pipeline.CreateImpactAnalysis(ctx, orgP, opp.ID, metrics.ImpactInput{
		Beneficiaries: 120,
		RegionCovered: "Riverside District",
	})
	if err != nil {
		t.Fatalf("CreateImpactAnalysis failed: %v", err)
	}
	if ia.TotalHours != 6 || ia.TotalVolunteers != 1 {
		t.Errorf("seeded totals wrong: hours=%d volunteers=%d", ia.TotalHours, ia.TotalVolunteers)
	}

	// Only one analysis per opportunity.
	_, err = pipeline.CreateImpactAnalysis(ctx, orgP, opp.ID, metrics.ImpactInput{})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict on second analysis, got %v", err)
	}

	benef := 200
	updated, err := pipeline.UpdateImpactAnalysis(ctx, orgP, ia.ID, impactstore.Patch{Beneficiaries: &benef})
	if err != nil {
		t.Fatalf("UpdateImpactAnalysis failed: %v", err)
	}
	if updated.Beneficiaries != 200 {
		t.Errorf("expected beneficiaries 200, got %d", updated.Beneficiaries)
	}

	if err := pipeline.DeleteImpactAnalysis(ctx, orgP, ia.ID); err != nil {
		t.Fatalf("DeleteImpactAnalysis failed: %v", err)
	}
	list, err := pipeline.ListImpactAnalyses(ctx, orgP)
	if err != nil {
		t.Fatalf("ListImpactAnalyses failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no analyses after delete, got %d", len(list))
	}
}

func TestImpactAnalysis_OtherOrganizationIsForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, orgP := fx.CreateOrganization(ctx, "Helpers Inc")
	_, otherP := fx.CreateOrganization(ctx, "Other Org")
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	opp := fx.CreateOpportunity(ctx, org.ID, "River Cleanup", start, start.Add(6*time.Hour), 10)

	if _, err := pipeline.CreateImpactAnalysis(ctx, otherP, opp.ID, metrics.ImpactInput{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected Forbidden creating for another org's opportunity, got %v", err)
	}

	ia, err := pipeline.CreateImpactAnalysis(ctx, orgP, opp.ID, metrics.ImpactInput{})
	if err != nil {
		t.Fatalf("owner create failed: %v", err)
	}
	if _, err := pipeline.UpdateImpactAnalysis(ctx, otherP, ia.ID, impactstore.Patch{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected Forbidden on update, got %v", err)
	}
	if err := pipeline.DeleteImpactAnalysis(ctx, otherP, ia.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected Forbidden on delete, got %v", err)
	}
}

func TestCalculateOrganizationImpact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, orgP := fx.CreateOrganization(ctx, "Helpers Inc")
	start := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	oppA := fx.CreateOpportunity(ctx, org.ID, "Morning Shift", start, start.Add(3*time.Hour), 10)
	oppB := fx.CreateOpportunity(ctx, org.ID, "Evening Shift", start, start.Add(5*time.Hour), 10)

	// One volunteer completes both opportunities: de-duplicated in the
	// volunteer count, but each engagement's hours are counted.
	vol, _ := fx.CreateVolunteer(ctx, "Busy Volunteer")
	appA := fx.CreateApplication(ctx, vol.ID, oppA.ID, models.StatusCompleted)
	appB := fx.CreateApplication(ctx, vol.ID, oppB.ID, models.StatusCompleted)
	if _, err := pipeline.DerivePortfolio(ctx, appA.ID, nil); err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	if _, err := pipeline.DerivePortfolio(ctx, appB.ID, nil); err != nil {
		t.Fatalf("derivation failed: %v", err)
	}

	other, _ := fx.CreateVolunteer(ctx, "Other Volunteer")
	appC := fx.CreateApplication(ctx, other.ID, oppA.ID, models.StatusCompleted)
	if _, err := pipeline.DerivePortfolio(ctx, appC.ID, nil); err != nil {
		t.Fatalf("derivation failed: %v", err)
	}

	impact, err := pipeline.CalculateOrganizationImpact(ctx, orgP)
	if err != nil {
		t.Fatalf("CalculateOrganizationImpact failed: %v", err)
	}
	if impact.TotalVolunteers != 2 {
		t.Errorf("expected 2 distinct volunteers, got %d", impact.TotalVolunteers)
	}
	if impact.TotalHours != 11 {
		t.Errorf("expected 11 total hours (3+5+3), got %d", impact.TotalHours)
	}
	if impact.Opportunities != 2 {
		t.Errorf("expected 2 opportunities, got %d", impact.Opportunities)
	}
}

func TestPortfolioStatsAndApplicationStatistics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pipeline, fx := newPipeline(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org, _ := fx.CreateOrganization(ctx, "Helpers Inc")
	vol, volP := fx.CreateVolunteer(ctx, "Ada Volunteer")
	start := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	oppA := fx.CreateOpportunity(ctx, org.ID, "Shift A", start, start.Add(2*time.Hour), 10)
	oppB := fx.CreateOpportunity(ctx, org.ID, "Shift B", start, start.Add(3*time.Hour), 10)
	oppC := fx.CreateOpportunity(ctx, org.ID, "Shift C", start, start.Add(4*time.Hour), 10)

	appA := fx.CreateApplication(ctx, vol.ID, oppA.ID, models.StatusCompleted)
	appB := fx.CreateApplication(ctx, vol.ID, oppB.ID, models.StatusCompleted)
	fx.CreateApplication(ctx, vol.ID, oppC.ID, models.StatusPending)
	if _, err := pipeline.DerivePortfolio(ctx, appA.ID, nil); err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	if _, err := pipeline.DerivePortfolio(ctx, appB.ID, nil); err != nil {
		t.Fatalf("derivation failed: %v", err)
	}

	totals, err := pipeline.PortfolioStats(ctx, volP)
	if err != nil {
		t.Fatalf("PortfolioStats failed: %v", err)
	}
	if totals.Activities != 2 || totals.TotalHours != 5 {
		t.Errorf("expected 2 activities / 5 hours, got %d / %d", totals.Activities, totals.TotalHours)
	}

	stats, err := pipeline.ApplicationStatistics(ctx, volP)
	if err != nil {
		t.Fatalf("ApplicationStatistics failed: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 2 || stats.Pending != 1 {
		t.Errorf("unexpected statistics: %+v", stats)
	}
}
