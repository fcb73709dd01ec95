// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail
fast.

The unique indexes here carry invariants, not just query speed:
  - applications (volunteer_id, opportunity_id): one application per pair,
    making apply an atomic check-and-insert under concurrent submission
  - portfolios (volunteer_id, application_id): one portfolio per completed
    activity, making derivation atomic
  - impact_analyses (organization_id, opportunity_id): one analysis per
    opportunity per organization
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureVolunteerProfiles(ctx, db); err != nil {
		problems = append(problems, "volunteer_profiles: "+err.Error())
	}
	if err := ensureOrganizationProfiles(ctx, db); err != nil {
		problems = append(problems, "organization_profiles: "+err.Error())
	}
	if err := ensureOpportunities(ctx, db); err != nil {
		problems = append(problems, "opportunities: "+err.Error())
	}
	if err := ensureApplications(ctx, db); err != nil {
		problems = append(problems, "applications: "+err.Error())
	}
	if err := ensurePortfolios(ctx, db); err != nil {
		problems = append(problems, "portfolios: "+err.Error())
	}
	if err := ensureImpactAnalyses(ctx, db); err != nil {
		problems = append(problems, "impact_analyses: "+err.Error())
	}
	if err := ensureLifecycleEvents(ctx, db); err != nil {
		problems = append(problems, "lifecycle_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// ensureIndexSet reconciles the desired indexes for one collection:
// reuse an existing index with the same keys and options, drop and
// recreate on an options mismatch (e.g. upgrading to unique), create
// when absent.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
	}

	var errs []string
	for _, m := range desired {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Options mismatch: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureVolunteerProfiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("volunteer_profiles"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_volunteer_profiles_user"),
		},
	})
}

func ensureOrganizationProfiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organization_profiles"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_organization_profiles_user"),
		},
	})
}

func ensureOpportunities(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("opportunities"), []mongo.IndexModel{
		// Organization listings, newest first.
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_opportunities_org_createdat"),
		},
	})
}

func ensureApplications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("applications"), []mongo.IndexModel{
		// One application per (volunteer, opportunity).
		{
			Keys: bson.D{
				{Key: "volunteer_id", Value: 1},
				{Key: "opportunity_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_applications_volunteer_opportunity"),
		},
		// Capacity ledger: count ACCEPTED rows per opportunity.
		{
			Keys: bson.D{
				{Key: "opportunity_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_applications_opportunity_status"),
		},
		// Volunteer history, newest first.
		{
			Keys: bson.D{
				{Key: "volunteer_id", Value: 1},
				{Key: "apply_date", Value: -1},
			},
			Options: options.Index().SetName("idx_applications_volunteer_applydate"),
		},
	})
}

func ensurePortfolios(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("portfolios"), []mongo.IndexModel{
		// One portfolio per completed activity.
		{
			Keys: bson.D{
				{Key: "volunteer_id", Value: 1},
				{Key: "application_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_portfolios_volunteer_application"),
		},
		{
			Keys: bson.D{
				{Key: "volunteer_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_portfolios_volunteer_createdat"),
		},
	})
}

func ensureImpactAnalyses(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("impact_analyses"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "opportunity_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_impact_org_opportunity"),
		},
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "last_updated", Value: -1},
			},
			Options: options.Index().SetName("idx_impact_org_lastupdated"),
		},
	})
}

func ensureLifecycleEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("lifecycle_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_lifecycle_events_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "application_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_lifecycle_events_application_timestamp"),
		},
	})
}
