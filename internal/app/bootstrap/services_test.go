package bootstrap_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/volunthub/internal/app/bootstrap"
	"github.com/dalemusser/volunthub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func TestBuildHandler_WiresServicesAndHealth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := bootstrap.DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	var got *bootstrap.Services
	bootstrap.OnServices = func(s *bootstrap.Services) { got = s }
	defer func() { bootstrap.OnServices = nil }()

	h, err := bootstrap.BuildHandler(&config.CoreConfig{}, bootstrap.AppConfig{}, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	if got == nil {
		t.Fatal("expected OnServices to receive the wired graph")
	}
	if got.Engine == nil || got.Pipeline == nil || got.Resolver == nil || got.Applications == nil {
		t.Errorf("incomplete service graph: %+v", got)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("health returned %d", rr.Code)
	}
}
