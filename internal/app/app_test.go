package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/h2h-analyzer/external/apifootball"
	"github.com/riskibarqy/h2h-analyzer/external/footballdata"
	"github.com/riskibarqy/h2h-analyzer/internal/config"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppEnv:                           config.EnvDev,
		ServiceName:                      "h2h-analyzer",
		HTTPAddr:                         ":0",
		CORSAllowedOrigins:               []string{"*"},
		APIFootballKey:                   "test-key",
		APIFootballBaseURL:               "http://127.0.0.1:1",
		APIFootballTimeout:               time.Second,
		APIFootballCircuitEnabled:        true,
		APIFootballCircuitFailureCount:   5,
		APIFootballCircuitOpenTimeout:    time.Second,
		APIFootballCircuitHalfOpenMaxReq: 1,
		FormMatches:                      5,
		AnalysisWorkers:                  1,
		AnalysisLocation:                 time.UTC,
		ResultsPath:                      filepath.Join(t.TempDir(), "h2h_results.txt"),
		CacheEnabled:                     true,
		CacheTTL:                         time.Minute,
	}
}

func TestBuildServices_MemoryBackend(t *testing.T) {
	cfg := testConfig(t)

	services, err := BuildServices(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	t.Cleanup(func() { _ = services.Close() })

	if services.HeadToHead == nil || services.Analysis == nil {
		t.Fatalf("expected services to be wired: %+v", services)
	}
	if services.ResultFile.Path() != cfg.ResultsPath {
		t.Fatalf("unexpected results path: %s", services.ResultFile.Path())
	}
}

func TestNewHTTPServer_ServesHealthz(t *testing.T) {
	cfg := testConfig(t)

	services, err := BuildServices(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	srv, err := NewHTTPServer(cfg, services, logging.NewNop())
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTPAddr = " "

	if _, err := NewHTTPServer(cfg, &Services{}, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestNewProvider_SelectsByConfiguredKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheEnabled = false

	if _, ok := newProvider(cfg, logging.NewNop()).(*apifootball.Client); !ok {
		t.Fatalf("expected api-football client when API_FOOTBALL_KEY is set")
	}

	cfg.FootballDataKey = "fd-key"
	if _, ok := newProvider(cfg, logging.NewNop()).(*apifootball.Client); !ok {
		t.Fatalf("expected api-football to win when both keys are set")
	}

	cfg.APIFootballKey = ""
	if _, ok := newProvider(cfg, logging.NewNop()).(*footballdata.Client); !ok {
		t.Fatalf("expected football-data client when only FOOTBALL_DATA_KEY is set")
	}
}
