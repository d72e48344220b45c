package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/h2h-analyzer/internal/config"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "h2h-analyzer",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestSetup_AllDisabled(t *testing.T) {
	cfg := config.Config{ServiceName: "h2h-analyzer", AppEnv: config.EnvDev}

	telemetry, err := Setup(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("setup telemetry: %v", err)
	}
	if telemetry.pprofServer != nil {
		t.Fatalf("expected no pprof server when disabled")
	}
	if err := telemetry.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown telemetry: %v", err)
	}
}

func TestTelemetry_NilShutdown(t *testing.T) {
	var telemetry *Telemetry
	if err := telemetry.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil telemetry to shut down cleanly, got %v", err)
	}
}

func TestPprofMux_ServesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from pprof index, got %d", rec.Code)
	}
}
