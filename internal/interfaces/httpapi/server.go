package httpapi

import (
	"net/http"

	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger, corsAllowedOrigins []string) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/h2h", handler.GetHeadToHead)
	mux.HandleFunc("POST /v1/analysis/runs", handler.RunAnalysis)
	mux.HandleFunc("GET /v1/analysis/reports/{date}", handler.GetReport)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}
