package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/h2h-analyzer/internal/domain/report"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
	"github.com/riskibarqy/h2h-analyzer/internal/usecase"
)

// maxRequestBody bounds JSON request bodies; run requests are tiny.
const maxRequestBody = 1 << 16

type Handler struct {
	pairService     *usecase.HeadToHeadService
	analysisService *usecase.DailyAnalysisService
	location        *time.Location
	logger          *logging.Logger
	validator       *validator.Validate
}

// NewHandler builds the API handler. Dates in requests are interpreted in
// location, which defaults to time.Local.
func NewHandler(
	pairService *usecase.HeadToHeadService,
	analysisService *usecase.DailyAnalysisService,
	location *time.Location,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.Local
	}

	return &Handler{
		pairService:     pairService,
		analysisService: analysisService,
		location:        location,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) parseDate(raw string) (time.Time, error) {
	date, err := time.ParseInLocation(report.DateLayout, raw, h.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must use %s: %v", usecase.ErrInvalidInput, report.DateLayout, err)
	}
	return date, nil
}
