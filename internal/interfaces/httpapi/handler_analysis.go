package httpapi

import (
	"net/http"
	"strings"
)

type runAnalysisRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// RunAnalysis runs the daily analysis synchronously and returns the report.
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAnalysis")
	defer span.End()

	var req runAnalysisRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(w, err)
		return
	}

	date, err := h.parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.analysisService.Run(ctx, date)
	if err != nil {
		h.logger.ErrorContext(ctx, "analysis run failed", "date", req.Date, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, reportToDTO(rep))
}

// GetReport returns a stored report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetReport")
	defer span.End()

	raw := r.PathValue("date")
	date, err := h.parseDate(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.analysisService.GetReport(ctx, date)
	if err != nil {
		h.logger.WarnContext(ctx, "get report failed", "date", raw, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, reportToDTO(rep))
}
