package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/service"
)

type ReportHandler struct {
	reports *service.ReportService
	logger  zerolog.Logger
}

func NewReportHandler(reports *service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger.With().Str("handler", "report").Logger(),
	}
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Report(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
