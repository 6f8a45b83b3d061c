package handler

import (
	"net/http"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// ReportHandler serves revenue and cost rollups
type ReportHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// DailyRollup godoc
// @Summary Daily revenue and cost rollup
// @Description One row per day over the range: labor and parts revenue as worked, COGS from issue ledger rows, invoiced and paid totals.
// @Tags Reports
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD), defaults to today"
// @Param to query string false "End date (YYYY-MM-DD), defaults to from"
// @Success 200 {object} domain.DailyRollupResponse
// @Router /reports/daily [get]
func (h *ReportHandler) DailyRollup(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := now
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
		to = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	resp, err := h.reports.DailyRollup(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to build daily rollup", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
