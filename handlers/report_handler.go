package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/report"
	"lifecopilotAPI/middleware"
	"lifecopilotAPI/services"

	"github.com/jackc/pgx/v5"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// GenerateReport is the manual trigger. Not-ready and requires-premium
// come back as 200s with success=false: they are normal outcomes the
// client renders, not faults.
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.reportService.GenerateReport(ctx, clerkID, report.TriggerManual)
	if err != nil {
		if errors.Is(err, cycle.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ReportHandler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	latest, err := h.reportService.GetLatestReport(ctx, clerkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "No weekly reports yet")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to load report")
		return
	}

	respondWithJSON(w, http.StatusOK, latest)
}

func (h *ReportHandler) GetAllReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	reports, err := h.reportService.GetAllReports(ctx, clerkID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to load reports")
		return
	}

	respondWithJSON(w, http.StatusOK, reports)
}
