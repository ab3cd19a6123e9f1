package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/internal/dailylog"
	"lifecopilotAPI/middleware"
	"lifecopilotAPI/services"

	"github.com/gorilla/mux"
)

type LogHandler struct {
	logService *services.LogService
}

func NewLogHandler(logService *services.LogService) *LogHandler {
	return &LogHandler{
		logService: logService,
	}
}

// CreateLog records a new intention. When this is the 7th log of the
// cycle the response also carries the report outcome, so the generation
// timeout is wider than the usual 5 seconds.
func (h *LogHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req dailylog.CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.logService.CreateLog(ctx, clerkID, &req)
	if err != nil {
		switch {
		case errors.Is(err, cycle.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, cycle.ErrCycleFull):
			respondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, dailylog.ErrDuplicateDate):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *LogHandler) CompleteLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	logID := mux.Vars(r)["logId"]
	if logID == "" {
		respondWithError(w, http.StatusBadRequest, "logId is required")
		return
	}

	var req dailylog.CompleteLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.logService.CompleteLog(ctx, clerkID, logID, &req)
	if err != nil {
		if err.Error() == "log not found" {
			respondWithError(w, http.StatusNotFound, "Log not found")
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *LogHandler) GetCurrentCycle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	status, err := h.logService.GetCurrentCycle(ctx, clerkID)
	if err != nil {
		if errors.Is(err, cycle.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to load current cycle")
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}
