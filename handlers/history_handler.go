package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lifecopilotAPI/internal/cycle"
	"lifecopilotAPI/middleware"
	"lifecopilotAPI/services"
)

type HistoryHandler struct {
	historyService *services.HistoryService
}

func NewHistoryHandler(historyService *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	cycles, err := h.historyService.GetUserHistory(ctx, clerkID)
	if err != nil {
		if errors.Is(err, cycle.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to load history")
		return
	}

	respondWithJSON(w, http.StatusOK, cycles)
}
