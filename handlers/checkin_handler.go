package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/middleware"
	"cruxPassAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type CheckinProvider interface {
	Get(ctx context.Context, clerkID string, checkinID uuid.UUID) (*services.CheckinView, error)
	Cancel(ctx context.Context, clerkID string, checkinID uuid.UUID) (*services.CheckinView, error)
	Confirm(ctx context.Context, clerkID string, checkinID uuid.UUID, req *services.ConfirmRequest) (*services.CheckinView, error)
}

type CheckinHandler struct {
	checkins CheckinProvider
}

func NewCheckinHandler(checkins CheckinProvider) *CheckinHandler {
	return &CheckinHandler{checkins: checkins}
}

// GetCheckin is polled by the visitor's screen while the front desk decides.
func (h *CheckinHandler) GetCheckin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, apierror.AuthRequired())
		return
	}

	checkinID, err := uuid.Parse(mux.Vars(r)["checkinId"])
	if err != nil {
		respondWithError(w, apierror.Validation("Invalid check-in id"))
		return
	}

	view, err := h.checkins.Get(ctx, clerkID, checkinID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *CheckinHandler) CancelCheckin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, apierror.AuthRequired())
		return
	}

	checkinID, err := uuid.Parse(mux.Vars(r)["checkinId"])
	if err != nil {
		respondWithError(w, apierror.Validation("Invalid check-in id"))
		return
	}

	if _, err := h.checkins.Cancel(ctx, clerkID, checkinID); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ConfirmCheckin is the staff decision endpoint.
func (h *CheckinHandler) ConfirmCheckin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, apierror.AuthRequired())
		return
	}

	checkinID, err := uuid.Parse(mux.Vars(r)["checkinId"])
	if err != nil {
		respondWithError(w, apierror.Validation("Invalid check-in id"))
		return
	}

	var req services.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, apierror.Validation("Invalid request body"))
		return
	}

	view, err := h.checkins.Confirm(ctx, clerkID, checkinID, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  view.Status,
	})
}
