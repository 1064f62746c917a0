package handlers

import (
	"context"
	"net/http"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/middleware"
	"cruxPassAPI/services"

	"github.com/google/uuid"
)

type SubscriptionSummarizer interface {
	Current(ctx context.Context, userID uuid.UUID) (*services.Summary, error)
}

type SubscriptionHandler struct {
	subscriptions SubscriptionSummarizer
	profiles      ProfileEnsurer
}

func NewSubscriptionHandler(subscriptions SubscriptionSummarizer, profiles ProfileEnsurer) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		profiles:      profiles,
	}
}

func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, apierror.AuthRequired())
		return
	}

	p, err := h.profiles.Ensure(ctx, clerkID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	summary, err := h.subscriptions.Current(ctx, p.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
