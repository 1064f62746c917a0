package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/types/profile"
	"cruxPassAPI/middleware"
)

// ProfileProvider is the profile surface the handler needs: resolve,
// update, and avatar URL derivation.
type ProfileProvider interface {
	ProfileEnsurer
	Update(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error)
	PhotoURL(p *profile.Profile) *string
}

type ProfileHandler struct {
	profiles ProfileProvider
}

func NewProfileHandler(profiles ProfileProvider) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
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

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"profile":     p,
		"photo_url":   h.profiles.PhotoURL(p),
		"is_complete": p.IsComplete(),
	})
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, apierror.AuthRequired())
		return
	}

	var req profile.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, apierror.Validation("Invalid request body"))
		return
	}

	p, err := h.profiles.Update(ctx, clerkID, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"profile":     p,
		"photo_url":   h.profiles.PhotoURL(p),
		"is_complete": p.IsComplete(),
	})
}
