package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/types/gym"
	"cruxPassAPI/internal/types/profile"
	"cruxPassAPI/middleware"
	"cruxPassAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// GymProvider is the slice of the gym service the handler needs. Tests plug
// in a fake.
type GymProvider interface {
	ListNearby(ctx context.Context, lat, lng, radiusKm float64) ([]gym.NearbyGym, error)
	ListByCity(ctx context.Context, city string) ([]gym.NearbyGym, error)
	ListDefault(ctx context.Context) ([]gym.NearbyGym, error)
	Detail(ctx context.Context, id uuid.UUID, isSubscriber bool) (*services.GymDetail, error)
}

type SubscriberChecker interface {
	IsActiveSubscriber(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
}

// ProfileEnsurer resolves an authenticated Clerk identity to the local
// profile row, creating it on first sight.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, clerkID string) (*profile.Profile, error)
}

type GymHandler struct {
	gyms     GymProvider
	subs     SubscriberChecker
	profiles ProfileEnsurer
}

func NewGymHandler(gyms GymProvider, subs SubscriberChecker, profiles ProfileEnsurer) *GymHandler {
	return &GymHandler{
		gyms:     gyms,
		subs:     subs,
		profiles: profiles,
	}
}

// ListGyms serves discovery. Coordinates take precedence over city; with
// neither, a recent default list comes back so the screen is never blank.
func (h *GymHandler) ListGyms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")

	var gyms []gym.NearbyGym
	var err error
	switch {
	case latStr != "" || lngStr != "":
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			respondWithError(w, apierror.Validation("lat and lng must both be valid numbers"))
			return
		}
		radiusKm := 50.0
		if radiusStr := q.Get("radius_km"); radiusStr != "" {
			radiusKm, err = strconv.ParseFloat(radiusStr, 64)
			if err != nil || radiusKm <= 0 {
				respondWithError(w, apierror.Validation("radius_km must be a positive number"))
				return
			}
		}
		gyms, err = h.gyms.ListNearby(ctx, lat, lng, radiusKm)
	case q.Get("city") != "":
		gyms, err = h.gyms.ListByCity(ctx, q.Get("city"))
	default:
		gyms, err = h.gyms.ListDefault(ctx)
	}
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"gyms": gyms})
}

// GetGym serves the detail page. Auth is optional: a signed-in subscriber
// sees subscriber pricing, everyone else sees the default rate.
func (h *GymHandler) GetGym(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	gymID, err := uuid.Parse(mux.Vars(r)["gymId"])
	if err != nil {
		respondWithError(w, apierror.Validation("Invalid gym id"))
		return
	}

	isSubscriber := false
	if clerkID, ok := middleware.GetClerkID(ctx); ok {
		p, err := h.profiles.Ensure(ctx, clerkID)
		if err != nil {
			respondWithError(w, err)
			return
		}
		isSubscriber, err = h.subs.IsActiveSubscriber(ctx, p.ID, time.Now())
		if err != nil {
			respondWithError(w, err)
			return
		}
	}

	detail, err := h.gyms.Detail(ctx, gymID, isSubscriber)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}
