package gym

import (
	"time"

	"github.com/google/uuid"
)

type Gym struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PublicCode     string    `json:"public_code" db:"public_code"`
	Name           string    `json:"name" db:"name"`
	Address        *string   `json:"address" db:"address"`
	City           *string   `json:"city" db:"city"`
	State          string    `json:"state" db:"state"`
	Lat            float64   `json:"lat" db:"lat"`
	Lng            float64   `json:"lng" db:"lng"`
	BasePricePaise int64     `json:"base_price_paise" db:"base_price_paise"`
	Currency       string    `json:"currency" db:"currency"`
	RulesText      *string   `json:"rules_text" db:"rules_text"`
	LogoPath       *string   `json:"gym_logo_path" db:"gym_logo_path"`
	IsPaused       bool      `json:"is_paused" db:"is_paused"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// PriceWindow is a recurring peak-pricing rule. Windows are evaluated in
// creation order; the first match overrides the gym's base price.
type PriceWindow struct {
	ID         uuid.UUID `json:"id" db:"id"`
	GymID      uuid.UUID `json:"gym_id" db:"gym_id"`
	Label      *string   `json:"label" db:"label"`
	DaysOfWeek []int     `json:"days_of_week" db:"days_of_week"`
	StartTime  string    `json:"start_time" db:"start_time"`
	EndTime    string    `json:"end_time" db:"end_time"`
	PricePaise int64     `json:"price_paise" db:"price_paise"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NearbyGym is a gym row plus the distance from the caller's coordinates.
// DistanceKm is nil when the listing was not geo-based (city or default).
type NearbyGym struct {
	Gym
	DistanceKm        *float64 `json:"distance_km"`
	CurrentPricePaise int64    `json:"current_price_paise"`
}
