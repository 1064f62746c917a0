package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/pricing"
	"cruxPassAPI/internal/types/gym"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const gymColumns = `
	g.id, g.public_code, g.name, g.address, g.city, g.state, g.lat, g.lng,
	g.base_price_paise, g.currency, g.rules_text, g.gym_logo_path, g.is_paused, g.created_at`

type GymService struct {
	db *pgxpool.Pool
}

func NewGymService(db *pgxpool.Pool) *GymService {
	return &GymService{db: db}
}

// GymDetail is the gym page payload: the gym, its peak windows, the price
// in effect right now and the caller's fee breakdown.
type GymDetail struct {
	gym.Gym
	PriceWindows      []gym.PriceWindow `json:"price_windows"`
	CurrentPricePaise int64             `json:"current_price_paise"`
	IsSubscriber      bool              `json:"is_subscriber"`
	PriceBreakdown    pricing.Breakdown `json:"price_breakdown"`
	DailyCap          *int              `json:"daily_cap"`
}

// ListNearby returns active gyms within radiusKm of the caller, nearest
// first, with the effective price attached.
func (s *GymService) ListNearby(ctx context.Context, lat, lng, radiusKm float64) ([]gym.NearbyGym, error) {
	if radiusKm <= 0 {
		radiusKm = 50
	}

	// Haversine distance in km; 6371 is the Earth radius.
	query := `
	SELECT` + gymColumns + `,
		6371 * acos(
			LEAST(1.0, GREATEST(-1.0,
				cos(radians($1)) * cos(radians(g.lat)) * cos(radians(g.lng) - radians($2))
				+ sin(radians($1)) * sin(radians(g.lat))
			))
		) AS distance_km
	FROM gyms g
	WHERE g.is_paused = false
	  AND 6371 * acos(
			LEAST(1.0, GREATEST(-1.0,
				cos(radians($1)) * cos(radians(g.lat)) * cos(radians(g.lng) - radians($2))
				+ sin(radians($1)) * sin(radians(g.lat))
			))
		) <= $3
	ORDER BY distance_km
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby gyms: %w", err)
	}
	defer rows.Close()

	var gyms []gym.NearbyGym
	for rows.Next() {
		var ng gym.NearbyGym
		var distance float64
		if err := scanGym(rows, &ng.Gym, &distance); err != nil {
			return nil, err
		}
		ng.DistanceKm = &distance
		gyms = append(gyms, ng)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read nearby gyms: %w", err)
	}

	return s.attachCurrentPrices(ctx, gyms)
}

// ListByCity is the fallback listing when the caller shares no coordinates.
func (s *GymService) ListByCity(ctx context.Context, city string) ([]gym.NearbyGym, error) {
	query := `
	SELECT` + gymColumns + `
	FROM gyms g
	WHERE g.is_paused = false AND g.city ILIKE '%' || $1 || '%'
	ORDER BY g.created_at
	`

	return s.listPlain(ctx, query, city)
}

// ListDefault returns the first 20 active gyms by name.
func (s *GymService) ListDefault(ctx context.Context) ([]gym.NearbyGym, error) {
	query := `
	SELECT` + gymColumns + `
	FROM gyms g
	WHERE g.is_paused = false
	ORDER BY g.name
	LIMIT 20
	`

	return s.listPlain(ctx, query)
}

func (s *GymService) listPlain(ctx context.Context, query string, args ...interface{}) ([]gym.NearbyGym, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gyms: %w", err)
	}
	defer rows.Close()

	var gyms []gym.NearbyGym
	for rows.Next() {
		var ng gym.NearbyGym
		if err := scanGym(rows, &ng.Gym); err != nil {
			return nil, err
		}
		gyms = append(gyms, ng)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read gyms: %w", err)
	}

	return s.attachCurrentPrices(ctx, gyms)
}

func scanGym(rows pgx.Rows, g *gym.Gym, extra ...interface{}) error {
	dest := []interface{}{
		&g.ID, &g.PublicCode, &g.Name, &g.Address, &g.City, &g.State, &g.Lat, &g.Lng,
		&g.BasePricePaise, &g.Currency, &g.RulesText, &g.LogoPath, &g.IsPaused, &g.CreatedAt,
	}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("scan gym: %w", err)
	}
	return nil
}

func (s *GymService) attachCurrentPrices(ctx context.Context, gyms []gym.NearbyGym) ([]gym.NearbyGym, error) {
	if len(gyms) == 0 {
		return gyms, nil
	}

	ids := make([]uuid.UUID, 0, len(gyms))
	for _, g := range gyms {
		ids = append(ids, g.ID)
	}

	windowsByGym, err := s.windowsForGyms(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range gyms {
		gyms[i].CurrentPricePaise = pricing.EffectivePrice(gyms[i].BasePricePaise, windowsByGym[gyms[i].ID], now)
	}
	return gyms, nil
}

func (s *GymService) windowsForGyms(ctx context.Context, gymIDs []uuid.UUID) (map[uuid.UUID][]gym.PriceWindow, error) {
	query := `
	SELECT id, gym_id, label, days_of_week, start_time, end_time, price_paise, created_at
	FROM gym_price_windows
	WHERE gym_id = ANY($1)
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, gymIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query price windows: %w", err)
	}
	defer rows.Close()

	byGym := make(map[uuid.UUID][]gym.PriceWindow)
	for rows.Next() {
		var w gym.PriceWindow
		if err := rows.Scan(&w.ID, &w.GymID, &w.Label, &w.DaysOfWeek, &w.StartTime, &w.EndTime, &w.PricePaise, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan price window: %w", err)
		}
		byGym[w.GymID] = append(byGym[w.GymID], w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read price windows: %w", err)
	}

	return byGym, nil
}

// GetByID loads one gym regardless of paused state (detail pages still show
// paused gyms; ordering rejects them separately).
func (s *GymService) GetByID(ctx context.Context, id uuid.UUID) (*gym.Gym, error) {
	return s.getOne(ctx, `WHERE g.id = $1`, id)
}

func (s *GymService) GetByPublicCode(ctx context.Context, code string) (*gym.Gym, error) {
	return s.getOne(ctx, `WHERE g.public_code = $1`, code)
}

func (s *GymService) getOne(ctx context.Context, where string, arg interface{}) (*gym.Gym, error) {
	query := `SELECT` + gymColumns + ` FROM gyms g ` + where

	g := &gym.Gym{}
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&g.ID, &g.PublicCode, &g.Name, &g.Address, &g.City, &g.State, &g.Lat, &g.Lng,
		&g.BasePricePaise, &g.Currency, &g.RulesText, &g.LogoPath, &g.IsPaused, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NotFound("Gym not found")
		}
		return nil, fmt.Errorf("failed to get gym: %w", err)
	}

	return g, nil
}

// Detail assembles the gym page payload for an optionally-identified caller.
func (s *GymService) Detail(ctx context.Context, id uuid.UUID, isSubscriber bool) (*GymDetail, error) {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	windowsByGym, err := s.windowsForGyms(ctx, []uuid.UUID{g.ID})
	if err != nil {
		return nil, err
	}
	windows := windowsByGym[g.ID]
	if windows == nil {
		windows = []gym.PriceWindow{}
	}

	currentPrice := pricing.EffectivePrice(g.BasePricePaise, windows, time.Now())

	detail := &GymDetail{
		Gym:               *g,
		PriceWindows:      windows,
		CurrentPricePaise: currentPrice,
		IsSubscriber:      isSubscriber,
		PriceBreakdown:    pricing.Compute(currentPrice, isSubscriber),
	}

	var dailyCap *int
	err = s.db.QueryRow(ctx, `SELECT daily_cap FROM gym_caps WHERE gym_id = $1`, g.ID).Scan(&dailyCap)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get gym cap: %w", err)
	}
	detail.DailyCap = dailyCap

	return detail, nil
}

// DailyCap returns the gym's daily check-in cap, nil when uncapped.
func (s *GymService) DailyCap(ctx context.Context, gymID uuid.UUID) (*int, error) {
	var dailyCap *int
	err := s.db.QueryRow(ctx, `SELECT daily_cap FROM gym_caps WHERE gym_id = $1`, gymID).Scan(&dailyCap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get gym cap: %w", err)
	}
	return dailyCap, nil
}

// CheckinsToday counts approved plus still-pending check-ins for a gym
// since local midnight (IST). Feeds the best-effort daily cap.
func (s *GymService) CheckinsToday(ctx context.Context, gymID uuid.UUID) (int, error) {
	query := `
	SELECT COUNT(*)
	FROM checkins
	WHERE gym_id = $1
	  AND status IN ('PENDING', 'APPROVED')
	  AND created_at >= date_trunc('day', now() AT TIME ZONE 'Asia/Kolkata') AT TIME ZONE 'Asia/Kolkata'
	`

	var count int
	if err := s.db.QueryRow(ctx, query, gymID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count today's checkins: %w", err)
	}
	return count, nil
}

// IsStaff reports whether the user holds any staff role at the gym.
func (s *GymService) IsStaff(ctx context.Context, userID, gymID uuid.UUID) (bool, error) {
	var role string
	err := s.db.QueryRow(ctx,
		`SELECT gym_role FROM gym_users WHERE user_id = $1 AND gym_id = $2`,
		userID, gymID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check gym staff: %w", err)
	}
	return true, nil
}
