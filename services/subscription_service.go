package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cruxPassAPI/internal/pricing"
	"cruxPassAPI/internal/types/subscription"
	"cruxPassAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionService struct {
	db *pgxpool.Pool
}

func NewSubscriptionService(db *pgxpool.Pool) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// IsActiveSubscriber reports whether the user currently qualifies for the
// reduced platform fee. Derived from the stored expiry, never swept.
func (s *SubscriptionService) IsActiveSubscriber(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id FROM subscriptions WHERE user_id = $1 AND status = 'ACTIVE' AND expires_at > $2 LIMIT 1`,
		userID, now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return true, nil
}

// Summary is the account-page view of the user's subscription state plus
// what a new purchase would cost today.
type Summary struct {
	IsActive             bool                       `json:"is_active"`
	Subscription         *subscription.Subscription `json:"subscription"`
	PurchasePricePaise   int64                      `json:"purchase_price_paise"`
	PurchasePriceDisplay string                     `json:"purchase_price_display"`
	Breakdown            pricing.Breakdown          `json:"breakdown"`
	Benefit              string                     `json:"benefit"`
}

// Current returns the most recent subscription and the purchase pricing.
func (s *SubscriptionService) Current(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	query := `
	SELECT id, user_id, order_id, status, starts_at, expires_at, created_at
	FROM subscriptions
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT 1
	`

	sub := &subscription.Subscription{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.OrderID, &sub.Status, &sub.StartsAt, &sub.ExpiresAt, &sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			sub = nil
		} else {
			return nil, fmt.Errorf("failed to get subscription: %w", err)
		}
	}

	breakdown := pricing.Compute(pricing.SubscriptionPricePaise, false)

	summary := &Summary{
		Subscription:         sub,
		PurchasePricePaise:   breakdown.TotalPaise,
		PurchasePriceDisplay: utils.FormatINR(breakdown.TotalPaise),
		Breakdown:            breakdown,
		Benefit:              "Platform fee reduced from 10% to 5% on every gym visit",
	}
	if sub != nil {
		summary.IsActive = sub.IsActive(time.Now())
	}

	return summary, nil
}
