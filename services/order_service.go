package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/pricing"
	"cruxPassAPI/internal/razorpay"
	"cruxPassAPI/internal/types/order"
	"cruxPassAPI/internal/types/payment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderService struct {
	db            *pgxpool.Pool
	gateway       *razorpay.Client
	gyms          *GymService
	profiles      *ProfileService
	subscriptions *SubscriptionService
}

func NewOrderService(db *pgxpool.Pool, gateway *razorpay.Client, gyms *GymService, profiles *ProfileService, subscriptions *SubscriptionService) *OrderService {
	return &OrderService{
		db:            db,
		gateway:       gateway,
		gyms:          gyms,
		profiles:      profiles,
		subscriptions: subscriptions,
	}
}

type CreateOrderRequest struct {
	Type       order.Type `json:"type"`
	GymID      string     `json:"gym_id,omitempty"`
	PublicCode string     `json:"public_code,omitempty"`
}

type CreateOrderResult struct {
	Order          *order.Order
	GatewayOrderID string
	Breakdown      pricing.Breakdown
}

// Create runs the order precondition chain, freezes the fee breakdown,
// opens the gateway order and records the payment shadow row. The internal
// order is deleted again if the gateway call fails — nothing externally
// payable may dangle.
func (s *OrderService) Create(ctx context.Context, clerkID string, req *CreateOrderRequest) (*CreateOrderResult, error) {
	profile, err := s.profiles.Ensure(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if !profile.IsComplete() {
		return nil, apierror.New("PROFILE_INCOMPLETE", "Please complete your profile before checking in", http.StatusBadRequest)
	}

	now := time.Now()
	isSubscriber, err := s.subscriptions.IsActiveSubscriber(ctx, profile.ID, now)
	if err != nil {
		return nil, err
	}

	var gymID *uuid.UUID
	var gymPricePaise int64
	var breakdown pricing.Breakdown

	switch req.Type {
	case order.TypeSubscription:
		if isSubscriber {
			return nil, apierror.New("ALREADY_SUBSCRIBED", "You already have an active Crux Pass Plus subscription", http.StatusConflict)
		}
		gymPricePaise = pricing.SubscriptionPricePaise
		// The subscriber discount never applies to the subscription itself.
		breakdown = pricing.Compute(gymPricePaise, false)

	case order.TypeEntry:
		g, err := s.resolveGym(ctx, req)
		if err != nil {
			return nil, err
		}
		if g.IsPaused {
			return nil, apierror.New("GYM_PAUSED", "This gym is not currently accepting check-ins", http.StatusConflict)
		}
		gymID = &g.ID

		// Advisory pre-check; the partial unique index on checkins is the
		// real enforcement point at verification time.
		hasPending, err := s.hasPendingCheckin(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		if hasPending {
			return nil, apierror.New("ACTIVE_CHECKIN", "You already have an active check-in in progress. Please complete or wait for it to expire.", http.StatusConflict)
		}

		dailyCap, err := s.gyms.DailyCap(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if dailyCap != nil {
			count, err := s.gyms.CheckinsToday(ctx, g.ID)
			if err != nil {
				return nil, err
			}
			if count >= *dailyCap {
				return nil, apierror.New("GYM_FULL", "This gym has reached its daily capacity", http.StatusConflict)
			}
		}

		windowsByGym, err := s.gyms.windowsForGyms(ctx, []uuid.UUID{g.ID})
		if err != nil {
			return nil, err
		}
		gymPricePaise = pricing.EffectivePrice(g.BasePricePaise, windowsByGym[g.ID], now)
		breakdown = pricing.Compute(gymPricePaise, isSubscriber)

	default:
		return nil, apierror.Validation("type must be ENTRY or SUBSCRIPTION")
	}

	o, err := s.insertOrder(ctx, req.Type, profile.ID, gymID, breakdown)
	if err != nil {
		return nil, err
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, breakdown.TotalPaise, "INR", o.ID.String())
	if err != nil {
		// Compensating delete: the gateway call cannot join our transaction,
		// so roll the internal order back by hand.
		if _, delErr := s.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, o.ID); delErr != nil {
			log.Printf("Order rollback failed for %s: %v", o.ID, delErr)
		}
		log.Printf("Razorpay order creation failed: %v", err)
		return nil, apierror.New("PAYMENT_GATEWAY_ERROR", "Failed to initiate payment. Please try again.", http.StatusBadGateway)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO payments (order_id, provider, provider_order_id, status) VALUES ($1, $2, $3, $4)`,
		o.ID, payment.ProviderRazorpay, gatewayOrder.ID, payment.StatusCreated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment record: %w", err)
	}

	return &CreateOrderResult{
		Order:          o,
		GatewayOrderID: gatewayOrder.ID,
		Breakdown:      breakdown,
	}, nil
}

func (s *OrderService) resolveGym(ctx context.Context, req *CreateOrderRequest) (*gymRef, error) {
	if req.GymID != "" {
		id, err := uuid.Parse(req.GymID)
		if err != nil {
			return nil, apierror.Validation("gym_id must be a valid UUID")
		}
		g, err := s.gyms.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &gymRef{ID: g.ID, IsPaused: g.IsPaused, BasePricePaise: g.BasePricePaise}, nil
	}
	if req.PublicCode != "" {
		g, err := s.gyms.GetByPublicCode(ctx, req.PublicCode)
		if err != nil {
			return nil, err
		}
		return &gymRef{ID: g.ID, IsPaused: g.IsPaused, BasePricePaise: g.BasePricePaise}, nil
	}
	return nil, apierror.Validation("Either gym_id or public_code is required for ENTRY orders")
}

type gymRef struct {
	ID             uuid.UUID
	IsPaused       bool
	BasePricePaise int64
}

func (s *OrderService) hasPendingCheckin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM checkins WHERE user_id = $1 AND status = 'PENDING')`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending checkin: %w", err)
	}
	return exists, nil
}

func (s *OrderService) insertOrder(ctx context.Context, orderType order.Type, userID uuid.UUID, gymID *uuid.UUID, b pricing.Breakdown) (*order.Order, error) {
	query := `
	INSERT INTO orders (type, user_id, gym_id, platform_fee_bps, gst_rate_bps,
		gym_price_paise, platform_fee_paise, gst_paise, total_paise, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, type, user_id, gym_id, platform_fee_bps, gst_rate_bps,
		gym_price_paise, platform_fee_paise, gst_paise, total_paise, status, created_at
	`

	o := &order.Order{}
	err := s.db.QueryRow(ctx, query,
		orderType, userID, gymID, b.PlatformFeeBps, b.GSTRateBps,
		b.GymPricePaise, b.PlatformFeePaise, b.GSTPaise, b.TotalPaise, order.StatusCreated,
	).Scan(
		&o.ID, &o.Type, &o.UserID, &o.GymID, &o.PlatformFeeBps, &o.GSTRateBps,
		&o.GymPricePaise, &o.PlatformFeePaise, &o.GSTPaise, &o.TotalPaise, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return o, nil
}
