package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/razorpay"
	"cruxPassAPI/internal/types/checkin"
	"cruxPassAPI/internal/types/order"
	"cruxPassAPI/internal/types/payment"
	"cruxPassAPI/internal/types/subscription"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentService struct {
	db       *pgxpool.Pool
	gateway  *razorpay.Client
	profiles *ProfileService
}

func NewPaymentService(db *pgxpool.Pool, gateway *razorpay.Client, profiles *ProfileService) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, profiles: profiles}
}

type VerifyRequest struct {
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type VerifyResult struct {
	Type      order.Type `json:"type"`
	CheckinID *uuid.UUID `json:"checkin_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Verify validates the signed receipt the client received from the gateway
// checkout, flips the order to PAID and issues the grant. The writes here
// act as the trusted payment principal, not the end-user session: the
// verified signature is the authority.
func (s *PaymentService) Verify(ctx context.Context, clerkID string, orderID uuid.UUID, req *VerifyRequest) (*VerifyResult, error) {
	if req.PaymentID == "" || req.Signature == "" {
		return nil, apierror.Validation("payment_id and signature are required")
	}

	profile, err := s.profiles.Ensure(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	o, err := s.getOwnedOrder(ctx, orderID, profile.ID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusPaid {
		return nil, apierror.New("ALREADY_PAID", "This order has already been paid", http.StatusConflict)
	}
	if o.Status != order.StatusCreated {
		return nil, apierror.New("ORDER_INVALID", "Order is not in a payable state", http.StatusConflict)
	}

	var paymentID uuid.UUID
	var providerOrderID string
	err = s.db.QueryRow(ctx,
		`SELECT id, provider_order_id FROM payments WHERE order_id = $1 AND provider = $2`,
		o.ID, payment.ProviderRazorpay,
	).Scan(&paymentID, &providerOrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NotFound("Payment record not found")
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}

	if !s.gateway.VerifyPaymentSignature(providerOrderID, req.PaymentID, req.Signature) {
		return nil, apierror.New("INVALID_SIGNATURE", "Payment signature verification failed", http.StatusBadRequest)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE payments SET provider_payment_id = $2, status = $3 WHERE id = $1`,
		paymentID, req.PaymentID, payment.StatusCaptured,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture payment: %w", err)
	}

	// Conditional flip: the webhook reconciler may have landed first.
	_, err = s.db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`,
		o.ID, order.StatusPaid, order.StatusCreated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	switch o.Type {
	case order.TypeEntry:
		return s.issueCheckin(ctx, o)
	case order.TypeSubscription:
		return s.issueSubscription(ctx, o)
	}

	return nil, apierror.Internal("Unknown order type")
}

func (s *PaymentService) getOwnedOrder(ctx context.Context, orderID, userID uuid.UUID) (*order.Order, error) {
	query := `
	SELECT id, type, user_id, gym_id, platform_fee_bps, gst_rate_bps,
		gym_price_paise, platform_fee_paise, gst_paise, total_paise, status, created_at
	FROM orders
	WHERE id = $1 AND user_id = $2
	`

	o := &order.Order{}
	err := s.db.QueryRow(ctx, query, orderID, userID).Scan(
		&o.ID, &o.Type, &o.UserID, &o.GymID, &o.PlatformFeeBps, &o.GSTRateBps,
		&o.GymPricePaise, &o.PlatformFeePaise, &o.GSTPaise, &o.TotalPaise, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NotFound("Order not found")
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

func (s *PaymentService) issueCheckin(ctx context.Context, o *order.Order) (*VerifyResult, error) {
	expiresAt := time.Now().Add(checkin.ExpiryWindow)

	var checkinID uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO checkins (user_id, gym_id, order_id, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		o.UserID, o.GymID, o.ID, checkin.StatusPending, expiresAt,
	).Scan(&checkinID)
	if err != nil {
		// The partial unique index closes the race the order-time advisory
		// check cannot: translate it to the domain conflict, not a 500.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, apierror.New("ACTIVE_CHECKIN", "You already have an active check-in in progress", http.StatusConflict)
		}
		return nil, fmt.Errorf("failed to create checkin: %w", err)
	}

	return &VerifyResult{Type: order.TypeEntry, CheckinID: &checkinID}, nil
}

func (s *PaymentService) issueSubscription(ctx context.Context, o *order.Order) (*VerifyResult, error) {
	now := time.Now()
	expiresAt := now.Add(subscription.Period)

	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (user_id, order_id, status, starts_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		o.UserID, o.ID, subscription.StatusActive, now, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return &VerifyResult{Type: order.TypeSubscription, ExpiresAt: &expiresAt}, nil
}
