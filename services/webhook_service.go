package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cruxPassAPI/internal/razorpay"
	"cruxPassAPI/internal/types/order"
	"cruxPassAPI/internal/types/payment"
	"cruxPassAPI/middleware"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateEvent marks an event that was already recorded. Callers ack it
// without re-applying anything.
var ErrDuplicateEvent = errors.New("webhook event already processed")

type WebhookService struct {
	db *pgxpool.Pool
}

func NewWebhookService(db *pgxpool.Pool) *WebhookService {
	return &WebhookService{db: db}
}

// Process applies one gateway event exactly once. The audit log insert is the
// idempotency gate: a duplicate key means a retry of an event we already
// handled, and every state write below is conditional so a late event
// arriving after the synchronous verify path converges to the same row.
func (s *WebhookService) Process(ctx context.Context, event *razorpay.Event) error {
	key := s.idempotencyKey(event)

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (idempotency_key, event_type, payload) VALUES ($1, $2, $3)`,
		key, event.Name, event.RawPayload(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			middleware.CountWebhookEvent(event.Name, "duplicate")
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	switch event.Name {
	case razorpay.EventPaymentCaptured, razorpay.EventPaymentAuthorized:
		err = s.applyPaymentSuccess(ctx, event)
	case razorpay.EventPaymentFailed:
		err = s.applyPaymentFailure(ctx, event)
	case razorpay.EventRefundProcessed:
		err = s.applyRefund(ctx, event)
	default:
		log.Printf("Ignoring unhandled webhook event type: %s", event.Name)
		middleware.CountWebhookEvent(event.Name, "ignored")
		return nil
	}

	if err != nil {
		middleware.CountWebhookEvent(event.Name, "error")
		return err
	}

	middleware.CountWebhookEvent(event.Name, "applied")
	return nil
}

func (s *WebhookService) idempotencyKey(event *razorpay.Event) string {
	if event.ID != "" {
		return "razorpay:" + event.ID
	}
	return fmt.Sprintf("razorpay:%s-%d", event.Name, time.Now().UnixMilli())
}

func (s *WebhookService) applyPaymentSuccess(ctx context.Context, event *razorpay.Event) error {
	entity := event.Payload.Payment
	if entity == nil {
		return errors.New("payment event without payment entity")
	}

	p, err := s.paymentByProviderOrder(ctx, entity.Entity.OrderID)
	if err != nil {
		return err
	}

	if p.Status != payment.StatusCaptured {
		_, err = s.db.Exec(ctx,
			`UPDATE payments SET provider_payment_id = $2, status = $3, raw_webhook = $4 WHERE id = $1`,
			p.ID, entity.Entity.ID, payment.StatusCaptured, event.RawPayload(),
		)
		if err != nil {
			return fmt.Errorf("failed to capture payment from webhook: %w", err)
		}
	}

	_, err = s.db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`,
		p.OrderID, order.StatusPaid, order.StatusCreated,
	)
	if err != nil {
		return fmt.Errorf("failed to reconcile order from webhook: %w", err)
	}

	return nil
}

func (s *WebhookService) applyPaymentFailure(ctx context.Context, event *razorpay.Event) error {
	entity := event.Payload.Payment
	if entity == nil {
		return errors.New("payment event without payment entity")
	}

	p, err := s.paymentByProviderOrder(ctx, entity.Entity.OrderID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE payments SET status = $2, raw_webhook = $3 WHERE id = $1`,
		p.ID, payment.StatusFailed, event.RawPayload(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}

	// A verified payment wins over a stale failure event.
	_, err = s.db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`,
		p.OrderID, order.StatusCancelled, order.StatusCreated,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	return nil
}

func (s *WebhookService) applyRefund(ctx context.Context, event *razorpay.Event) error {
	entity := event.Payload.Refund
	if entity == nil {
		return errors.New("refund event without refund entity")
	}

	var paymentID, orderID string
	err := s.db.QueryRow(ctx,
		`SELECT id, order_id FROM payments WHERE provider_payment_id = $1 AND provider = $2`,
		entity.Entity.PaymentID, payment.ProviderRazorpay,
	).Scan(&paymentID, &orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Refund webhook for unknown payment %s, acking", entity.Entity.PaymentID)
			return nil
		}
		return fmt.Errorf("failed to look up refunded payment: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE payments SET status = $2, raw_webhook = $3 WHERE id = $1`,
		paymentID, payment.StatusRefunded, event.RawPayload(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark payment refunded: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		orderID, order.StatusRefunded,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order refunded: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE refunds SET status = 'SUCCEEDED', provider_refund_id = $2 WHERE order_id = $1 AND status = 'PENDING'`,
		orderID, entity.Entity.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to settle refund record: %w", err)
	}

	return nil
}

type webhookPayment struct {
	ID      string
	OrderID string
	Status  payment.Status
}

func (s *WebhookService) paymentByProviderOrder(ctx context.Context, providerOrderID string) (*webhookPayment, error) {
	p := &webhookPayment{}
	err := s.db.QueryRow(ctx,
		`SELECT id, order_id, status FROM payments WHERE provider_order_id = $1 AND provider = $2`,
		providerOrderID, payment.ProviderRazorpay,
	).Scan(&p.ID, &p.OrderID, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no payment for provider order %s", providerOrderID)
		}
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	return p, nil
}
