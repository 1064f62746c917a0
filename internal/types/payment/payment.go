package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const ProviderRazorpay = "RAZORPAY"

type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusCaptured Status = "CAPTURED"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

// Payment shadows the gateway-side transaction for one order (1:1 by order_id).
// Only the payment verifier and the webhook reconciler write to it.
type Payment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrderID           uuid.UUID       `json:"order_id" db:"order_id"`
	Provider          string          `json:"provider" db:"provider"`
	ProviderOrderID   string          `json:"provider_order_id" db:"provider_order_id"`
	ProviderPaymentID *string         `json:"provider_payment_id" db:"provider_payment_id"`
	Status            Status          `json:"status" db:"status"`
	RawWebhook        json.RawMessage `json:"raw_webhook" db:"raw_webhook"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}
