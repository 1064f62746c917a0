package razorpay

import "encoding/json"

// Webhook event names the reconciler acts on. Anything else is acknowledged
// without effect.
const (
	EventPaymentCaptured   = "payment.captured"
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentFailed     = "payment.failed"
	EventRefundProcessed   = "refund.processed"
)

// Event is the gateway's webhook envelope. ID may be empty on some event
// families; callers must fall back to a synthetic idempotency key then.
type Event struct {
	ID      string       `json:"id"`
	Name    string       `json:"event"`
	Payload EventPayload `json:"payload"`
}

type EventPayload struct {
	Payment *PaymentWrapper `json:"payment,omitempty"`
	Refund  *RefundWrapper  `json:"refund,omitempty"`
}

type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

type RefundWrapper struct {
	Entity RefundEntity `json:"entity"`
}

type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type RefundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// RawPayload re-serializes the payload for audit storage.
func (e *Event) RawPayload() json.RawMessage {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
