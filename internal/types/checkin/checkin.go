package checkin

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// ExpiryWindow is how long a check-in stays approvable after payment.
// Fixed platform policy, not configurable per gym.
const ExpiryWindow = 90 * time.Second

// Checkin is the time-boxed access grant issued after a successful ENTRY
// payment. At most one PENDING check-in exists per user (partial unique
// index) and at most one check-in per order.
type Checkin struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	GymID        uuid.UUID  `json:"gym_id" db:"gym_id"`
	OrderID      uuid.UUID  `json:"order_id" db:"order_id"`
	Status       Status     `json:"status" db:"status"`
	ExpiresAt    time.Time  `json:"expires_at" db:"expires_at"`
	ApprovedAt   *time.Time `json:"approved_at" db:"approved_at"`
	RejectedAt   *time.Time `json:"rejected_at" db:"rejected_at"`
	RejectReason *string    `json:"reject_reason" db:"reject_reason"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// EffectiveStatus derives EXPIRED from the stored deadline. EXPIRED is never
// written by a sweeper; every reader must apply this before acting on or
// presenting the status.
func (c *Checkin) EffectiveStatus(now time.Time) Status {
	if c.Status == StatusPending && now.After(c.ExpiresAt) {
		return StatusExpired
	}
	return c.Status
}
