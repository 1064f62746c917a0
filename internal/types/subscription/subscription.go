package subscription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Duration of one purchased subscription period.
const Period = 30 * 24 * time.Hour

// Subscription is a fee-discount eligibility window. "Active" is always
// derived as status ACTIVE and expires_at in the future; expiry is never
// swept into the row.
type Subscription struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	Status    Status    `json:"status" db:"status"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == StatusActive && s.ExpiresAt.After(now)
}
