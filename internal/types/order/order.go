package order

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeEntry        Type = "ENTRY"
	TypeSubscription Type = "SUBSCRIPTION"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// Order is a purchase intent. The fee breakdown is frozen at creation and
// never recomputed.
type Order struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Type             Type       `json:"type" db:"type"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	GymID            *uuid.UUID `json:"gym_id" db:"gym_id"`
	PlatformFeeBps   int64      `json:"platform_fee_bps" db:"platform_fee_bps"`
	GSTRateBps       int64      `json:"gst_rate_bps" db:"gst_rate_bps"`
	GymPricePaise    int64      `json:"gym_price_paise" db:"gym_price_paise"`
	PlatformFeePaise int64      `json:"platform_fee_paise" db:"platform_fee_paise"`
	GSTPaise         int64      `json:"gst_paise" db:"gst_paise"`
	TotalPaise       int64      `json:"total_paise" db:"total_paise"`
	Status           Status     `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
