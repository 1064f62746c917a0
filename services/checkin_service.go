package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/types/checkin"
	"cruxPassAPI/middleware"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckinService struct {
	db       *pgxpool.Pool
	gyms     *GymService
	profiles *ProfileService
}

func NewCheckinService(db *pgxpool.Pool, gyms *GymService, profiles *ProfileService) *CheckinService {
	return &CheckinService{db: db, gyms: gyms, profiles: profiles}
}

// CheckinView is what both ends of the approval handshake see: the visitor's
// polling screen and the front-desk confirm screen. Status is always the
// derived one.
type CheckinView struct {
	ID             uuid.UUID      `json:"id"`
	Status         checkin.Status `json:"status"`
	ExpiresAt      time.Time      `json:"expires_at"`
	RejectReason   *string        `json:"reject_reason,omitempty"`
	GymID          uuid.UUID      `json:"gym_id"`
	GymName        string         `json:"gym_name"`
	MemberName     string         `json:"member_name"`
	MemberPhotoURL *string        `json:"member_photo_url"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Get returns a check-in to its owner. Staff reach check-ins through the
// confirm endpoint, not here.
func (s *CheckinService) Get(ctx context.Context, clerkID string, checkinID uuid.UUID) (*CheckinView, error) {
	p, err := s.profiles.Ensure(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	c, err := s.getByID(ctx, checkinID)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.ID {
		return nil, apierror.Forbidden("You do not have access to this check-in")
	}

	return s.buildView(ctx, c)
}

// Cancel lets the owner abandon a still-pending check-in, e.g. after paying
// at the wrong gym. No refund is triggered here.
func (s *CheckinService) Cancel(ctx context.Context, clerkID string, checkinID uuid.UUID) (*CheckinView, error) {
	p, err := s.profiles.Ensure(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	c, err := s.getByID(ctx, checkinID)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.ID {
		return nil, apierror.Forbidden("You do not have access to this check-in")
	}

	if err := s.transition(ctx, c, checkin.StatusCancelled, nil); err != nil {
		return nil, err
	}
	return s.buildView(ctx, c)
}

type ConfirmRequest struct {
	Action       string  `json:"action"`
	RejectReason *string `json:"reject_reason"`
}

// Confirm is the staff decision on a pending check-in. Only members of the
// gym the check-in targets may decide.
func (s *CheckinService) Confirm(ctx context.Context, clerkID string, checkinID uuid.UUID, req *ConfirmRequest) (*CheckinView, error) {
	if req.Action != "APPROVE" && req.Action != "REJECT" {
		return nil, apierror.Validation("action must be APPROVE or REJECT")
	}

	p, err := s.profiles.Ensure(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	c, err := s.getByID(ctx, checkinID)
	if err != nil {
		return nil, err
	}

	isStaff, err := s.gyms.IsStaff(ctx, p.ID, c.GymID)
	if err != nil {
		return nil, err
	}
	if !isStaff {
		return nil, apierror.Forbidden("You are not staff at this gym")
	}

	target := checkin.StatusApproved
	if req.Action == "REJECT" {
		target = checkin.StatusRejected
	}
	if err := s.transition(ctx, c, target, req.RejectReason); err != nil {
		return nil, err
	}

	middleware.CountCheckinDecision(req.Action)
	return s.buildView(ctx, c)
}

// checkTransition validates that a stored check-in may move to target.
// Staff decisions are refused once the window has lapsed, but owner cancel
// stays open on a stored-PENDING row: cancelling is the only way to release
// the one-pending-per-user slot after expiry.
func checkTransition(c *checkin.Checkin, target checkin.Status, now time.Time) error {
	if c.Status != checkin.StatusPending {
		return apierror.New("CHECKIN_NOT_PENDING", "Check-in has already been resolved", http.StatusConflict)
	}
	if target != checkin.StatusCancelled && c.EffectiveStatus(now) == checkin.StatusExpired {
		return apierror.New("CHECKIN_EXPIRED", "Check-in window has expired", http.StatusConflict)
	}
	return nil
}

// transition applies a terminal state to a PENDING check-in. The UPDATE is
// guarded on status so two racing deciders cannot both win; the loser sees
// zero rows and gets the conflict error.
func (s *CheckinService) transition(ctx context.Context, c *checkin.Checkin, target checkin.Status, rejectReason *string) error {
	now := time.Now()
	if err := checkTransition(c, target, now); err != nil {
		return err
	}

	var query string
	var args []interface{}
	switch target {
	case checkin.StatusApproved:
		query = `UPDATE checkins SET status = $2, approved_at = $3 WHERE id = $1 AND status = 'PENDING'`
		args = []interface{}{c.ID, target, now}
	case checkin.StatusRejected:
		query = `UPDATE checkins SET status = $2, rejected_at = $3, reject_reason = $4 WHERE id = $1 AND status = 'PENDING'`
		args = []interface{}{c.ID, target, now, rejectReason}
	default:
		query = `UPDATE checkins SET status = $2 WHERE id = $1 AND status = 'PENDING'`
		args = []interface{}{c.ID, target}
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update checkin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.New("CHECKIN_NOT_PENDING", "Check-in has already been resolved", http.StatusConflict)
	}

	c.Status = target
	switch target {
	case checkin.StatusApproved:
		c.ApprovedAt = &now
	case checkin.StatusRejected:
		c.RejectedAt = &now
		c.RejectReason = rejectReason
	}
	return nil
}

func (s *CheckinService) getByID(ctx context.Context, id uuid.UUID) (*checkin.Checkin, error) {
	query := `
	SELECT id, user_id, gym_id, order_id, status, expires_at,
		approved_at, rejected_at, reject_reason, created_at
	FROM checkins
	WHERE id = $1
	`

	c := &checkin.Checkin{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.GymID, &c.OrderID, &c.Status, &c.ExpiresAt,
		&c.ApprovedAt, &c.RejectedAt, &c.RejectReason, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NotFound("Check-in not found")
		}
		return nil, fmt.Errorf("failed to get checkin: %w", err)
	}

	return c, nil
}

func (s *CheckinService) buildView(ctx context.Context, c *checkin.Checkin) (*CheckinView, error) {
	g, err := s.gyms.GetByID(ctx, c.GymID)
	if err != nil {
		return nil, err
	}
	member, err := s.profiles.GetByID(ctx, c.UserID.String())
	if err != nil {
		return nil, err
	}

	memberName := ""
	if member.DisplayName != nil {
		memberName = *member.DisplayName
	}

	return &CheckinView{
		ID:             c.ID,
		Status:         c.EffectiveStatus(time.Now()),
		ExpiresAt:      c.ExpiresAt,
		RejectReason:   c.RejectReason,
		GymID:          g.ID,
		GymName:        g.Name,
		MemberName:     memberName,
		MemberPhotoURL: s.profiles.PhotoURL(member),
		CreatedAt:      c.CreatedAt,
	}, nil
}
