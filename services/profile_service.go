package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"cruxPassAPI/internal/apierror"
	"cruxPassAPI/internal/types/profile"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var phonePattern = regexp.MustCompile(`^\+91[6-9]\d{9}$`)

type ProfileService struct {
	db *pgxpool.Pool
}

func NewProfileService(db *pgxpool.Pool) *ProfileService {
	return &ProfileService{db: db}
}

// Ensure resolves the profile for an authenticated identity, creating an
// empty row on first sight. The auth provider owns identity; we only keep
// the per-platform profile fields.
func (s *ProfileService) Ensure(ctx context.Context, clerkID string) (*profile.Profile, error) {
	query := `
	INSERT INTO profiles (clerk_id)
	VALUES ($1)
	ON CONFLICT (clerk_id) DO UPDATE SET clerk_id = EXCLUDED.clerk_id
	RETURNING id, clerk_id, display_name, phone, photo_path, role, created_at, updated_at
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&p.ID,
		&p.ClerkID,
		&p.DisplayName,
		&p.Phone,
		&p.PhotoPath,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	return p, nil
}

// Update sets display name and phone. Phone must be an Indian mobile
// number; a phone already linked to another account surfaces PHONE_TAKEN.
func (s *ProfileService) Update(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" || len(name) > 100 {
		return nil, apierror.Validation("display_name must be between 1 and 100 characters")
	}
	if !phonePattern.MatchString(req.Phone) {
		return nil, apierror.Validation("Phone must be a valid Indian mobile number (+91XXXXXXXXXX)")
	}

	query := `
	UPDATE profiles
	SET display_name = $2, phone = $3, updated_at = now()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, display_name, phone, photo_path, role, created_at, updated_at
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID, name, req.Phone).Scan(
		&p.ID,
		&p.ClerkID,
		&p.DisplayName,
		&p.Phone,
		&p.PhotoPath,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, apierror.New("PHONE_TAKEN", "This phone number is already linked to another account", http.StatusConflict)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return p, nil
}

// PhotoURL builds the public avatar URL for a stored photo path.
func (s *ProfileService) PhotoURL(p *profile.Profile) *string {
	if p == nil || p.PhotoPath == nil || *p.PhotoPath == "" {
		return nil
	}
	base := strings.TrimRight(os.Getenv("AVATAR_BASE_URL"), "/")
	if base == "" {
		return nil
	}
	url := base + "/" + strings.TrimLeft(*p.PhotoPath, "/")
	return &url
}

// GetByID loads a profile by its internal id.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	query := `
	SELECT id, clerk_id, display_name, phone, photo_path, role, created_at, updated_at
	FROM profiles
	WHERE id = $1
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ClerkID,
		&p.DisplayName,
		&p.Phone,
		&p.PhotoPath,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return p, nil
}
