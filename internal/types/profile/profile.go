package profile

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser          Role = "user"
	RoleGymStaff      Role = "gym_staff"
	RoleGymAdmin      Role = "gym_admin"
	RolePlatformAdmin Role = "platform_admin"
)

type Profile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ClerkID     string    `json:"-" db:"clerk_id"`
	DisplayName *string   `json:"display_name" db:"display_name"`
	Phone       *string   `json:"phone" db:"phone"`
	PhotoPath   *string   `json:"photo_path" db:"photo_path"`
	Role        Role      `json:"role" db:"role"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsComplete reports whether the profile can be presented to gym staff at
// reception: a display name and a photo are both required before ordering.
func (p *Profile) IsComplete() bool {
	return p.DisplayName != nil && *p.DisplayName != "" && p.PhotoPath != nil && *p.PhotoPath != ""
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}
