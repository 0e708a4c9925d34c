package dto

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// UpdateUserRequest is an admin patch of an account.
type UpdateUserRequest struct {
	Name         domain.Optional[string]      `json:"name"`
	Email        domain.Optional[string]      `json:"email"`
	Role         domain.Optional[domain.Role] `json:"role"`
	DepartmentID domain.Optional[string]      `json:"department_id"`
	Verified     domain.Optional[bool]        `json:"verified"`
}

// UpdateProfileRequest is a self-service profile patch.
type UpdateProfileRequest struct {
	Name     domain.Optional[string]   `json:"name"`
	Phone    domain.Optional[string]   `json:"phone"`
	Address  domain.Optional[string]   `json:"address"`
	Bio      domain.Optional[string]   `json:"bio"`
	Skills   domain.Optional[[]string] `json:"skills"`
	LinkedIn domain.Optional[string]   `json:"linkedin"`
	Twitter  domain.Optional[string]   `json:"twitter"`
}

// ProfileResponse is an account with its profile details.
type ProfileResponse struct {
	UserResponse
	Phone    string   `json:"phone,omitempty"`
	Address  string   `json:"address,omitempty"`
	Bio      string   `json:"bio,omitempty"`
	Skills   []string `json:"skills"`
	LinkedIn string   `json:"linkedin,omitempty"`
	Twitter  string   `json:"twitter,omitempty"`
}

// NewProfileResponse converts u with its presigned avatar link.
func NewProfileResponse(u *domain.User, avatarURL string) ProfileResponse {
	user := NewUserResponse(u)
	user.AvatarURL = avatarURL
	skills := u.Profile.Skills
	if skills == nil {
		skills = []string{}
	}
	return ProfileResponse{
		UserResponse: user,
		Phone:        u.Profile.Phone,
		Address:      u.Profile.Address,
		Bio:          u.Profile.Bio,
		Skills:       skills,
		LinkedIn:     u.Profile.LinkedIn,
		Twitter:      u.Profile.Twitter,
	}
}

// SlotRequest is one weekly availability range.
type SlotRequest struct {
	Day   domain.Weekday `json:"day" validate:"required,oneof=Lundi Mardi Mercredi Jeudi Vendredi Samedi Dimanche"`
	Start string         `json:"start" validate:"required"`
	End   string         `json:"end" validate:"required"`
}

// ReplaceAvailabilityRequest swaps the whole schedule.
type ReplaceAvailabilityRequest struct {
	Slots []SlotRequest `json:"slots" validate:"max=50,dive"`
}

// SlotResponse is a stored availability range.
type SlotResponse struct {
	ID        string         `json:"id"`
	Day       domain.Weekday `json:"day"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewSlotResponse converts s.
func NewSlotResponse(s *domain.AvailabilitySlot) SlotResponse {
	return SlotResponse{ID: s.ID, Day: s.Day, Start: s.Start, End: s.End, CreatedAt: s.CreatedAt}
}

// NewSlotResponses converts slots, never returning nil.
func NewSlotResponses(slots []domain.AvailabilitySlot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, NewSlotResponse(&slots[i]))
	}
	return out
}
