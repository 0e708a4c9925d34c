package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleClient Role = "Client"
	RoleAgent  Role = "Agent"
	RoleAdmin  Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is an account of any role. TicketCount is the agent load counter.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	DepartmentID    *string
	TicketCount     int
	ProfileImageURL string
	Profile         Profile
	Verified        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Profile is the self-service part of an account. ProfileImageURL on User
// holds the object key of the avatar, not a link.
type Profile struct {
	Phone    string
	Address  string
	Bio      string
	Skills   []string
	LinkedIn string
	Twitter  string
}

// IsAgentOf reports whether u is an agent attached to departmentID.
func (u *User) IsAgentOf(departmentID string) bool {
	return u != nil && u.Role == RoleAgent && u.DepartmentID != nil && *u.DepartmentID == departmentID
}

// Actor is the authenticated caller of a core operation.
type Actor struct {
	ID   string
	Role Role
}

// Actor returns the actor view of u.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
