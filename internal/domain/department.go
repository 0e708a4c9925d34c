package domain

import "time"

// Department groups agents and categories. Managed by admins.
type Department struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
