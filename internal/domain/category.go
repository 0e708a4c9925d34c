package domain

import "time"

// MaxSolutionKeywords bounds the keyword set of a solution.
const MaxSolutionKeywords = 20

// Category classifies problems and carries the keywords used for detection.
type Category struct {
	ID              string
	Name            string
	DepartmentID    *string
	Description     string
	Keywords        []string
	DefaultResponse string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Solution is a canned remedy belonging to one category.
type Solution struct {
	ID               string
	Title            string
	Content          string
	Keywords         []string
	CategoryID       string
	IsFallback       bool
	FallbackPriority int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
