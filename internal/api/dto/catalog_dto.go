package dto

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// DepartmentRequest payload.
type DepartmentRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// CategoryRequest payload.
type CategoryRequest struct {
	Name            string   `json:"name" validate:"required,max=100"`
	DepartmentID    *string  `json:"department_id" validate:"omitempty,uuid"`
	Description     string   `json:"description" validate:"max=1000"`
	Keywords        []string `json:"keywords" validate:"dive,required,max=100"`
	DefaultResponse string   `json:"default_response" validate:"max=5000"`
}

// SolutionRequest payload.
type SolutionRequest struct {
	Title            string   `json:"title" validate:"required,max=200"`
	Content          string   `json:"content" validate:"required"`
	Keywords         []string `json:"keywords" validate:"max=20,dive,required,max=100"`
	CategoryID       string   `json:"category_id" validate:"required,uuid"`
	IsFallback       bool     `json:"is_fallback"`
	FallbackPriority int      `json:"fallback_priority" validate:"gte=0"`
}

// DepartmentResponse view.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryResponse view.
type CategoryResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DepartmentID    *string   `json:"department_id,omitempty"`
	Description     string    `json:"description"`
	Keywords        []string  `json:"keywords"`
	DefaultResponse string    `json:"default_response"`
	CreatedAt       time.Time `json:"created_at"`
}

// SolutionResponse view.
type SolutionResponse struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Keywords         []string `json:"keywords"`
	CategoryID       string   `json:"category_id"`
	IsFallback       bool     `json:"is_fallback"`
	FallbackPriority int      `json:"fallback_priority"`
}

func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Description: d.Description, CreatedAt: d.CreatedAt}
}

func NewCategoryResponse(c *domain.Category) CategoryResponse {
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return CategoryResponse{
		ID:              c.ID,
		Name:            c.Name,
		DepartmentID:    c.DepartmentID,
		Description:     c.Description,
		Keywords:        keywords,
		DefaultResponse: c.DefaultResponse,
		CreatedAt:       c.CreatedAt,
	}
}

func NewSolutionResponse(s *domain.Solution) SolutionResponse {
	keywords := s.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return SolutionResponse{
		ID:               s.ID,
		Title:            s.Title,
		Content:          s.Content,
		Keywords:         keywords,
		CategoryID:       s.CategoryID,
		IsFallback:       s.IsFallback,
		FallbackPriority: s.FallbackPriority,
	}
}
