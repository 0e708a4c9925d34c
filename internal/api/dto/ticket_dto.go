package dto

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                `json:"title" validate:"required,max=100"`
	Description  string                `json:"description" validate:"required,min=6"`
	ClientName   string                `json:"client_name" validate:"omitempty,max=100"`
	ClientEmail  string                `json:"client_email" validate:"omitempty,email"`
	DepartmentID string                `json:"department_id" validate:"omitempty,uuid"`
	CategoryID   string                `json:"category_id" validate:"required,uuid"`
	RequestType  domain.RequestType    `json:"request_type" validate:"omitempty,oneof=Incident Demande Problème"`
	Priority     domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate      *time.Time            `json:"due_date"`
	TimeSpent    int                   `json:"time_spent" validate:"gte=0"`
	AgentID      *string               `json:"agent_id" validate:"omitempty,uuid"`
}

// UpdateTicketRequest is a partial update. Keys absent from the body are
// left untouched and explicit nulls clear optional fields.
type UpdateTicketRequest struct {
	Title           domain.Optional[string]                `json:"title"`
	Description     domain.Optional[string]                `json:"description"`
	ClientName      domain.Optional[string]                `json:"client_name"`
	ClientEmail     domain.Optional[string]                `json:"client_email"`
	DepartmentID    domain.Optional[string]                `json:"department_id"`
	CategoryID      domain.Optional[string]                `json:"category_id"`
	RequestType     domain.Optional[domain.RequestType]    `json:"request_type"`
	DueDate         domain.Optional[time.Time]             `json:"due_date"`
	TimeSpent       domain.Optional[int]                   `json:"time_spent"`
	Status          domain.Optional[domain.TicketStatus]   `json:"status"`
	Priority        domain.Optional[domain.TicketPriority] `json:"priority"`
	ResolutionNotes domain.Optional[string]                `json:"resolution_notes"`
	Satisfaction    domain.Optional[domain.Satisfaction]   `json:"satisfaction"`
}

// AssignAgentRequest payload.
type AssignAgentRequest struct {
	AgentID string `json:"agent_id" validate:"required,uuid"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	ResolutionNotes *string              `json:"resolution_notes"`
	Satisfaction    *domain.Satisfaction `json:"satisfaction"`
}

// CommentRequest creates or edits a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID              string                `json:"id"`
	TicketNumber    string                `json:"ticket_number"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	ClientName      string                `json:"client_name"`
	ClientEmail     string                `json:"client_email"`
	DepartmentID    string                `json:"department_id"`
	CategoryID      string                `json:"category_id"`
	RequestType     domain.RequestType    `json:"request_type"`
	DueDate         *time.Time            `json:"due_date,omitempty"`
	TimeSpent       int                   `json:"time_spent"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	RequesterID     string                `json:"requester_id"`
	AssignedAgentID *string               `json:"assigned_agent_id,omitempty"`
	CreatedBy       string                `json:"created_by"`
	CreatedByRole   domain.Role           `json:"created_by_role"`
	ClosedBy        *string               `json:"closed_by,omitempty"`
	ResolutionNotes *string               `json:"resolution_notes,omitempty"`
	Satisfaction    *domain.Satisfaction  `json:"satisfaction,omitempty"`
	StartDate       time.Time             `json:"start_date"`
	EndDate         *time.Time            `json:"end_date,omitempty"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Comments        []CommentResponse     `json:"comments"`
	Files           []FileResponse        `json:"files"`
}

// CommentResponse hides the text of deleted comments.
type CommentResponse struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	AuthorID   string      `json:"author_id"`
	AuthorRole domain.Role `json:"author_role"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
	Deleted    bool        `json:"deleted"`
	DeletedAt  *time.Time  `json:"deleted_at,omitempty"`
}

// FileResponse describes an attachment.
type FileResponse struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	FileType     string    `json:"file_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedAt   time.Time `json:"uploaded_at"`
	URL          string    `json:"url,omitempty"`
}

// NewTicketResponse converts t. urls maps file ids to download links.
func NewTicketResponse(t *domain.Ticket, urls map[string]string) TicketResponse {
	resp := TicketResponse{
		ID:              t.ID,
		TicketNumber:    t.TicketNumber,
		Title:           t.Title,
		Description:     t.Description,
		ClientName:      t.Client.Name,
		ClientEmail:     t.Client.Email,
		DepartmentID:    t.DepartmentID,
		CategoryID:      t.Metadata.CategoryID,
		RequestType:     t.Metadata.RequestType,
		DueDate:         t.Metadata.DueDate,
		TimeSpent:       t.Metadata.TimeSpent,
		Status:          t.Status,
		Priority:        t.Priority,
		RequesterID:     t.RequesterID,
		AssignedAgentID: t.AssignedAgentID,
		CreatedBy:       t.CreatedBy,
		CreatedByRole:   t.CreatedByRole,
		ClosedBy:        t.ClosedBy,
		ResolutionNotes: t.ResolutionNotes,
		Satisfaction:    t.Satisfaction,
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		UpdatedAt:       t.UpdatedAt,
		Comments:        make([]CommentResponse, 0, len(t.Comments)),
		Files:           make([]FileResponse, 0, len(t.Files)),
	}
	for i := range t.Comments {
		resp.Comments = append(resp.Comments, NewCommentResponse(&t.Comments[i]))
	}
	for _, f := range t.Files {
		resp.Files = append(resp.Files, NewFileResponse(&f, urls[f.ID]))
	}
	return resp
}

// NewCommentResponse converts c.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorID:   c.AuthorID,
		AuthorRole: c.AuthorRole,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Deleted:    c.Deleted,
		DeletedAt:  c.DeletedAt,
	}
	if c.Deleted {
		resp.Text = ""
	}
	return resp
}

// NewFileResponse converts f.
func NewFileResponse(f *domain.TicketFile, url string) FileResponse {
	return FileResponse{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		FileType:     f.FileType,
		SizeBytes:    f.SizeBytes,
		UploadedAt:   f.UploadedAt,
		URL:          url,
	}
}
