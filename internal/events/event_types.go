package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/deskflow/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventTicketClosed        EventType = "ticket_closed"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorOf converts the caller of an operation.
func ActorOf(a domain.Actor) Actor {
	return Actor{UserID: a.ID, Role: a.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an id and the current time.
func NewEvent(eventType EventType, ticketID string, actor domain.Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     ActorOf(actor),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketRef carries the ticket fields notification handlers need without a
// second lookup.
type TicketRef struct {
	TicketNumber    string  `json:"ticket_number"`
	Title           string  `json:"title"`
	DepartmentID    string  `json:"department_id"`
	RequesterID     string  `json:"requester_id"`
	AssignedAgentID *string `json:"assigned_agent_id,omitempty"`
	ClientName      string  `json:"client_name"`
	ClientEmail     string  `json:"client_email"`
}

// RefOf snapshots t.
func RefOf(t *domain.Ticket) TicketRef {
	return TicketRef{
		TicketNumber:    t.TicketNumber,
		Title:           t.Title,
		DepartmentID:    t.DepartmentID,
		RequesterID:     t.RequesterID,
		AssignedAgentID: t.AssignedAgentID,
		ClientName:      t.Client.Name,
		ClientEmail:     t.Client.Email,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket     TicketRef             `json:"ticket"`
	CategoryID string                `json:"category_id"`
	Priority   domain.TicketPriority `json:"priority"`
}

// TicketUpdatedPayload lists the fields a patch changed.
type TicketUpdatedPayload struct {
	Ticket TicketRef `json:"ticket"`
	Fields []string  `json:"fields"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket          TicketRef           `json:"ticket"`
	OldStatus       domain.TicketStatus `json:"old_status"`
	NewStatus       domain.TicketStatus `json:"new_status"`
	ResolutionNotes *string             `json:"resolution_notes,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket          TicketRef             `json:"ticket"`
	AgentID         string                `json:"agent_id"`
	PreviousAgentID *string               `json:"previous_agent_id,omitempty"`
	Priority        domain.TicketPriority `json:"priority"`
	Automatic       bool                  `json:"automatic"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	Ticket      TicketRef   `json:"ticket"`
	CommentID   string      `json:"comment_id"`
	AuthorID    string      `json:"author_id"`
	AuthorRole  domain.Role `json:"author_role"`
	BodyPreview string      `json:"body_preview"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	Ticket          TicketRef `json:"ticket"`
	ClosedBy        string    `json:"closed_by"`
	ResolutionNotes *string   `json:"resolution_notes,omitempty"`
	EndDate         time.Time `json:"end_date"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Ticket TicketRef `json:"ticket"`
}
