package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// RequestType classifies the nature of a ticket.
type RequestType string

const (
	RequestTypeIncident RequestType = "Incident"
	RequestTypeDemande  RequestType = "Demande"
	RequestTypeProbleme RequestType = "Problème"
)

// Valid reports whether r is a known request type.
func (r RequestType) Valid() bool {
	switch r {
	case RequestTypeIncident, RequestTypeDemande, RequestTypeProbleme:
		return true
	}
	return false
}

// Satisfaction is the client rating recorded on a ticket.
type Satisfaction string

const (
	SatisfactionVerySatisfied    Satisfaction = "Très satisfait"
	SatisfactionSatisfied        Satisfaction = "Satisfait"
	SatisfactionNeutral          Satisfaction = "Neutre"
	SatisfactionDissatisfied     Satisfaction = "Insatisfait"
	SatisfactionVeryDissatisfied Satisfaction = "Très insatisfait"
)

// Valid reports whether s is a known rating.
func (s Satisfaction) Valid() bool {
	switch s {
	case SatisfactionVerySatisfied, SatisfactionSatisfied, SatisfactionNeutral,
		SatisfactionDissatisfied, SatisfactionVeryDissatisfied:
		return true
	}
	return false
}

// ClientDetails identifies the person to contact about a ticket.
type ClientDetails struct {
	Name  string
	Email string
}

// TicketMetadata holds classification and effort tracking.
type TicketMetadata struct {
	CategoryID  string
	RequestType RequestType
	DueDate     *time.Time
	TimeSpent   int
}

// Ticket is the aggregate root for comments and files.
type Ticket struct {
	ID              string
	TicketNumber    string
	Title           string
	Description     string
	Client          ClientDetails
	DepartmentID    string
	Metadata        TicketMetadata
	Status          TicketStatus
	Priority        TicketPriority
	RequesterID     string
	AssignedAgentID *string
	CreatedBy       string
	CreatedByRole   Role
	ClosedBy        *string
	ResolutionNotes *string
	Satisfaction    *Satisfaction
	Comments        []Comment
	Files           []TicketFile
	StartDate       time.Time
	EndDate         *time.Time
	UpdatedAt       time.Time
}

// IsAssignedTo reports whether userID is the assigned agent.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedAgentID != nil && *t.AssignedAgentID == userID
}

// FindComment returns the comment with id, or nil.
func (t *Ticket) FindComment(id string) *Comment {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			return &t.Comments[i]
		}
	}
	return nil
}
