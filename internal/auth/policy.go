package auth

import (
	"net/http"

	"github.com/deskflow/helpdesk/internal/domain"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// Operation names a guarded ticket action.
type Operation string

const (
	OpViewTicket    Operation = "view_ticket"
	OpUpdateTicket  Operation = "update_ticket"
	OpAssignAgent   Operation = "assign_agent"
	OpCloseTicket   Operation = "close_ticket"
	OpDeleteTicket  Operation = "delete_ticket"
	OpAddComment    Operation = "add_comment"
	OpEditComment   Operation = "edit_comment"
	OpDeleteComment Operation = "delete_comment"
)

// relation is how an actor stands to a ticket.
type relation int

const (
	relOther relation = iota
	relAdmin
	relAssignedAgent
	relRequester
)

// matrix lists the relations allowed to perform each ticket operation.
var matrix = map[Operation][]relation{
	OpUpdateTicket: {relAdmin, relAssignedAgent, relRequester},
	OpAssignAgent:  {relAdmin},
	OpCloseTicket:  {relAdmin, relAssignedAgent},
	OpDeleteTicket: {relAdmin, relRequester},
	OpAddComment:   {relAdmin, relAssignedAgent, relRequester},
}

func relationOf(actor domain.Actor, ticket *domain.Ticket) []relation {
	var rels []relation
	if actor.Role == domain.RoleAdmin {
		rels = append(rels, relAdmin)
	}
	if actor.Role == domain.RoleAgent && ticket.IsAssignedTo(actor.ID) {
		rels = append(rels, relAssignedAgent)
	}
	if ticket.RequesterID == actor.ID {
		rels = append(rels, relRequester)
	}
	if len(rels) == 0 {
		rels = append(rels, relOther)
	}
	return rels
}

// Allowed reports whether actor may perform op on ticket. Comment operations
// go through AuthorizeComment.
func Allowed(op Operation, actor domain.Actor, ticket *domain.Ticket) bool {
	allowed := matrix[op]
	for _, rel := range relationOf(actor, ticket) {
		for _, a := range allowed {
			if rel == a {
				return true
			}
		}
	}
	return false
}

// Authorize returns a Forbidden error when actor may not perform op on ticket.
func Authorize(op Operation, actor domain.Actor, ticket *domain.Ticket) error {
	if Allowed(op, actor, ticket) {
		return nil
	}
	return forbidden(op)
}

// AuthorizeComment applies the comment edit rules: admins edit any comment,
// the assigned agent edits its own and any client-authored comment, everyone
// else edits only their own comment on a ticket they may comment on.
func AuthorizeComment(op Operation, actor domain.Actor, ticket *domain.Ticket, comment *domain.Comment) error {
	if op != OpEditComment && op != OpDeleteComment {
		return Authorize(op, actor, ticket)
	}
	switch {
	case actor.Role == domain.RoleAdmin:
		return nil
	case actor.Role == domain.RoleAgent && ticket.IsAssignedTo(actor.ID):
		if comment.AuthorID == actor.ID || comment.AuthorRole == domain.RoleClient {
			return nil
		}
	case ticket.RequesterID == actor.ID:
		if comment.AuthorID == actor.ID {
			return nil
		}
	}
	return forbidden(op)
}

// CanView reports whether user may read ticket. Agents also see every ticket
// of their own department.
func CanView(user *domain.User, ticket *domain.Ticket) bool {
	if user == nil {
		return false
	}
	if Allowed(OpUpdateTicket, user.Actor(), ticket) {
		return true
	}
	return user.IsAgentOf(ticket.DepartmentID)
}

// AuthorizeView returns a Forbidden error when CanView is false.
func AuthorizeView(user *domain.User, ticket *domain.Ticket) error {
	if CanView(user, ticket) {
		return nil
	}
	return forbidden(OpViewTicket)
}

func forbidden(op Operation) error {
	return apperrors.NewDomainError(apperrors.CodeForbidden, "operation not permitted", http.StatusForbidden,
		map[string]any{"operation": string(op)})
}
