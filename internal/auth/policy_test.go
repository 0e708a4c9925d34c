package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deskflow/helpdesk/internal/domain"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

func policyTicket() *domain.Ticket {
	agent := "agent-1"
	return &domain.Ticket{ID: "t1", RequesterID: "client-1", AssignedAgentID: &agent, DepartmentID: "it"}
}

var (
	admin         = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	assignedAgent = domain.Actor{ID: "agent-1", Role: domain.RoleAgent}
	otherAgent    = domain.Actor{ID: "agent-2", Role: domain.RoleAgent}
	requester     = domain.Actor{ID: "client-1", Role: domain.RoleClient}
	otherClient   = domain.Actor{ID: "client-2", Role: domain.RoleClient}
)

func TestAuthorizeMatrix(t *testing.T) {
	tests := []struct {
		op    Operation
		actor domain.Actor
		want  bool
	}{
		{OpUpdateTicket, admin, true},
		{OpUpdateTicket, assignedAgent, true},
		{OpUpdateTicket, requester, true},
		{OpUpdateTicket, otherClient, false},
		{OpUpdateTicket, otherAgent, false},
		{OpAssignAgent, admin, true},
		{OpAssignAgent, assignedAgent, false},
		{OpAssignAgent, requester, false},
		{OpCloseTicket, admin, true},
		{OpCloseTicket, assignedAgent, true},
		{OpCloseTicket, requester, false},
		{OpDeleteTicket, admin, true},
		{OpDeleteTicket, requester, true},
		{OpDeleteTicket, assignedAgent, false},
		{OpAddComment, assignedAgent, true},
		{OpAddComment, requester, true},
		{OpAddComment, otherClient, false},
	}
	ticket := policyTicket()
	for _, tc := range tests {
		t.Run(string(tc.op)+"/"+tc.actor.ID, func(t *testing.T) {
			err := Authorize(tc.op, tc.actor, ticket)
			if tc.want {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
		})
	}
}

func TestAuthorizeComment(t *testing.T) {
	ticket := policyTicket()
	byClient := &domain.Comment{AuthorID: "client-1", AuthorRole: domain.RoleClient}
	byAgent := &domain.Comment{AuthorID: "agent-1", AuthorRole: domain.RoleAgent}
	byAdmin := &domain.Comment{AuthorID: "admin-1", AuthorRole: domain.RoleAdmin}

	assert.NoError(t, AuthorizeComment(OpEditComment, admin, ticket, byClient))
	assert.NoError(t, AuthorizeComment(OpEditComment, assignedAgent, ticket, byAgent))
	assert.NoError(t, AuthorizeComment(OpDeleteComment, assignedAgent, ticket, byClient))
	assert.Error(t, AuthorizeComment(OpEditComment, assignedAgent, ticket, byAdmin))
	assert.NoError(t, AuthorizeComment(OpEditComment, requester, ticket, byClient))
	assert.Error(t, AuthorizeComment(OpDeleteComment, requester, ticket, byAgent))
	assert.Error(t, AuthorizeComment(OpEditComment, otherClient, ticket, byClient))
	assert.Error(t, AuthorizeComment(OpEditComment, otherAgent, ticket, byClient))
}

func TestCanView(t *testing.T) {
	ticket := policyTicket()
	it := "it"
	facilities := "facilities"
	deptAgent := &domain.User{ID: "agent-3", Role: domain.RoleAgent, DepartmentID: &it}
	foreignAgent := &domain.User{ID: "agent-4", Role: domain.RoleAgent, DepartmentID: &facilities}

	assert.True(t, CanView(&domain.User{ID: "client-1", Role: domain.RoleClient}, ticket))
	assert.True(t, CanView(deptAgent, ticket))
	assert.False(t, CanView(foreignAgent, ticket))
	assert.False(t, CanView(&domain.User{ID: "client-2", Role: domain.RoleClient}, ticket))
	assert.False(t, CanView(nil, ticket))
	assert.Error(t, AuthorizeView(foreignAgent, ticket))
}
