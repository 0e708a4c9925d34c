package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// AssignmentService picks agents for tickets and keeps their load counters.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	TxManager  repository.TxManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ValidateAgent resolves agentID and checks it is an agent of departmentID.
// Every failure is a validation error: the id is caller input.
func (s *AssignmentService) ValidateAgent(ctx context.Context, agentID, departmentID string) (*domain.User, error) {
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("agent not found", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewValidationError("user is not an agent", map[string]any{"agent_id": agentID})
	}
	if !agent.IsAgentOf(departmentID) {
		return nil, apperrors.NewValidationError("agent belongs to another department", map[string]any{
			"agent_id":      agentID,
			"department_id": departmentID,
		})
	}
	return agent, nil
}

// Claim assigns an agent to a ticket being created and increments its load.
// A validated requested agent is used as is; otherwise the least loaded agent
// of the department is claimed atomically. Returns nil when the department
// has no agent. Must run inside the creating transaction.
func (s *AssignmentService) Claim(ctx context.Context, departmentID string, requested *domain.User) (*domain.User, error) {
	if requested != nil {
		if err := s.users.IncrementTicketCount(ctx, requested.ID); err != nil {
			return nil, apperrors.NotFoundOr(err, "agent", map[string]any{"agent_id": requested.ID})
		}
		requested.TicketCount++
		return requested, nil
	}
	agent, err := s.users.ClaimLeastLoadedAgent(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// AssignAgent reassigns an existing ticket. Reassigning the current agent is
// a no-op; otherwise the new agent's counter is incremented and the ticket
// moves to in_progress.
func (s *AssignmentService) AssignAgent(ctx context.Context, actor domain.Actor, ticketID, agentID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if err := auth.Authorize(auth.OpAssignAgent, actor, ticket); err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("ticket is closed", map[string]any{"ticket_id": ticketID})
	}
	agent, err := s.ValidateAgent(ctx, agentID, ticket.DepartmentID)
	if err != nil {
		return nil, err
	}
	if ticket.IsAssignedTo(agent.ID) {
		return ticket, nil
	}

	previous := ticket.AssignedAgentID
	oldStatus := ticket.Status
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.IncrementTicketCount(ctx, agent.ID); err != nil {
			return err
		}
		ticket.AssignedAgentID = &agent.ID
		ticket.Status = domain.TicketStatusInProgress
		return s.tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
		Ticket:          events.RefOf(ticket),
		AgentID:         agent.ID,
		PreviousAgentID: previous,
		Priority:        ticket.Priority,
	}))
	if oldStatus != ticket.Status {
		s.publish(ctx, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor, events.TicketStatusChangedPayload{
			Ticket:    events.RefOf(ticket),
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		}))
	}
	return ticket, nil
}

// ListAgents returns the agents of a department, least loaded first.
func (s *AssignmentService) ListAgents(ctx context.Context, departmentID string) ([]domain.User, error) {
	role := domain.RoleAgent
	agents, err := s.users.List(ctx, repository.UserFilter{Role: &role, DepartmentID: &departmentID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}
