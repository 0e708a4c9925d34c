package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/platform/storage"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

// Field limits shared with the request validators.
const (
	MaxTitleLength       = 100
	MinDescriptionLength = 6
	MaxCommentLength     = 5000
	MaxAttachmentBytes   = 10 << 20
)

// fieldRules checks single values that bypass the request DTOs.
var fieldRules = validation.New()

var allowedAttachmentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	assignment  *AssignmentService
	tx          repository.TxManager
	dispatcher  events.Dispatcher
	objects     storage.ObjectStore
	urlExpiry   time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	CategoryRepo   repository.CategoryRepository
	Assignment     *AssignmentService
	TxManager      repository.TxManager
	Dispatcher     events.Dispatcher
	ObjectStore    storage.ObjectStore
	URLExpiry      time.Duration
	Logger         *zap.Logger
	Clock          func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	ClientName   string
	ClientEmail  string
	DepartmentID string
	CategoryID   string
	RequestType  domain.RequestType
	Priority     domain.TicketPriority
	DueDate      *time.Time
	TimeSpent    int
	// AgentID requests a specific agent. Admin only.
	AgentID *string
}

// TicketPatch is a partial update. Absent fields are untouched, explicit
// nulls clear optional fields.
type TicketPatch struct {
	Title           domain.Optional[string]
	Description     domain.Optional[string]
	ClientName      domain.Optional[string]
	ClientEmail     domain.Optional[string]
	DepartmentID    domain.Optional[string]
	CategoryID      domain.Optional[string]
	RequestType     domain.Optional[domain.RequestType]
	DueDate         domain.Optional[time.Time]
	TimeSpent       domain.Optional[int]
	Status          domain.Optional[domain.TicketStatus]
	Priority        domain.Optional[domain.TicketPriority]
	ResolutionNotes domain.Optional[string]
	Satisfaction    domain.Optional[domain.Satisfaction]
}

// CloseInput carries the optional closing details.
type CloseInput struct {
	ResolutionNotes *string
	Satisfaction    *domain.Satisfaction
}

// TicketListFilter describes listing filters. Role scoping is applied on top.
type TicketListFilter struct {
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	DepartmentID *string
	RequesterID  *string
	SearchTerm   *string
	Limit        int
	Offset       int
}

// AttachmentInput is an uploaded file.
type AttachmentInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	expiry := deps.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		categories:  deps.CategoryRepo,
		assignment:  deps.Assignment,
		tx:          deps.TxManager,
		dispatcher:  deps.Dispatcher,
		objects:     deps.ObjectStore,
		urlExpiry:   expiry,
		logger:      logger,
		now:         clock,
	}
}

// CreateTicket validates references, assigns an agent and persists the ticket
// in status new.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if input.AgentID != nil && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may choose the agent")
	}
	if err := validateContent(input.Title, input.Description); err != nil {
		return nil, err
	}
	if input.TimeSpent < 0 {
		return nil, apperrors.NewValidationError("timeSpent must not be negative", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if input.RequestType == "" {
		input.RequestType = domain.RequestTypeIncident
	}
	if !input.Priority.Valid() || !input.RequestType.Valid() {
		return nil, apperrors.NewValidationError("invalid priority or request type", map[string]any{
			"priority":     input.Priority,
			"request_type": input.RequestType,
		})
	}

	category, err := s.requireCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	departmentID := strings.TrimSpace(input.DepartmentID)
	if departmentID == "" && category.DepartmentID != nil {
		departmentID = *category.DepartmentID
	}
	if err := s.requireDepartment(ctx, departmentID); err != nil {
		return nil, err
	}

	var requested *domain.User
	if input.AgentID != nil {
		if requested, err = s.assignment.ValidateAgent(ctx, *input.AgentID, departmentID); err != nil {
			return nil, err
		}
	}

	client, err := s.clientDetails(ctx, actor, input.ClientName, input.ClientEmail)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		TicketNumber: generateTicketNumber(),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Client:       client,
		DepartmentID: departmentID,
		Metadata: domain.TicketMetadata{
			CategoryID:  category.ID,
			RequestType: input.RequestType,
			DueDate:     input.DueDate,
			TimeSpent:   input.TimeSpent,
		},
		Status:        domain.TicketStatusNew,
		Priority:      input.Priority,
		RequesterID:   actor.ID,
		CreatedBy:     actor.ID,
		CreatedByRole: actor.Role,
		StartDate:     s.now().UTC(),
	}

	var agent *domain.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if agent, err = s.assignment.Claim(ctx, departmentID, requested); err != nil {
			return err
		}
		if agent != nil {
			ticket.AssignedAgentID = &agent.ID
		}
		return s.tickets.Create(ctx, ticket)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketCreated, ticket.ID, actor, events.TicketCreatedPayload{
		Ticket:     events.RefOf(ticket),
		CategoryID: category.ID,
		Priority:   ticket.Priority,
	}))
	if agent != nil {
		publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
			Ticket:    events.RefOf(ticket),
			AgentID:   agent.ID,
			Priority:  ticket.Priority,
			Automatic: requested == nil,
		}))
	}
	return ticket, nil
}

// GetTicket returns a ticket visible to viewer.
func (s *TicketService) GetTicket(ctx context.Context, viewer *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeView(viewer, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets applies role scoping: clients see their own tickets, agents
// those assigned to them or in their department, admins everything.
func (s *TicketService) ListTickets(ctx context.Context, viewer *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		RequesterID:  filter.RequesterID,
		DepartmentID: filter.DepartmentID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	switch viewer.Role {
	case domain.RoleAdmin:
	case domain.RoleAgent:
		repoFilter.AgentScope = &repository.AgentScope{AgentID: viewer.ID, DepartmentID: viewer.DepartmentID}
	default:
		repoFilter.RequesterID = &viewer.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateTicket applies patch. The status graph is permissive: any authorized
// actor may set any status, except that closing also requires close rights.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(auth.OpUpdateTicket, actor, ticket); err != nil {
		return nil, err
	}
	if patch.Status.HasValue() && patch.Status.Value == domain.TicketStatusClosed && ticket.Status != domain.TicketStatusClosed {
		if err := auth.Authorize(auth.OpCloseTicket, actor, ticket); err != nil {
			return nil, err
		}
	}

	oldStatus := ticket.Status
	oldDepartment := ticket.DepartmentID
	previousAgent := ticket.AssignedAgentID
	changed, err := s.applyPatch(ctx, ticket, patch)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return ticket, nil
	}
	if ticket.Status != oldStatus {
		if err := s.stampStatus(ticket, oldStatus, actor); err != nil {
			return nil, err
		}
	}

	var rehomed, claimed bool
	var newAgent *domain.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if ticket.DepartmentID != oldDepartment {
			var err error
			if newAgent, rehomed, err = s.rehome(ctx, ticket); err != nil {
				return err
			}
			claimed = newAgent != nil
		}
		return s.tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if rehomed {
		changed = append(changed, "assigned_agent_id")
	}

	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketUpdated, ticket.ID, actor, events.TicketUpdatedPayload{
		Ticket: events.RefOf(ticket),
		Fields: changed,
	}))
	if claimed {
		publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
			Ticket:          events.RefOf(ticket),
			AgentID:         newAgent.ID,
			PreviousAgentID: previousAgent,
			Priority:        ticket.Priority,
		}))
	}
	if ticket.Status != oldStatus {
		publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor, events.TicketStatusChangedPayload{
			Ticket:          events.RefOf(ticket),
			OldStatus:       oldStatus,
			NewStatus:       ticket.Status,
			ResolutionNotes: ticket.ResolutionNotes,
		}))
	}
	return ticket, nil
}

// rehome keeps the assigned agent inside the ticket's department after a
// department change. An agent of the new department stays; otherwise the
// least loaded agent there is claimed, or the ticket is left unassigned.
// Must run inside the updating transaction.
func (s *TicketService) rehome(ctx context.Context, ticket *domain.Ticket) (*domain.User, bool, error) {
	if ticket.AssignedAgentID != nil {
		current, err := s.users.GetByID(ctx, *ticket.AssignedAgentID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, apperrors.MapError(err)
		}
		if err == nil && current.IsAgentOf(ticket.DepartmentID) {
			return nil, false, nil
		}
	}
	agent, err := s.assignment.Claim(ctx, ticket.DepartmentID, nil)
	if err != nil {
		return nil, false, err
	}
	hadAgent := ticket.AssignedAgentID != nil
	if agent == nil {
		ticket.AssignedAgentID = nil
		return nil, hadAgent, nil
	}
	ticket.AssignedAgentID = &agent.ID
	return agent, true, nil
}

// stampStatus keeps closing metadata consistent with the status.
func (s *TicketService) stampStatus(ticket *domain.Ticket, oldStatus domain.TicketStatus, actor domain.Actor) error {
	switch {
	case ticket.Status == domain.TicketStatusClosed:
		return s.markClosed(ticket, actor)
	case oldStatus == domain.TicketStatusClosed:
		ticket.EndDate = nil
		ticket.ClosedBy = nil
	}
	return nil
}

func (s *TicketService) markClosed(ticket *domain.Ticket, actor domain.Actor) error {
	end := s.now().UTC()
	if end.Before(ticket.StartDate) {
		return apperrors.NewValidationError("end date precedes start date", map[string]any{
			"start_date": ticket.StartDate,
			"end_date":   end,
		})
	}
	closedBy := actor.ID
	ticket.Status = domain.TicketStatusClosed
	ticket.EndDate = &end
	ticket.ClosedBy = &closedBy
	return nil
}

func (s *TicketService) applyPatch(ctx context.Context, t *domain.Ticket, p TicketPatch) ([]string, error) {
	var changed []string
	mark := func(field string) { changed = append(changed, field) }

	if p.Title.Set {
		if !p.Title.HasValue() {
			return nil, requiredField("title")
		}
		title := strings.TrimSpace(p.Title.Value)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		if title != t.Title {
			t.Title = title
			mark("title")
		}
	}
	if p.Description.Set {
		if !p.Description.HasValue() {
			return nil, requiredField("description")
		}
		desc := strings.TrimSpace(p.Description.Value)
		if err := validateDescription(desc); err != nil {
			return nil, err
		}
		if desc != t.Description {
			t.Description = desc
			mark("description")
		}
	}
	if p.ClientName.Set {
		name := strings.TrimSpace(p.ClientName.Value)
		if name != t.Client.Name {
			t.Client.Name = name
			mark("client_name")
		}
	}
	if p.ClientEmail.Set {
		email := strings.ToLower(strings.TrimSpace(p.ClientEmail.Value))
		if err := validateEmail("client_email", email); err != nil {
			return nil, err
		}
		if email != t.Client.Email {
			t.Client.Email = email
			mark("client_email")
		}
	}
	if p.DepartmentID.Set {
		if !p.DepartmentID.HasValue() {
			return nil, requiredField("department_id")
		}
		if p.DepartmentID.Value != t.DepartmentID {
			if err := s.requireDepartment(ctx, p.DepartmentID.Value); err != nil {
				return nil, err
			}
			t.DepartmentID = p.DepartmentID.Value
			mark("department_id")
		}
	}
	if p.CategoryID.Set {
		if !p.CategoryID.HasValue() {
			return nil, requiredField("category_id")
		}
		if p.CategoryID.Value != t.Metadata.CategoryID {
			if _, err := s.requireCategory(ctx, p.CategoryID.Value); err != nil {
				return nil, err
			}
			t.Metadata.CategoryID = p.CategoryID.Value
			mark("category_id")
		}
	}
	if p.RequestType.Set {
		if !p.RequestType.HasValue() || !p.RequestType.Value.Valid() {
			return nil, invalidEnum("request_type", p.RequestType.Value)
		}
		if p.RequestType.Value != t.Metadata.RequestType {
			t.Metadata.RequestType = p.RequestType.Value
			mark("request_type")
		}
	}
	if p.DueDate.Set {
		if p.DueDate.Null {
			if t.Metadata.DueDate != nil {
				t.Metadata.DueDate = nil
				mark("due_date")
			}
		} else {
			due := p.DueDate.Value
			t.Metadata.DueDate = &due
			mark("due_date")
		}
	}
	if p.TimeSpent.Set {
		spent := 0
		if p.TimeSpent.HasValue() {
			spent = p.TimeSpent.Value
		}
		if spent < 0 {
			return nil, apperrors.NewValidationError("timeSpent must not be negative", map[string]any{"time_spent": spent})
		}
		if spent != t.Metadata.TimeSpent {
			t.Metadata.TimeSpent = spent
			mark("time_spent")
		}
	}
	if p.Priority.Set {
		if !p.Priority.HasValue() || !p.Priority.Value.Valid() {
			return nil, invalidEnum("priority", p.Priority.Value)
		}
		if p.Priority.Value != t.Priority {
			t.Priority = p.Priority.Value
			mark("priority")
		}
	}
	if p.Status.Set {
		if !p.Status.HasValue() || !p.Status.Value.Valid() {
			return nil, invalidEnum("status", p.Status.Value)
		}
		if p.Status.Value != t.Status {
			t.Status = p.Status.Value
			mark("status")
		}
	}
	if p.ResolutionNotes.Set {
		if p.ResolutionNotes.Null {
			t.ResolutionNotes = nil
		} else {
			notes := strings.TrimSpace(p.ResolutionNotes.Value)
			t.ResolutionNotes = &notes
		}
		mark("resolution_notes")
	}
	if p.Satisfaction.Set {
		if p.Satisfaction.Null {
			t.Satisfaction = nil
		} else {
			if !p.Satisfaction.Value.Valid() {
				return nil, invalidEnum("satisfaction", p.Satisfaction.Value)
			}
			sat := p.Satisfaction.Value
			t.Satisfaction = &sat
		}
		mark("satisfaction")
	}
	return changed, nil
}

// CloseTicket stamps endDate and closedBy.
func (s *TicketService) CloseTicket(ctx context.Context, actor domain.Actor, ticketID string, input CloseInput) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(auth.OpCloseTicket, actor, ticket); err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket already closed", map[string]any{"ticket_id": ticketID})
	}
	if input.Satisfaction != nil && !input.Satisfaction.Valid() {
		return nil, invalidEnum("satisfaction", *input.Satisfaction)
	}

	oldStatus := ticket.Status
	if err := s.markClosed(ticket, actor); err != nil {
		return nil, err
	}
	if input.ResolutionNotes != nil {
		notes := strings.TrimSpace(*input.ResolutionNotes)
		ticket.ResolutionNotes = &notes
	}
	if input.Satisfaction != nil {
		ticket.Satisfaction = input.Satisfaction
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketClosed, ticket.ID, actor, events.TicketClosedPayload{
		Ticket:          events.RefOf(ticket),
		ClosedBy:        actor.ID,
		ResolutionNotes: ticket.ResolutionNotes,
		EndDate:         *ticket.EndDate,
	}))
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor, events.TicketStatusChangedPayload{
		Ticket:          events.RefOf(ticket),
		OldStatus:       oldStatus,
		NewStatus:       ticket.Status,
		ResolutionNotes: ticket.ResolutionNotes,
	}))
	return ticket, nil
}

// DeleteTicket destroys a non-closed ticket with its comments and files.
func (s *TicketService) DeleteTicket(ctx context.Context, actor domain.Actor, ticketID string) error {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.OpDeleteTicket, actor, ticket); err != nil {
		return err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return apperrors.NewValidationError("closed tickets cannot be deleted", map[string]any{"ticket_id": ticketID})
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketDeleted, ticket.ID, actor, events.TicketDeletedPayload{
		Ticket: events.RefOf(ticket),
	}))
	return nil
}

// AddComment appends a comment to the ticket.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Actor, ticketID, text string) (*domain.Comment, error) {
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(auth.OpAddComment, actor, ticket); err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		TicketID:   ticket.ID,
		Text:       text,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketCommentAdded, ticket.ID, actor, events.TicketCommentAddedPayload{
		Ticket:      events.RefOf(ticket),
		CommentID:   comment.ID,
		AuthorID:    actor.ID,
		AuthorRole:  actor.Role,
		BodyPreview: stringPreview(text, 120),
	}))
	return comment, nil
}

// UpdateComment edits the text of a live comment.
func (s *TicketService) UpdateComment(ctx context.Context, actor domain.Actor, ticketID, commentID, text string) (*domain.Comment, error) {
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}
	_, comment, err := s.loadComment(ctx, actor, auth.OpEditComment, ticketID, commentID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	comment.Text = text
	comment.UpdatedAt = &now
	if err := s.tickets.UpdateComment(ctx, comment); err != nil {
		return nil, apperrors.NotFoundOr(err, "comment", map[string]any{"comment_id": commentID})
	}
	return comment, nil
}

// DeleteComment soft-deletes a comment.
func (s *TicketService) DeleteComment(ctx context.Context, actor domain.Actor, ticketID, commentID string) error {
	_, comment, err := s.loadComment(ctx, actor, auth.OpDeleteComment, ticketID, commentID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	comment.Deleted = true
	comment.DeletedAt = &now
	if err := s.tickets.UpdateComment(ctx, comment); err != nil {
		return apperrors.NotFoundOr(err, "comment", map[string]any{"comment_id": commentID})
	}
	return nil
}

func (s *TicketService) loadComment(ctx context.Context, actor domain.Actor, op auth.Operation, ticketID, commentID string) (*domain.Ticket, *domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if err := auth.Authorize(auth.OpAddComment, actor, ticket); err != nil {
		return nil, nil, err
	}
	found := ticket.FindComment(commentID)
	if found == nil || found.Deleted {
		return nil, nil, apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
	}
	comment := *found
	if err := auth.AuthorizeComment(op, actor, ticket, &comment); err != nil {
		return nil, nil, err
	}
	return ticket, &comment, nil
}

// AddAttachment uploads a file to object storage and records it on the ticket.
func (s *TicketService) AddAttachment(ctx context.Context, actor domain.Actor, ticketID string, file AttachmentInput) (*domain.TicketFile, error) {
	if s.objects == nil {
		return nil, apperrors.NewInternalError(errors.New("object storage not configured"))
	}
	ext, ok := allowedAttachmentTypes[strings.ToLower(file.ContentType)]
	if !ok {
		return nil, apperrors.NewValidationError("unsupported file type", map[string]any{
			"content_type": file.ContentType,
			"allowed":      "jpeg, jpg, png, pdf",
		})
	}
	if file.Size <= 0 || file.Size > MaxAttachmentBytes {
		return nil, apperrors.NewValidationError("file size must be between 1 byte and 10 MB", map[string]any{"size": file.Size})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(auth.OpAddComment, actor, ticket); err != nil {
		return nil, err
	}

	key := path.Join("tickets", ticket.ID, uuid.NewString()+ext)
	if err := s.objects.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	record := &domain.TicketFile{
		TicketID:     ticket.ID,
		Path:         key,
		OriginalName: path.Base(file.FileName),
		FileType:     strings.ToLower(file.ContentType),
		SizeBytes:    file.Size,
		UploadedBy:   actor.ID,
	}
	if err := s.tickets.AddFile(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// FileURLs presigns download links for the ticket files, keyed by file id.
// Files whose link cannot be generated are left out.
func (s *TicketService) FileURLs(ctx context.Context, ticket *domain.Ticket) map[string]string {
	urls := make(map[string]string, len(ticket.Files))
	if s.objects == nil {
		return urls
	}
	for _, f := range ticket.Files {
		u, err := s.objects.PresignedGetURL(ctx, f.Path, s.urlExpiry)
		if err != nil {
			s.logger.Warn("presign failed", zap.String("file_id", f.ID), zap.Error(err))
			continue
		}
		urls[f.ID] = u
	}
	return urls
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func (s *TicketService) requireCategory(ctx context.Context, id string) (*domain.Category, error) {
	if strings.TrimSpace(id) == "" {
		return nil, requiredField("category_id")
	}
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("category not found", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return cat, nil
}

func (s *TicketService) requireDepartment(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return requiredField("department_id")
	}
	if _, err := s.departments.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("department not found", map[string]any{"department_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// clientDetails defaults the contact to the requesting account.
func (s *TicketService) clientDetails(ctx context.Context, actor domain.Actor, name, email string) (domain.ClientDetails, error) {
	details := domain.ClientDetails{Name: strings.TrimSpace(name), Email: strings.ToLower(strings.TrimSpace(email))}
	if err := validateEmail("client_email", details.Email); err != nil {
		return details, err
	}
	if details.Name != "" && details.Email != "" {
		return details, nil
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return details, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": actor.ID})
	}
	if details.Name == "" {
		details.Name = user.Name
	}
	if details.Email == "" {
		details.Email = user.Email
	}
	return details, nil
}

func validateContent(title, description string) error {
	if err := validateTitle(strings.TrimSpace(title)); err != nil {
		return err
	}
	return validateDescription(strings.TrimSpace(description))
}

// validateEmail accepts an empty address, which means "no contact address".
func validateEmail(field, email string) error {
	if email == "" {
		return nil
	}
	return fieldRules.Var(field, email, "email")
}

func validateTitle(title string) error {
	if title == "" {
		return requiredField("title")
	}
	if len([]rune(title)) > MaxTitleLength {
		return apperrors.NewValidationError(fmt.Sprintf("title must be at most %d characters", MaxTitleLength), nil)
	}
	return nil
}

func validateDescription(desc string) error {
	if len([]rune(desc)) < MinDescriptionLength {
		return apperrors.NewValidationError(fmt.Sprintf("description must be at least %d characters", MinDescriptionLength), nil)
	}
	return nil
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", requiredField("text")
	}
	if len([]rune(text)) > MaxCommentLength {
		return "", apperrors.NewValidationError("comment too long", map[string]any{"max": MaxCommentLength})
	}
	return text, nil
}

func requiredField(field string) error {
	return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
}

func invalidEnum(field string, value any) error {
	return apperrors.NewValidationError("invalid "+field, map[string]any{"field": field, "value": value})
}

func generateTicketNumber() string {
	return "TCK-" + ulid.Make().String()
}
