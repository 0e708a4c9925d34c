package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

// TicketsHandler manages ticket endpoints for every role.
type TicketsHandler struct {
	tickets    *service.TicketService
	assignment *service.AssignmentService
	validate   *validation.Validator
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignment *service.AssignmentService, v *validation.Validator) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignment: assignment, validate: v}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		DepartmentID: req.DepartmentID,
		CategoryID:   req.CategoryID,
		RequestType:  req.RequestType,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		TimeSpent:    req.TimeSpent,
		AgentID:      req.AgentID,
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), principal.Actor(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.view(c, ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), principal.User, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i], nil))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.view(c, ticket)})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := service.TicketPatch{
		Title:           req.Title,
		Description:     req.Description,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		DepartmentID:    req.DepartmentID,
		CategoryID:      req.CategoryID,
		RequestType:     req.RequestType,
		DueDate:         req.DueDate,
		TimeSpent:       req.TimeSpent,
		Status:          req.Status,
		Priority:        req.Priority,
		ResolutionNotes: req.ResolutionNotes,
		Satisfaction:    req.Satisfaction,
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), principal.Actor(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.view(c, ticket)})
}

// AssignAgent PUT /api/tickets/:id/assign.
func (h *TicketsHandler) AssignAgent(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignAgentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.assignment.AssignAgent(c.UserContext(), principal.Actor(), id, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.view(c, ticket)})
}

// CloseTicket PUT /api/tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CloseTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.CloseTicket(c.UserContext(), principal.Actor(), id, service.CloseInput{
		ResolutionNotes: req.ResolutionNotes,
		Satisfaction:    req.Satisfaction,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.view(c, ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), principal.Actor(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	comment, err := h.tickets.AddComment(c.UserContext(), principal.Actor(), id, req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// UpdateComment PATCH /api/tickets/:id/comments/:cid.
func (h *TicketsHandler) UpdateComment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cid, err := pathID(c, "cid")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	comment, err := h.tickets.UpdateComment(c.UserContext(), principal.Actor(), id, cid, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// DeleteComment DELETE /api/tickets/:id/comments/:cid.
func (h *TicketsHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cid, err := pathID(c, "cid")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteComment(c.UserContext(), principal.Actor(), id, cid); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UploadFile POST /api/tickets/:id/files (multipart field "file").
func (h *TicketsHandler) UploadFile(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", map[string]any{"file": "is required"})
	}
	body, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer body.Close()

	file, err := h.tickets.AddAttachment(c.UserContext(), principal.Actor(), id, service.AttachmentInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        body,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFileResponse(file, "")})
}

func (h *TicketsHandler) view(c *fiber.Ctx, ticket *domain.Ticket) dto.TicketResponse {
	return dto.NewTicketResponse(ticket, h.tickets.FileURLs(c.UserContext(), ticket))
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	for _, part := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	if dept := c.Query("department_id"); dept != "" {
		filter.DepartmentID = &dept
	}
	if requester := c.Query("requester_id"); requester != "" {
		filter.RequesterID = &requester
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
