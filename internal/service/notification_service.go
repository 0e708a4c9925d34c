package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/platform/mail"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// Pusher delivers real-time payloads to the connections of a user.
type Pusher interface {
	Push(userID string, payload any) int
}

// RealtimeMessage is the frame pushed over websockets.
type RealtimeMessage struct {
	Kind         string            `json:"kind"`
	Notification *NotificationView `json:"notification,omitempty"`
	Event        *events.Event     `json:"event,omitempty"`
}

// NotificationView is the client-facing shape of a notification.
type NotificationView struct {
	ID        string                  `json:"id"`
	TicketID  *string                 `json:"ticket_id,omitempty"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt string                  `json:"created_at"`
}

// ViewOf converts a stored notification.
func ViewOf(n domain.Notification) NotificationView {
	return NotificationView{
		ID:        n.ID,
		TicketID:  n.TicketID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NotificationService turns ticket events into stored notifications,
// websocket pushes and emails. Delivery failures are logged, never returned
// to the operation that raised the event.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	users         repository.UserRepository
	pusher        Pusher
	mailer        mail.Sender
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Pusher           Pusher
	Mailer           mail.Sender
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		pusher:        deps.Pusher,
		mailer:        deps.Mailer,
		logger:        logger,
		cfg:           deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// handleTicketStatusChanged notifies the requester and the assigned agent and
// emails the client once the ticket is resolved.
func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	title := fmt.Sprintf("Ticket %s mis à jour", payload.Ticket.TicketNumber)
	message := fmt.Sprintf("Statut changé à %s", payload.NewStatus)

	recipients := []string{payload.Ticket.RequesterID}
	if agent := payload.Ticket.AssignedAgentID; agent != nil && *agent != payload.Ticket.RequesterID {
		recipients = append(recipients, *agent)
	}
	for _, userID := range recipients {
		n.notify(ctx, userID, event.TicketID, title, message, domain.NotificationStatusChange)
	}

	if payload.NewStatus == domain.TicketStatusResolved && payload.Ticket.ClientEmail != "" {
		notes := ""
		if payload.ResolutionNotes != nil {
			notes = *payload.ResolutionNotes
		}
		msg, err := mail.ResolvedEmail(payload.Ticket.ClientEmail, mail.ResolvedData{
			ClientName:   payload.Ticket.ClientName,
			TicketNumber: payload.Ticket.TicketNumber,
			Title:        payload.Ticket.Title,
			Notes:        notes,
		})
		n.sendMail(ctx, event, msg, err)
	}
	return nil
}

// handleTicketAssigned notifies and emails the new agent.
func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.notify(ctx, payload.AgentID, event.TicketID,
		mail.SubjectAssignment,
		fmt.Sprintf("Le ticket %s vous a été assigné", payload.Ticket.TicketNumber),
		domain.NotificationAssignment)

	agent, err := n.users.GetByID(ctx, payload.AgentID)
	if err != nil {
		n.logger.Warn("assignment email skipped", zap.String("agent_id", payload.AgentID), zap.Error(err))
		return nil
	}
	msg, err := mail.AssignmentEmail(agent.Email, mail.AssignmentData{
		AgentName:    agent.Name,
		TicketNumber: payload.Ticket.TicketNumber,
		Title:        payload.Ticket.Title,
		Priority:     string(payload.Priority),
	})
	n.sendMail(ctx, event, msg, err)
	return nil
}

// handleTicketCommentAdded pushes the comment to the other participants
// without persisting a notification.
func (n *NotificationService) handleTicketCommentAdded(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	targets := []string{payload.Ticket.RequesterID}
	if agent := payload.Ticket.AssignedAgentID; agent != nil {
		targets = append(targets, *agent)
	}
	for _, userID := range targets {
		if userID == payload.AuthorID {
			continue
		}
		n.push(userID, RealtimeMessage{Kind: "ticket_event", Event: &event})
	}
	return nil
}

func (n *NotificationService) notify(ctx context.Context, userID, ticketID, title, message string, kind domain.NotificationType) {
	if userID == "" {
		return
	}
	notification := &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if ticketID != "" {
		notification.TicketID = &ticketID
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Warn("notification not stored",
			zap.String("user_id", userID),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
		return
	}
	view := ViewOf(*notification)
	n.push(userID, RealtimeMessage{Kind: "notification", Notification: &view})
}

func (n *NotificationService) push(userID string, msg RealtimeMessage) {
	if n.pusher == nil || !n.cfg.RealtimeEnabled {
		return
	}
	n.pusher.Push(userID, msg)
}

func (n *NotificationService) sendMail(ctx context.Context, event events.Event, msg mail.Message, renderErr error) {
	if n.mailer == nil {
		return
	}
	if renderErr != nil {
		n.logger.Error("email rendering failed", zap.String("event_type", string(event.Type)), zap.Error(renderErr))
		return
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.Warn("email delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.String("to", msg.To),
			zap.Error(err))
	}
}

// List returns the newest notifications of userID.
func (n *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead flags one notification owned by userID.
func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := n.notifications.MarkRead(ctx, notificationID, userID)
	return apperrors.NotFoundOr(err, "notification", map[string]any{"notification_id": notificationID})
}

// MarkAllRead flags every unread notification of userID.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := n.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}
