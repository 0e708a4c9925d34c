package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/service"
)

// NotificationsHandler serves the caller's notification center.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /api/notifications?unread=true&limit=50.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	items, err := h.notifications.List(c.UserContext(), principal.User.ID, parseBool(c.Query("unread")), parseInt(c.Query("limit"), 50))
	if err != nil {
		return err
	}
	views := make([]service.NotificationView, 0, len(items))
	for _, n := range items {
		views = append(views, service.ViewOf(n))
	}
	return c.JSON(fiber.Map{"data": views})
}

// MarkRead PUT /api/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), principal.User.ID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead PUT /api/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.MarkAllRead(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": count}})
}
