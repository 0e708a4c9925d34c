package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

// AvailabilityHandler manages weekly availability schedules.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
	validate     *validation.Validator
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(availability *service.AvailabilityService, v *validation.Validator) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, validate: v}
}

// Mine GET /api/availability.
func (h *AvailabilityHandler) Mine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return h.list(c, principal.Actor().ID)
}

// ForUser GET /api/users/:id/availability.
func (h *AvailabilityHandler) ForUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return h.list(c, id)
}

func (h *AvailabilityHandler) list(c *fiber.Ctx, userID string) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	slots, err := h.availability.List(c.UserContext(), principal.Actor(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSlotResponses(slots)})
}

// Replace PUT /api/availability.
func (h *AvailabilityHandler) Replace(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReplaceAvailabilityRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	inputs := make([]service.SlotInput, 0, len(req.Slots))
	for _, s := range req.Slots {
		inputs = append(inputs, service.SlotInput(s))
	}
	slots, err := h.availability.Replace(c.UserContext(), principal.Actor(), inputs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSlotResponses(slots)})
}

// AddSlot POST /api/availability/slots.
func (h *AvailabilityHandler) AddSlot(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SlotRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	slot, err := h.availability.AddSlot(c.UserContext(), principal.Actor(), service.SlotInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSlotResponse(slot)})
}

// RemoveSlot DELETE /api/availability/slots/:id.
func (h *AvailabilityHandler) RemoveSlot(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.availability.RemoveSlot(c.UserContext(), principal.Actor(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
