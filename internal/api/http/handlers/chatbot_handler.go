package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

// ChatbotHandler exposes the keyword chatbot.
type ChatbotHandler struct {
	chatbot  *service.ChatbotService
	validate *validation.Validator
}

// NewChatbotHandler constructs handler.
func NewChatbotHandler(chatbot *service.ChatbotService, v *validation.Validator) *ChatbotHandler {
	return &ChatbotHandler{chatbot: chatbot, validate: v}
}

// DetectCategory POST /api/chatbot/detect-category. data is null when no
// category matched.
func (h *ChatbotHandler) DetectCategory(c *fiber.Ctx) error {
	var req dto.DetectCategoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	cat, err := h.chatbot.DetectCategory(c.UserContext(), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryOrNil(cat)})
}

// Respond POST /api/chatbot/response.
func (h *ChatbotHandler) Respond(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	reply, err := h.chatbot.GetChatResponse(c.UserContext(), req.Category, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": chatReply(reply)})
}

// AutoChat POST /api/chatbot/auto.
func (h *ChatbotHandler) AutoChat(c *fiber.Ctx) error {
	var req dto.DetectCategoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	reply, err := h.chatbot.AutoChat(c.UserContext(), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": chatReply(reply)})
}

func chatReply(r *service.ChatReply) dto.ChatReplyResponse {
	matched := r.MatchedKeywords
	if matched == nil {
		matched = []string{}
	}
	return dto.ChatReplyResponse{
		Reply:           r.Reply,
		Category:        categoryOrNil(r.Category),
		MatchedKeywords: matched,
		Generated:       r.Generated,
	}
}

func categoryOrNil(cat *domain.Category) *dto.CategoryResponse {
	if cat == nil {
		return nil
	}
	resp := dto.NewCategoryResponse(cat)
	return &resp
}

func categoryList(cats []domain.Category) []dto.CategoryResponse {
	items := make([]dto.CategoryResponse, 0, len(cats))
	for i := range cats {
		items = append(items, dto.NewCategoryResponse(&cats[i]))
	}
	return items
}
