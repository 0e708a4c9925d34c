package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/chatbot"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// MaxChatMessageLength bounds chatbot input.
const MaxChatMessageLength = 2000

// ChatReply is returned by the chatbot endpoints.
type ChatReply struct {
	Reply           string
	Category        *domain.Category
	MatchedKeywords []string
	// Generated is true when the reply came from the generative provider.
	Generated bool
}

// ChatbotService answers chat messages from the category catalogue.
type ChatbotService struct {
	categories repository.CategoryRepository
	solutions  repository.SolutionRepository
	generator  chatbot.Generator
	logger     *zap.Logger
}

// ChatbotDependencies bundles collaborators for the chatbot.
type ChatbotDependencies struct {
	CategoryRepo repository.CategoryRepository
	SolutionRepo repository.SolutionRepository
	// Generator is optional; nil disables escalation.
	Generator chatbot.Generator
	Logger    *zap.Logger
}

// NewChatbotService constructs the service.
func NewChatbotService(deps ChatbotDependencies) *ChatbotService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatbotService{
		categories: deps.CategoryRepo,
		solutions:  deps.SolutionRepo,
		generator:  deps.Generator,
		logger:     logger,
	}
}

// DetectCategory returns the best scoring category, or nil when none matches.
func (s *ChatbotService) DetectCategory(ctx context.Context, message string) (*domain.Category, error) {
	message, err := validateChatMessage(message)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return chatbot.Detect(message, categories), nil
}

// GetChatResponse resolves message against a named category. categoryRef is
// a category name (case-insensitive) or id.
func (s *ChatbotService) GetChatResponse(ctx context.Context, categoryRef, message string) (*ChatReply, error) {
	message, err := validateChatMessage(message)
	if err != nil {
		return nil, err
	}
	category, err := s.lookupCategory(ctx, categoryRef)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, category, message)
}

// AutoChat detects the category and answers in one call.
func (s *ChatbotService) AutoChat(ctx context.Context, message string) (*ChatReply, error) {
	category, err := s.DetectCategory(ctx, message)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return &ChatReply{Reply: chatbot.UnknownReply, MatchedKeywords: []string{}}, nil
	}
	return s.respond(ctx, category, strings.TrimSpace(message))
}

// respond escalates to the generator when nothing specific matched.
func (s *ChatbotService) respond(ctx context.Context, category *domain.Category, message string) (*ChatReply, error) {
	solutions, err := s.solutions.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	res := chatbot.Resolve(category, solutions, message)
	reply := &ChatReply{Reply: res.Reply, Category: category, MatchedKeywords: res.MatchedKeywords}
	if !res.Fallback() || len(res.MatchedKeywords) > 0 || s.generator == nil {
		return reply, nil
	}
	generated := chatbot.GenerateOrFallback(ctx, s.generator, s.logger, message, category.Name, res.Reply)
	reply.Generated = generated != res.Reply
	reply.Reply = generated
	return reply, nil
}

func (s *ChatbotService) lookupCategory(ctx context.Context, ref string) (*domain.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, requiredField("category")
	}
	var (
		category *domain.Category
		err      error
	)
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		category, err = s.categories.GetByID(ctx, ref)
	} else {
		category, err = s.categories.GetByName(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category": ref})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

func validateChatMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", requiredField("message")
	}
	if len([]rune(message)) > MaxChatMessageLength {
		return "", apperrors.NewValidationError("message too long", map[string]any{"max": MaxChatMessageLength})
	}
	return message, nil
}
