package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Static replies used when generation is unavailable.
const (
	PendingReply     = "Nous traitons votre demande. Merci pour votre patience."
	UnavailableReply = "Désolé, notre système rencontre des difficultés. Veuillez réessayer plus tard."
	UnknownReply     = "Je n'ai pas pu identifier votre problème. Pouvez-vous fournir plus de détails ?"
)

// ErrGeneratorDisabled is returned when no model endpoint is configured.
var ErrGeneratorDisabled = errors.New("chatbot: reply generator disabled")

// Generator produces a free-form reply for a message in a category.
type Generator interface {
	Generate(ctx context.Context, message, categoryName string) (string, error)
}

// OllamaGenerator calls an Ollama compatible /api/generate endpoint.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaGenerator builds a generator. An empty baseURL disables it.
func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	if model == "" {
		model = "mistral"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends "[category] message" as the prompt.
func (g *OllamaGenerator) Generate(ctx context.Context, message, categoryName string) (string, error) {
	if g == nil || g.baseURL == "" {
		return "", ErrGeneratorDisabled
	}
	body, err := json.Marshal(generateRequest{
		Model:  g.model,
		Prompt: fmt.Sprintf("[%s] %s", categoryName, message),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("generate: decode: %w", err)
	}
	reply := strings.TrimSpace(out.Response)
	if reply == "" {
		return "", errors.New("generate: empty response")
	}
	return reply, nil
}

// GenerateOrFallback never fails. Generator errors are logged and replaced by
// fallback; with no fallback a disabled generator yields PendingReply and a
// failing one UnavailableReply.
func GenerateOrFallback(ctx context.Context, gen Generator, logger *zap.Logger, message, categoryName, fallback string) string {
	if gen == nil {
		gen = (*OllamaGenerator)(nil)
	}
	reply, err := gen.Generate(ctx, message, categoryName)
	if err == nil {
		return reply
	}
	disabled := errors.Is(err, ErrGeneratorDisabled)
	if !disabled && logger != nil {
		logger.Warn("reply generation failed", zap.String("category", categoryName), zap.Error(err))
	}
	switch {
	case fallback != "":
		return fallback
	case disabled:
		return PendingReply
	}
	return UnavailableReply
}
