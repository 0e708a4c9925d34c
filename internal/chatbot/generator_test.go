package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOllamaGeneratorSendsPrompt(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: " Essayez de redémarrer. "})
	}))
	defer srv.Close()

	gen := NewOllamaGenerator(srv.URL+"/", "mistral", time.Second)
	reply, err := gen.Generate(context.Background(), "wifi lent", "Informatique")
	require.NoError(t, err)
	assert.Equal(t, "Essayez de redémarrer.", reply)
	assert.Equal(t, "[Informatique] wifi lent", got.Prompt)
	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream)
}

func TestOllamaGeneratorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(srv.URL, "", time.Second).Generate(context.Background(), "m", "c")
	assert.ErrorContains(t, err, "503")

	_, err = NewOllamaGenerator("", "", 0).Generate(context.Background(), "m", "c")
	assert.ErrorIs(t, err, ErrGeneratorDisabled)
}

type stubGenerator struct {
	reply string
	err   error
}

func (s stubGenerator) Generate(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

func TestGenerateOrFallback(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	assert.Equal(t, "llm", GenerateOrFallback(ctx, stubGenerator{reply: "llm"}, log, "m", "c", "default"))
	assert.Equal(t, "default", GenerateOrFallback(ctx, stubGenerator{err: errors.New("down")}, log, "m", "c", "default"))
	assert.Equal(t, UnavailableReply, GenerateOrFallback(ctx, stubGenerator{err: errors.New("down")}, log, "m", "c", ""))
	assert.Equal(t, PendingReply, GenerateOrFallback(ctx, nil, log, "m", "c", ""))
}
