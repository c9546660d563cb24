package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtychat/internal/config"
	"realtychat/internal/model"
)

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 300, req.MaxTokens)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "Known filters: city=Galle", req.Messages[1].Content)
		assert.Equal(t, "user", req.Messages[2].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"  Sure, what budget?  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(&config.OpenAIConfig{
		APIKey:        "sk-test",
		APIBase:       srv.URL,
		ChatModel:     "gpt-4o-mini",
		ChatMaxTokens: 300,
		Timeout:       5,
		Enabled:       true,
	})

	got, err := c.Generate(context.Background(), []model.Message{{Role: "user", Content: "galle?"}}, "Known filters: city=Galle")
	require.NoError(t, err)
	assert.Equal(t, "Sure, what budget?", got)
}

func TestOpenAIClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(&config.OpenAIConfig{APIKey: "k", APIBase: srv.URL, Timeout: 5, Enabled: true})
	_, err := c.Generate(context.Background(), nil, "")
	assert.ErrorContains(t, err, "status 429")

	disabled := NewOpenAIClient(&config.OpenAIConfig{APIBase: srv.URL, Timeout: 5})
	assert.False(t, disabled.IsEnabled())
	_, err = disabled.Generate(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrGeneratorDisabled)
}
