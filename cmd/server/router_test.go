package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realtychat/internal/config"
	"realtychat/internal/model"
)

type stubChat struct{ turns int }

func (s *stubChat) HandleTurn(_ context.Context, sessionID, text string) (*model.TurnResult, error) {
	s.turns++
	return &model.TurnResult{SessionID: "s1", Reply: model.Reply{Type: model.ReplyText, Content: text}}, nil
}

func (s *stubChat) ResetSession(context.Context, string) error { return nil }

func (s *stubChat) Session(context.Context, string) (*model.SessionState, error) { return nil, nil }

type stubCatalog struct{}

func (stubCatalog) GetListing(context.Context, int64) (*model.Listing, error) { return nil, nil }

func (stubCatalog) SimilarListings(context.Context, int64, int) ([]model.ListingCard, error) {
	return nil, nil
}

func (stubCatalog) UpdateEmbeddings(_ context.Context, items []model.EmbeddingItem) (int, []string) {
	return len(items), nil
}

func (stubCatalog) LogFeedback(context.Context, string, int64, string) error { return nil }

func testRouter(ping func(context.Context) error, rl config.RateLimitConfig) (*gin.Engine, *stubChat) {
	gin.SetMode(gin.TestMode)
	chat := &stubChat{}
	return newRouter(routerDeps{
		Server: config.ServerConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,DELETE,OPTIONS",
			AllowedHeaders: "Content-Type",
		},
		RateLimit:    rl,
		Chat:         chat,
		Catalog:      stubCatalog{},
		Ping:         ping,
		SimilarLimit: 6,
		MaxLimit:     20,
		Logger:       zap.NewNop(),
	}), chat
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := testRouter(nil, config.RateLimitConfig{})

	w := serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])

	w = serve(r, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_NotReady(t *testing.T) {
	r, _ := testRouter(func(context.Context) error { return errors.New("down") }, config.RateLimitConfig{})
	w := serve(r, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := testRouter(nil, config.RateLimitConfig{})
	serve(r, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)

	w := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_ChatRateLimited(t *testing.T) {
	r, chat := testRouter(nil, config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1})

	w := serve(r, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = serve(r, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, chat.turns)

	// only the chat endpoint is limited
	w = serve(r, http.MethodGet, "/api/v1/listings/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_NoRoute(t *testing.T) {
	r, _ := testRouter(nil, config.RateLimitConfig{})

	w := serve(r, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "API endpoint not found")

	w = serve(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/chat")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"GET", "POST"}, splitList(" GET, ,POST "))
	assert.Nil(t, splitList(""))
}
