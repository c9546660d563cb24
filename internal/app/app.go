// Package app assembles the chat engine from configuration. Both the HTTP
// server and the CLI build on it.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"realtychat/internal/config"
	"realtychat/internal/nlp"
	"realtychat/internal/repository"
	"realtychat/internal/service"
	"realtychat/internal/session"
)

// App holds the wired services and the resources they own
type App struct {
	Repo     *repository.PostgresRepository
	Sessions session.Store
	Parser   *service.IntentParser
	Search   *service.SearchService
	Chat     *service.ChatService
	Fallback *service.FallbackResponder
}

// NewParser builds the intent parser from the configured vocabulary
func NewParser(cfg config.NLPConfig) (*service.IntentParser, error) {
	vocab, err := nlp.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return nil, err
	}
	return service.NewIntentParser(vocab), nil
}

// New connects to the stores and wires the services. Migrations run first
// when the config asks for it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	parser, err := NewParser(cfg.NLP)
	if err != nil {
		return nil, err
	}

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		cfg.Search.PageSize,
	)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to PostgreSQL database")

	if cfg.PostgreSQL.AutoMigrate {
		applied, err := repository.Migrate(ctx, repo.DB())
		if err != nil {
			repo.Close()
			return nil, err
		}
		logger.Info("Migrations applied", zap.Strings("versions", applied))
	}

	sessions, err := NewSessionStore(ctx, cfg.Session)
	if err != nil {
		repo.Close()
		return nil, err
	}
	logger.Info("Session store ready", zap.String("store", cfg.Session.Store), zap.Duration("ttl", cfg.Session.TTL))

	var generator service.TextGenerator
	if cfg.OpenAI.Enabled {
		generator = service.NewOpenAIClient(&cfg.OpenAI)
		logger.Info("Text generation enabled",
			zap.String("api_base", cfg.OpenAI.APIBase),
			zap.String("model", cfg.OpenAI.ChatModel),
			zap.Int("max_tokens", cfg.OpenAI.ChatMaxTokens),
		)
	} else {
		logger.Warn("Text generation disabled, fallback turns get the canned prompt. Set OPENAI_API_KEY to enable it")
	}
	fallback := service.NewFallbackResponder(generator, service.DefaultBreakerSettings(), logger)

	search := service.NewSearchService(repo, repo, cfg.Search.PageSize, logger)
	chat := service.NewChatService(service.ChatDeps{
		Parser:      parser,
		Search:      search,
		Sessions:    sessions,
		Areas:       repo,
		Investments: repo,
		Turns:       repo,
		Fallback:    fallback,
		Logger:      logger,
	}, service.ChatConfig{
		DisplayLimit: cfg.Search.DisplayLimit,
		HistoryLimit: cfg.Session.HistoryLimit,
	})

	return &App{
		Repo:     repo,
		Sessions: sessions,
		Parser:   parser,
		Search:   search,
		Chat:     chat,
		Fallback: fallback,
	}, nil
}

// NewSessionStore opens the configured session driver. The redis driver is
// pinged once so a bad URL fails at startup.
func NewSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	opts := []session.StoreOption{
		session.WithTTL(cfg.TTL),
		session.WithCleanupInterval(cfg.CleanupInterval),
		session.WithKeyPrefix(cfg.KeyPrefix),
	}
	if session.StoreType(cfg.Store) == session.StoreTypeRedis {
		client, err := session.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts = append(opts, session.WithRedisClient(client))
	}
	return session.NewStore(session.StoreType(cfg.Store), opts...)
}

// Close releases the session store and the database pool
func (a *App) Close() error {
	serr := a.Sessions.Close()
	rerr := a.Repo.Close()
	if serr != nil {
		return serr
	}
	return rerr
}
