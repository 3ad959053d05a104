package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillworks/quill/db"
	"github.com/quillworks/quill/internal/artifact"
	"github.com/quillworks/quill/internal/chat"
	"github.com/quillworks/quill/internal/config"
	"github.com/quillworks/quill/internal/conversation"
	"github.com/quillworks/quill/internal/observability"
)

const defaultMaxTurns = 5

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	registry, err := artifact.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("building type registry: %w", err)
	}

	a.Artifacts, err = artifact.NewStore(pool, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("creating artifact store: %w", err)
	}

	a.Conversations, err = conversation.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating conversation store: %w", err)
	}

	a.Hydrator = conversation.NewHydrator(a.Artifacts, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.ChatAgent, err = provideChatAgent(a, g)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// provideOtelShutdown sets up tracing before the model runtime initializes,
// so the TracerProvider is ready when the first span starts.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.TraceEndpoint,
		Environment: cfg.TraceEnvironment,
		ServiceName: cfg.TraceServiceName,
	}, logger)
	if err != nil {
		logger.Warn("setting up tracing", "error", err)
		return func() {}
	}

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes the model runtime with the Gemini provider.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	logger.Info("initialized model runtime", "model", cfg.ModelName)
	return g, nil
}

// provideChatAgent registers the artifact tools and builds the chat agent.
func provideChatAgent(a *App, g *genkit.Genkit) (*chat.Agent, error) {
	toolset, err := chat.NewToolset(a.Artifacts, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating toolset: %w", err)
	}

	tools, err := chat.Register(g, toolset)
	if err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	generator, err := chat.NewGenkitGenerator(g, a.Config.ModelName, tools, defaultMaxTurns)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	agent, err := chat.New(chat.Config{
		Generator:     generator,
		Conversations: a.Conversations,
		Hydrator:      a.Hydrator,
		Logger:        a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat agent: %w", err)
	}
	return agent, nil
}
