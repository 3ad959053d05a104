// Package app provides application initialization and dependency wiring.
//
// Setup builds the full dependency graph — database pool, migrations, type
// registry, stores, hydrator, model runtime, chat agent — and returns an App
// whose Close releases everything in reverse order.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillworks/quill/internal/artifact"
	"github.com/quillworks/quill/internal/chat"
	"github.com/quillworks/quill/internal/config"
	"github.com/quillworks/quill/internal/conversation"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool          *pgxpool.Pool
	Genkit        *genkit.Genkit
	Artifacts     *artifact.Store
	Conversations *conversation.Store
	Hydrator      *conversation.Hydrator
	ChatAgent     *chat.Agent

	otelCleanup func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	if a.Pool != nil {
		a.Pool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}

	return nil
}
