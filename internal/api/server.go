package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger        *slog.Logger
	Artifacts     ArtifactStore     // Required
	Conversations ConversationStore // Required
	ChatAgent     ChatAgent         // Optional: nil disables POST /api/v1/chat
	Pool          *pgxpool.Pool     // Optional: nil disables DB ping in /ready
	TrustProxy    bool              // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst     int               // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Artifacts == nil {
		return nil, errors.New("artifact store is required")
	}
	if cfg.Conversations == nil {
		return nil, errors.New("conversation store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &artifactHandler{store: cfg.Artifacts, logger: logger}
	ch := &conversationHandler{store: cfg.Conversations, logger: logger}

	mux := http.NewServeMux()

	// Artifact CRUD
	mux.HandleFunc("GET /api/v1/artifacts/{id}", ah.getArtifact)
	mux.HandleFunc("PATCH /api/v1/artifacts/{id}", ah.updateArtifact)
	mux.HandleFunc("DELETE /api/v1/artifacts/{id}", ah.deleteArtifact)

	// Conversations
	mux.HandleFunc("POST /api/v1/conversations", ch.createConversation)
	mux.HandleFunc("GET /api/v1/conversations/{id}", ch.getConversation)
	mux.HandleFunc("GET /api/v1/conversations/{id}/messages", ch.getMessages)
	mux.HandleFunc("GET /api/v1/artifacts/conversation/{id}", ah.listArtifacts)

	// Chat (optional — only registered if an agent is provided)
	if cfg.ChatAgent != nil {
		th := &chatHandler{agent: cfg.ChatAgent, logger: logger}
		mux.HandleFunc("POST /api/v1/chat", th.send)
	}

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack (outermost first):
	//   Recovery → Logging → RateLimit → Identity → Routes
	var handler http.Handler = mux
	handler = identityMiddleware()(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux keeps health probes outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
