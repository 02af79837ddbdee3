// Package gateway is the inbound webhook surface: it validates the
// carrier's form payload, hands the (sender, body) pair to the relay,
// and wraps the result in the reply envelope the caller expects.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/reecen30/BotConnectorAPI/internal/config"
	"github.com/reecen30/BotConnectorAPI/internal/logging"
)

// Relayer runs one inbound message through the bot conversation.
// *relay.Orchestrator satisfies it.
type Relayer interface {
	Relay(ctx context.Context, sender, body string) (string, error)
}

// Server is the BotConnector webhook HTTP server.
type Server struct {
	cfg        config.Config
	log        *logging.Logger
	relayer    Relayer
	httpServer *http.Server
}

// New creates a webhook server backed by the given relayer.
func New(cfg config.Config, log *logging.Logger, relayer Relayer) *Server {
	return &Server{
		cfg:     cfg,
		log:     log.Sub("gateway"),
		relayer: relayer,
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/BotConnector/StartBot", s.handleStartBot)
	mux.HandleFunc("POST /api/BotConnector/SendMessage", s.handleSendMessage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api-docs", s.handleAPIDocs)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// Start begins listening for webhook calls. It blocks until the
// context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.Gateway.CORSOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Msg("webhook server starting")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down webhook server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
