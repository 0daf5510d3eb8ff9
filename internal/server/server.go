package server

import (
	"context"
	"net/http"

	"github.com/rumor-ml/commons.systems/bankimport/internal/config"
	"github.com/rumor-ml/commons.systems/bankimport/internal/firestore"
	"github.com/rumor-ml/commons.systems/bankimport/internal/handlers"
	"github.com/rumor-ml/commons.systems/bankimport/internal/middleware"
	"github.com/rumor-ml/commons.systems/bankimport/internal/pipeline"
	"github.com/rumor-ml/commons.systems/bankimport/internal/registry"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
)

// Server represents the ledger import API server
type Server struct {
	fsClient *firestore.Client
	mux      *http.ServeMux
}

// New creates a new server instance
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID, cfg.Collections)
	if err != nil {
		return nil, err
	}

	engine, err := rules.LoadEmbedded()
	if err != nil {
		fsClient.Close()
		return nil, err
	}

	s := &Server{
		fsClient: fsClient,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes(cfg, engine)

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg *config.Config, engine *rules.Engine) {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", handlers.HealthCheck)

	apiHandler := handlers.NewAPIHandler(s.fsClient)
	authMiddleware := middleware.NewAuthMiddleware(s.fsClient.Auth)

	pipe := pipeline.NewPipeline(s.fsClient, registry.New(), engine, cfg.Limits)
	importHandler := handlers.NewImportHandler(pipe, s.fsClient)

	// Protected API routes
	s.mux.Handle("/api/accounts", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.Accounts)))
	s.mux.Handle("/api/categories", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.Categories)))
	s.mux.Handle("/api/entries", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.Entries)))
	s.mux.Handle("/api/sessions", authMiddleware.RequireAuth(http.HandlerFunc(apiHandler.ImportSessions)))
	s.mux.Handle("/api/import", authMiddleware.RequireAuth(http.HandlerFunc(importHandler.Import)))
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return middleware.CORS(s.mux)
}

// Close closes the server resources
func (s *Server) Close() error {
	return s.fsClient.Close()
}
