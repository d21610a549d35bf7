// Package web provides the HTTP API for the parts inventory.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"partsbin/internal/audit"
	"partsbin/internal/cart"
	"partsbin/internal/config"
	"partsbin/internal/importer"
	"partsbin/internal/inventory"
	"partsbin/internal/taxonomy"
)

// Server is the HTTP server for the inventory API.
type Server struct {
	cfg      config.ServerConfig
	maxBytes int64

	repo     *inventory.Repository
	cart     *cart.Service
	audit    *audit.Log
	taxonomy *taxonomy.Store
	importer *importer.Coordinator

	router *chi.Mux
	server *http.Server
}

// Deps bundles the services the HTTP layer exposes.
type Deps struct {
	Repo     *inventory.Repository
	Cart     *cart.Service
	Audit    *audit.Log
	Taxonomy *taxonomy.Store
	Importer *importer.Coordinator
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg.Server,
		maxBytes: cfg.Upload.MaxFileSize,
		repo:     deps.Repo,
		cart:     deps.Cart,
		audit:    deps.Audit,
		taxonomy: deps.Taxonomy,
		importer: deps.Importer,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Components
		r.Get("/components", s.handleSearch)
		r.Post("/components", s.handleAddComponent)
		r.Get("/components/{id}", s.handleGetComponent)
		r.Patch("/components/{id}/quantity", s.handleDeltaQuantity)
		r.Patch("/components/{id}/storage", s.handleUpdateStorage)
		r.Delete("/components/{id}", s.handleDeleteComponent)
		r.Get("/components/unique/{field}", s.handleUniqueValues)
		r.Get("/components/branch-counts", s.handleBranchCounts)
		r.Post("/classify", s.handleClassify)

		// Taxonomy and storage assignment
		r.Get("/taxonomy", s.handleGetTaxonomy)
		r.Post("/storage/assign", s.handleAssignLocation)
		r.Post("/storage/clear", s.handleClearLocation)
		r.Post("/storage/clear-all", s.handleClearAllLocations)
		r.Get("/storage/map", s.handleStorageMap)

		// Audit log
		r.Get("/log", s.handleListLog)
		r.Get("/log/{id}", s.handleGetLogEntry)
		r.Post("/log/{id}/revert", s.handleRevert)

		// Cart
		r.Get("/cart", s.handleCartList)
		r.Post("/cart", s.handleCartAdd)
		r.Patch("/cart/{id}", s.handleCartSetQuantity)
		r.Delete("/cart/{id}", s.handleCartRemove)
		r.Delete("/cart", s.handleCartClear)
		r.Post("/cart/checkout", s.handleCheckout)

		// Bulk file operations
		r.Post("/import/csv", s.handleImportCSV)
		r.Post("/import/bom", s.handleImportBOM)
		r.Get("/export/database", s.handleExportDatabase)
		r.Post("/import/database", s.handleImportDatabase)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v and writes it with the given status. Encoding errors
// are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// requestUser identifies the acting user for audit attribution. The client
// supplies it via header or query; absent means anonymous.
func requestUser(r *http.Request) string {
	if u := r.Header.Get("X-User"); u != "" {
		return u
	}
	if u := r.URL.Query().Get("user"); u != "" {
		return u
	}
	return "anonymous"
}
