package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sapiencia-analitica/matricula-portal/config"
	"github.com/sapiencia-analitica/matricula-portal/internal/db"
	"github.com/sapiencia-analitica/matricula-portal/internal/handlers"
	"github.com/sapiencia-analitica/matricula-portal/internal/mq"
	"github.com/sapiencia-analitica/matricula-portal/internal/services"
	"github.com/sapiencia-analitica/matricula-portal/internal/storage"
	"github.com/sapiencia-analitica/matricula-portal/internal/store"
	log "github.com/sirupsen/logrus"
)

// Server wraps the HTTP server, the router and the shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	authDB     *sql.DB
	reportDB   *sql.DB
	auditor    *mq.AuditPublisher
}

// New opens both database pools, wires the stores, services and handlers,
// and returns a Server ready to start.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	authDB, err := db.Open(ctx, cfg.AuthDB)
	if err != nil {
		return nil, fmt.Errorf("open auth database: %w", err)
	}

	reportDB, err := db.Open(ctx, cfg.ReportDB)
	if err != nil {
		_ = authDB.Close()
		return nil, fmt.Errorf("open report database: %w", err)
	}

	auditor, err := mq.NewAuditPublisher(ctx, cfg.Audit)
	if err != nil {
		_ = authDB.Close()
		_ = reportDB.Close()
		return nil, fmt.Errorf("init audit publisher: %w", err)
	}
	if auditor != nil {
		log.WithField("broker", cfg.Audit.Broker).Info("audit publishing enabled")
	}

	archive, err := storage.NewExportArchive(ctx, cfg.Archive)
	if err != nil {
		_ = authDB.Close()
		_ = reportDB.Close()
		_ = auditor.Close()
		return nil, fmt.Errorf("init export archive: %w", err)
	}
	if archive != nil {
		log.WithField("backend", cfg.Archive.Backend).Info("export archiving enabled")
	}

	userRepo := store.NewUserRepository(authDB)
	enrollmentRepo := store.NewEnrollmentRepository(reportDB)

	// A nil *AuditPublisher inside a non-nil interface would dodge the
	// services-level nil check, so only assign when auditing is on.
	var auditorIface services.Auditor
	if auditor != nil {
		auditorIface = auditor
	}
	authService := services.NewAuthService(userRepo, auditorIface)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, jwtSecret)
	})
	router.Route("/enrollments", func(r chi.Router) {
		handlers.EnrollmentRouter(r, enrollmentService, archive, auditorIface, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		authDB:     authDB,
		reportDB:   reportDB,
		auditor:    auditor,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("portal listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.authDB != nil {
		_ = s.authDB.Close()
	}
	if s.reportDB != nil {
		_ = s.reportDB.Close()
	}
	_ = s.auditor.Close()
	return s.httpServer.Close()
}
