package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/contactsbook/apiserver/config"
	"github.com/contactsbook/apiserver/internal/cache"
	"github.com/contactsbook/apiserver/internal/db"
	"github.com/contactsbook/apiserver/internal/handlers"
	"github.com/contactsbook/apiserver/internal/logging"
	"github.com/contactsbook/apiserver/internal/mailer"
	"github.com/contactsbook/apiserver/internal/mq"
	"github.com/contactsbook/apiserver/internal/services"
	"github.com/contactsbook/apiserver/internal/storage"
	"github.com/contactsbook/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and its long-lived dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	sessions   *cache.SessionCache
	broker     *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessions, err := cache.NewSessionCache(ctx, cfg.Redis)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	contactRepo := store.NewContactRepository(dbConn)

	authService, err := services.NewAuthService(userRepo, sessions, cfg.JWT)
	if err != nil {
		_ = sessions.Close()
		_ = dbConn.Close()
		return nil, err
	}
	userService := services.NewUserService(userRepo)
	contactService := services.NewContactService(contactRepo)

	sender, err := mailer.New(cfg.Mail, authService)
	if err != nil {
		_ = sessions.Close()
		_ = dbConn.Close()
		return nil, err
	}

	var broker *mq.MQ
	var notifier mailer.Notifier
	if cfg.MQ.Backend != "" {
		broker, err = mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			_ = sessions.Close()
			_ = dbConn.Close()
			return nil, err
		}
		notifier = mailer.NewQueueNotifier(broker, log)
	} else {
		notifier = mailer.NewDirectNotifier(sender, log)
	}

	var avatars *storage.Storage
	if cfg.Storage.Backend != "" && storageConfigured(cfg.Storage) {
		avatars, err = storage.NewFromConfig(ctx, cfg.Storage)
		if err != nil {
			log.Warn(ctx, "avatar storage unavailable", "err", err)
		} else if err := avatars.EnsureBucket(ctx); err != nil {
			log.Warn(ctx, "avatar bucket unavailable", "err", err)
			avatars = nil
		}
	}

	authMiddleware := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, userService, authService, notifier)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService, avatars, authMiddleware)
		})
		r.Route("/contact", func(r chi.Router) {
			handlers.ContactRouter(r, contactService, authMiddleware)
		})
		r.Route("/contacts", func(r chi.Router) {
			handlers.ContactsRouter(r, contactService, authMiddleware)
		})
		r.Route("/all", func(r chi.Router) {
			handlers.AllContactsRouter(r, contactService, authMiddleware)
		})
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
		db:         dbConn,
		sessions:   sessions,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.sessions != nil {
		_ = s.sessions.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// storageConfigured reports whether the selected storage backend has
// enough config to be constructed. Avatars degrade gracefully when not.
func storageConfigured(cfg config.StorageConfig) bool {
	switch cfg.Backend {
	case "minio":
		return cfg.Minio.Endpoint != ""
	case "gcs":
		return cfg.GCS.Bucket != ""
	default:
		return false
	}
}
