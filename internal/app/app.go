package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Pipeboard/pipeboard/config"
	"github.com/Pipeboard/pipeboard/internal/database"
	"github.com/Pipeboard/pipeboard/internal/domain"
	httpHandler "github.com/Pipeboard/pipeboard/internal/http"
	"github.com/Pipeboard/pipeboard/internal/http/middleware"
	"github.com/Pipeboard/pipeboard/internal/repository"
	"github.com/Pipeboard/pipeboard/internal/service"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB

	// Repositories
	userRepo     domain.UserRepository
	pipelineRepo domain.PipelineRepository
	leadRepo     domain.LeadRepository

	// Services
	authService     *service.AuthService
	userService     *service.UserService
	pipelineService *service.PipelineService
	leadService     *service.LeadService
	boardService    *service.BoardService

	mux    *http.ServeMux
	server *http.Server
}

// AppOption defines a function signature for configuring the App
type AppOption func(*App)

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	app := &App{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		app.logger = logger.NewLoggerWithLevel(cfg.LogLevel)
	}

	return app
}

// Initialize sets up the database, repositories, services and handlers
func (a *App) Initialize() error {
	if err := a.InitDB(); err != nil {
		return err
	}
	a.InitRepositories()
	a.InitServices()
	a.InitHandlers()
	return nil
}

// InitDB connects to the database and ensures the schema exists
func (a *App) InitDB() error {
	db, err := database.Connect(&a.config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.InitializeDatabase(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	a.db = db
	return nil
}

// InitRepositories creates all repositories
func (a *App) InitRepositories() {
	a.userRepo = repository.NewUserRepository(a.db)
	a.pipelineRepo = repository.NewPipelineRepository(a.db)
	a.leadRepo = repository.NewLeadRepository(a.db)
}

// InitServices creates all services
func (a *App) InitServices() {
	a.authService = service.NewAuthService(a.logger)
	a.userService = service.NewUserService(a.userRepo, a.authService, a.logger)
	a.pipelineService = service.NewPipelineService(a.pipelineRepo, a.leadRepo, a.authService, a.logger)
	a.leadService = service.NewLeadService(a.leadRepo, a.pipelineRepo, a.authService, a.logger)
	a.boardService = service.NewBoardService(a.pipelineRepo, a.leadRepo, a.leadService, a.authService, a.logger)
}

// InitHandlers registers all HTTP handlers on the mux
func (a *App) InitHandlers() {
	httpHandler.NewPipelineHandler(a.pipelineService, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewLeadHandler(a.leadService, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewBoardHandler(a.boardService, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewUserHandler(a.userService, a.logger).RegisterRoutes(a.mux)

	a.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, a.config.Version)
	})
}

// Handler returns the full middleware chain around the mux
func (a *App) Handler() http.Handler {
	requireAuth := middleware.NewAuthMiddleware(a.config.Security.JWTSecret).RequireAuth()

	var handler http.Handler = a.mux
	handler = a.withAuthOnAPI(handler, requireAuth)
	handler = middleware.CORSMiddleware(a.config.Server.CORSAllowOrigin)(handler)
	handler = middleware.TracingMiddleware(handler)
	return handler
}

// withAuthOnAPI guards /api/ routes with the auth middleware while
// leaving /health open for probes.
func (a *App) withAuthOnAPI(next http.Handler, requireAuth func(http.Handler) http.Handler) http.Handler {
	authed := requireAuth(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) >= 5 && r.URL.Path[:5] == "/api/" {
			authed.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetMux returns the underlying mux, used in tests
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the database handle, used in tests
func (a *App) GetDB() *sql.DB {
	return a.db
}

// Start runs the HTTP server until it exits
func (a *App) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.WithFields(map[string]interface{}{
		"addr":    addr,
		"version": a.config.Version,
	}).Info("HTTP server listening")

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and closes the database
func (a *App) Shutdown(ctx context.Context) error {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("database close error: %w", err)
		}
	}

	a.logger.Info("Shutdown complete")
	return nil
}
