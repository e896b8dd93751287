package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/frahmantamala/genops/api"
	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/core/docstore/guard"
	"github.com/frahmantamala/genops/internal/core/events"
	"github.com/frahmantamala/genops/internal/identity"
	"github.com/frahmantamala/genops/internal/invoice"
	invoiceDocuments "github.com/frahmantamala/genops/internal/invoice/documents"
	"github.com/frahmantamala/genops/internal/notification"
	notificationDocuments "github.com/frahmantamala/genops/internal/notification/documents"
	"github.com/frahmantamala/genops/internal/panel"
	"github.com/frahmantamala/genops/internal/scheduler"
	"github.com/frahmantamala/genops/internal/session"
	"github.com/frahmantamala/genops/internal/shop"
	shopDocuments "github.com/frahmantamala/genops/internal/shop/documents"
	"github.com/frahmantamala/genops/internal/transport/middleware"
	"github.com/frahmantamala/genops/internal/transport/rest"
	"github.com/frahmantamala/genops/internal/user"
	userDocuments "github.com/frahmantamala/genops/internal/user/documents"
	"github.com/frahmantamala/genops/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	Logger    *slog.Logger
	DB        *sqlx.DB
	Store     docstore.Store
	Bus       *events.EventBus
	Cookies   *scs.SessionManager
	Sessions  *session.Manager
	Panels    *panel.Registry
	Invoices  *invoice.Service
	Scheduler *scheduler.Scheduler
	Router    *chi.Mux
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if deps.Scheduler != nil {
		if err := deps.Scheduler.Start(); err != nil {
			deps.Logger.Error("Scheduler failed to start", "error", err)
			os.Exit(1)
		}
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "store", deps.Config.Store.Backend)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Close()
	deps.Logger.Info("Server stopped")
}

// Close stops background work and releases the store.
func (d *Dependencies) Close() {
	if d.Scheduler != nil {
		d.Scheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Bus.Close(ctx); err != nil {
		d.Logger.Error("Event bus close error", "error", err)
	}
	d.Sessions.Shutdown()
	if err := d.Store.Close(); err != nil {
		d.Logger.Error("Store close error", "error", err)
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("Database close error", "error", err)
		}
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	raw, db, err := openStore(config, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return buildDependencies(config, raw, db, lg)
}

// buildDependencies wires every service on top of an open store.
func buildDependencies(config *internal.Config, raw docstore.Store, db *sqlx.DB, lg *slog.Logger) (*Dependencies, error) {
	store := guard.New(raw, lg)
	bus := events.NewEventBus(lg)

	// Users
	userService := user.NewService(userDocuments.NewUserRepository(store), lg)
	userHandler := user.NewHandler(userService)

	// Identity and sessions
	tokens := identity.NewJWTTokens(config.Security.JWTSecret, config.Security.JWTIssuer, config.Security.JWTAudience, config.Security.TokenDuration)
	hub := identity.NewHub(tokens, lg)
	sessions := session.NewManager(hub, userService, lg)
	cookies := session.NewCookieManager(config.Session.CookieName, config.Session.Lifetime, config.Session.SecureCookie)
	sessionHandler := session.NewHandler(cookies, sessions, hub)

	// Notifications
	notificationService := notification.NewService(
		notificationDocuments.NewNotificationRepository(store),
		notification.RetryConfig{
			MaxRetries:     config.Notification.MaxRetries,
			InitialBackoff: config.Notification.InitialBackoff,
		},
		lg,
	)
	notification.NewEventHandler(notificationService, config.Notification.HandlerTimeout, lg).Register(bus)
	notificationHandler := notification.NewHandler(notificationService)

	// Invoices
	drafts := invoice.NewDraftRegistry()
	invoiceService := invoice.NewService(
		invoiceDocuments.NewInvoiceRepository(store),
		notification.NewPublisher(bus, lg),
		drafts,
		lg,
	)
	invoiceHandler := invoice.NewHandler(invoiceService)

	// Shops
	shopService := shop.NewService(shopDocuments.NewShopRepository(store), userService, lg)
	shopHandler := shop.NewHandler(shopService)

	// Panels
	panels := panel.NewRegistry("/")
	panelHandler := panel.NewHandler(panels)

	validator, err := middleware.NewRequestValidator(api.OpenAPI, rest.APIPrefix, lg)
	if err != nil {
		return nil, err
	}

	var sqlDB *sql.DB
	if db != nil {
		sqlDB = db.DB
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:         rest.NewHealthHandler(raw, sqlDB),
		Cookies:        cookies,
		Session:        sessionHandler,
		Panel:          panelHandler,
		User:           userHandler,
		Shop:           shopHandler,
		Invoice:        invoiceHandler,
		Notification:   notificationHandler,
		Validator:      validator,
		AuthLimiter:    middleware.NewRateLimiter(config.Security.AuthRateLimit, config.Security.AuthRateBurst),
		AllowedOrigins: config.Server.AllowedOrigins,
	}, lg)

	deps := &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Store:    store,
		Bus:      bus,
		Cookies:  cookies,
		Sessions: sessions,
		Panels:   panels,
		Invoices: invoiceService,
		Router:   router,
	}

	if config.Scheduler.Enabled {
		deps.Scheduler = scheduler.New(scheduler.Config{
			OverdueSchedule: config.Scheduler.OverdueSchedule,
			EvictSchedule:   config.Scheduler.EvictSchedule,
			IdleTTL:         config.Session.IdleTimeout,
		}, invoiceService, map[string]scheduler.Evictor{
			"sessions": sessions,
			"panels":   panels,
			"drafts":   drafts,
		}, lg)
	}

	return deps, nil
}
