package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/tenkoh/awsswitch/pkg/handler"
	"github.com/tenkoh/awsswitch/pkg/logger"
	"github.com/tenkoh/awsswitch/pkg/switcher"
	"github.com/tenkoh/awsswitch/pkg/watcher"
)

// Server represents the HTTP server with dependency injection
type Server struct {
	port       int
	mux        *http.ServeMux
	apiHandler *handler.APIHandler
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a server backed by the application's credentials store.
// It returns the switcher too so the caller can refresh its status.
func NewServer(port int, app *application) (*Server, *switcher.Switcher) {
	serverLogger := logger.WithComponent(app.log, "server")

	// Clients name the profile, so no chooser is wired and only SwitchTo is used.
	sw := switcher.New(&switcher.Dependencies{
		Lister:   app.lister,
		Promoter: app.promoter,
		Status:   &switcher.Status{},
		Notifier: switcher.NotifierFunc(func(msg string) {
			serverLogger.Info(msg)
		}),
	}, app.log)

	return NewTestServer(port, &handler.Dependencies{
		ProfileProvider: app.lister,
		Switcher:        sw,
		Settings:        app.settings,
		Logger:          app.log,
	}), sw
}

// NewTestServer creates a server with the given handler dependencies
func NewTestServer(port int, deps *handler.Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Server{
		port:       port,
		mux:        http.NewServeMux(),
		apiHandler: handler.NewAPIHandler(deps),
		logger:     logger.WithComponent(log, "server"),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API routes with POST-unified design
	s.mux.HandleFunc("POST /api/health", s.apiHandler.HandleHealth)
	s.mux.HandleFunc("POST /api/profiles", s.apiHandler.HandleProfiles)
	s.mux.HandleFunc("POST /api/switch", s.apiHandler.HandleSwitch)
	s.mux.HandleFunc("POST /api/status", s.apiHandler.HandleStatus)
	s.mux.HandleFunc("POST /api/settings", s.apiHandler.HandleSettings)
	s.mux.HandleFunc("POST /api/shutdown", s.apiHandler.HandleShutdown)
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ShutdownChannel is closed when a client calls /api/shutdown
func (s *Server) ShutdownChannel() <-chan struct{} {
	return s.apiHandler.ShutdownChannel()
}

func (s *Server) Start() error {
	s.logger.Info("Listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func startServer(parent context.Context, port int, app *application, out io.Writer) error {
	serverLogger := logger.WithComponent(app.log, "server")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	server, sw := NewServer(port, app)

	// Keep the status current when other tools edit the credentials file.
	go func() {
		if err := watcher.Watch(ctx, app.credentialsPath, sw.RefreshStatus, app.log); err != nil {
			serverLogger.Warn("Credentials file is not watched", "path", app.credentialsPath, "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	fmt.Fprintf(out, "awsswitch API listening on http://127.0.0.1:%d\n", port)

	// Wait for either interrupt signal or API shutdown request
	select {
	case err := <-serverErr:
		if err != nil {
			serverLogger.Error("Server stopped with error", "error", err)
		}
		return err
	case <-ctx.Done():
		serverLogger.Info("Received interrupt signal, initiating graceful shutdown")
	case <-server.ShutdownChannel():
		serverLogger.Info("Received API shutdown request, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		serverLogger.Error("Error during graceful shutdown", "error", err)
		return err
	}

	serverLogger.Info("Server shutdown completed successfully")
	return nil
}
