package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/jobly/internal/auth"
	"github.com/frahmantamala/jobly/internal/job"
	"github.com/frahmantamala/jobly/internal/payment"
	"github.com/frahmantamala/jobly/internal/promotion"
	"github.com/frahmantamala/jobly/internal/transport"
	"github.com/frahmantamala/jobly/internal/transport/middleware"
	"github.com/frahmantamala/jobly/internal/transport/rest"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := newApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	router, err := setupRoutes(app)
	if err != nil {
		app.Logger.Error("failed to set up routes", "error", err)
		app.Close()
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	app.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		app.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			app.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("server failed to start", "error", err)
			app.Close()
			os.Exit(1)
		}
	}

	app.Close()
	app.Logger.Info("server stopped")
}

func setupRoutes(app *application) (*chi.Mux, error) {
	base := transport.NewBaseHandler(app.Logger)

	opts := rest.RouterOptions{OpenAPIPath: app.Config.Server.OpenAPIPath}
	if opts.OpenAPIPath != "" {
		doc, err := middleware.LoadOpenAPI(opts.OpenAPIPath)
		if err != nil {
			return nil, fmt.Errorf("load openapi: %w", err)
		}
		validator, err := middleware.OpenAPIValidator(doc, app.Logger)
		if err != nil {
			return nil, fmt.Errorf("build openapi validator: %w", err)
		}
		opts.OpenAPIValidator = validator
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:    rest.NewHealthHandler(map[string]rest.Pinger{"database": app.SQL}),
		Auth:      auth.NewHandler(base, app.Auth),
		Promotion: promotion.NewHandler(base, app.Packages),
		Payment:   payment.NewHandler(base, app.Payments),
		Webhook:   payment.NewWebhookHandler(base, app.Payments),
		Job:       job.NewHandler(base, app.Jobs),
	}, opts, app.Logger)

	return router, nil
}
