package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"flowforge/internal/api"
	"flowforge/internal/config"
	"flowforge/internal/engine"
	"flowforge/internal/logging"
	"flowforge/internal/mcp"
	"flowforge/internal/nodes"
	"flowforge/internal/repository"
	"flowforge/internal/services"
	"flowforge/internal/tls"
)

func main() {
	var configFile, addr string

	rootCmd := &cobra.Command{
		Use:   "flowforge-server",
		Short: "Workflow automation server",
		Long:  "Runs the FlowForge workflow builder and execution engine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile, addr)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(ctx context.Context, configFile, addr string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := logging.New(cfg.Log.Level)
	logger.Info("starting workflow service", "addr", cfg.Server.Addr, "db", cfg.HasDatabase())

	// Storage: postgres when configured, in-memory otherwise.
	var store repository.Store
	if cfg.HasDatabase() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		pg := repository.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pg
		logger.Info("database connected", "host", cfg.DB.Host, "name", cfg.DB.Name)
	} else {
		store = repository.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	// Side-effect services consumed by node handlers.
	registry := nodes.Builtin(nodes.Capabilities{
		HTTP:   services.NewNetHTTPCaller(0),
		Text:   services.NewHTTPTextGenerator(cfg.AI.URL, cfg.AI.Model),
		Email:  services.NewHTTPEmailSender(cfg.Email.URL, cfg.Email.From),
		Script: services.NewExprScriptEngine(),
	})

	eng := engine.New(store, registry, logger)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("flowforge"))

	srv := api.NewServer(store, eng, registry, logger)
	e.GET("/health", srv.HandleHealth)
	srv.Register(e.Group("/api/v1"))

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(store, eng)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	// OpenAPI spec and Swagger UI
	e.GET("/openapi.yaml", echo.WrapHandler(http.HandlerFunc(api.SpecHandler())))
	e.GET("/docs", echo.WrapHandler(http.HandlerFunc(api.SwaggerHandler())))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", cfg.Server.Addr, "tls", cfg.TLS.Enable)
		if cfg.TLS.Enable {
			if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
				logger.Error("TLS enabled but cert/key file not provided")
				serverErrors <- server.ListenAndServe()
				return
			}
			created, err := tls.EnsureCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
			if err != nil {
				logger.Error("failed to generate self-signed cert", "error", err)
			} else if created {
				logger.Info("generated self-signed certificate", "cert", cfg.TLS.CertFile)
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return err
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("server close error", "error", err)
			}
		}
		logger.Info("server stopped gracefully")
	}
	return nil
}
