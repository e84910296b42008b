package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bivex/caldav-mcp/internal/caldav"
	"github.com/bivex/caldav-mcp/internal/instrumentation"
	"github.com/bivex/caldav-mcp/internal/logging"
	"github.com/bivex/caldav-mcp/internal/server"
	"github.com/bivex/caldav-mcp/internal/tools/caldav_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		yolo           bool
		caldavURL      string
		caldavUsername string
		caldavPassword string
		// Metrics server configuration
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide CalDAV calendar
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (event creation and deletion).

CalDAV Configuration:
  The server address and credentials are read from flags or environment
  variables; a .env file in the working directory is loaded when present:
    --caldav-url      OR CALDAV_BASE_URL env var
    --caldav-username OR CALDAV_USERNAME env var
    --caldav-password OR CALDAV_PASSWORD env var

  Both basic and digest authentication are supported; the scheme is
  negotiated with the server automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			caldavConfig := caldav.Config{
				BaseURL:  caldavURL,
				Username: caldavUsername,
				Password: caldavPassword,
			}

			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			return runServe(transport, debugMode, httpAddr, yolo, caldavConfig, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (event creation and deletion). Default is read-only mode.")
	cmd.Flags().StringVar(&caldavURL, "caldav-url", "", "CalDAV server base URL (e.g., https://dav.example.com). Can also use CALDAV_BASE_URL env var.")
	cmd.Flags().StringVar(&caldavUsername, "caldav-username", "", "CalDAV username. Can also use CALDAV_USERNAME env var.")
	cmd.Flags().StringVar(&caldavPassword, "caldav-password", "", "CalDAV password. Can also use CALDAV_PASSWORD env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr string, yolo bool, caldavConfig caldav.Config, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load .env before resolving credentials from the environment. A missing
	// file is not an error.
	_ = godotenv.Load()

	logger := newLogger(debugMode)
	slog.SetDefault(logger)

	// Fill in CalDAV connection settings from the environment
	if caldavConfig.BaseURL == "" {
		caldavConfig.BaseURL = os.Getenv("CALDAV_BASE_URL")
	}
	if caldavConfig.Username == "" {
		caldavConfig.Username = os.Getenv("CALDAV_USERNAME")
	}
	if caldavConfig.Password == "" {
		caldavConfig.Password = os.Getenv("CALDAV_PASSWORD")
	}
	if caldavConfig.BaseURL == "" {
		return fmt.Errorf("CalDAV base URL is required (set --caldav-url or CALDAV_BASE_URL)")
	}
	if caldavConfig.Username == "" {
		logger.Warn("no CalDAV username configured, requests will be unauthenticated")
	}
	logger.Debug("CalDAV configuration resolved",
		"url", caldavConfig.BaseURL,
		"username", caldavConfig.Username,
		"password", logging.SanitizeSecret(caldavConfig.Password))

	// Load metrics config from environment if not set via flags
	if !metricsConfig.Enabled {
		if os.Getenv("METRICS_ENABLED") == "true" {
			metricsConfig.Enabled = true
		}
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == ":9090" {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	// Create server context with the shared CalDAV client
	serverContext, err := server.NewServerContext(shutdownCtx, caldavConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Verify server reachability and credentials before exposing tools
	probeCtx, cancelProbe := context.WithTimeout(shutdownCtx, caldav.DefaultTimeout)
	defer cancelProbe()
	if err := serverContext.CalendarClient().Probe(probeCtx); err != nil {
		return fmt.Errorf("cannot reach CalDAV server at %s: %w", caldavConfig.BaseURL, err)
	}
	logger.Info("connected to CalDAV server", "url", caldavConfig.BaseURL)

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("caldav-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo

	// Log the mode for visibility (only for non-stdio transports)
	if transport != "stdio" {
		if readOnly {
			log.Println("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
		} else {
			log.Println("Starting server with WRITE operations enabled (--yolo flag is set)")
		}
	}

	if err := caldav_tools.RegisterCalDAVTools(mcpSrv, serverContext, readOnly); err != nil {
		return fmt.Errorf("failed to register CalDAV tools: %w", err)
	}

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, httpAddr, metricsConfig)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

// newLogger builds the process logger. Logs always go to stderr; stdout is
// reserved for the stdio transport.
func newLogger(debugMode bool) *slog.Logger {
	if debugMode {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, addr string, metricsConfig MetricsConfig) error {
	streamableServer := mcpserver.NewStreamableHTTPServer(mcpSrv)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamableServer)

	// Set up health checker for health check endpoints
	healthChecker := server.NewHealthChecker(serverContext)
	healthChecker.RegisterHealthEndpoints(mux)
	healthChecker.SetReady(true)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           httpMetrics(serverContext.Metrics(), mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Starting caldav-mcp MCP server with streamable-http transport on %s\n", addr)
	fmt.Printf("  HTTP endpoint: /mcp\n")
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	if metricsConfig.Enabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", metricsConfig.Addr)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}

// httpMetrics records request counts and durations for every request the
// HTTP transport serves. A nil recorder passes requests through untouched.
func httpMetrics(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
