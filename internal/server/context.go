package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bivex/caldav-mcp/internal/caldav"
	"github.com/bivex/caldav-mcp/internal/calendar"
	"github.com/bivex/caldav-mcp/internal/instrumentation"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx            context.Context
	cancel         context.CancelFunc
	caldavConfig   caldav.Config
	calendarClient *calendar.Client
	logger         *slog.Logger
	metrics        *instrumentation.Metrics
	auditLogger    *instrumentation.AuditLogger
	mu             sync.RWMutex
	shutdown       bool
}

// NewServerContext creates a new server context. A single CalDAV client
// is shared by all tools; the server talks to one calendar server per
// process.
func NewServerContext(ctx context.Context, cfg caldav.Config, logger *slog.Logger) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if logger == nil {
		logger = slog.Default()
	}

	dav := caldav.NewClient(cfg, logger)
	client := calendar.NewClient(dav, logger)

	return &ServerContext{
		ctx:            shutdownCtx,
		cancel:         cancel,
		caldavConfig:   cfg,
		calendarClient: client,
		logger:         logger,
		shutdown:       false,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CalendarClient returns the shared calendar client
func (sc *ServerContext) CalendarClient() *calendar.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.calendarClient
}

// SetCalendarClient replaces the shared calendar client. Used by tests
// to inject a client bound to a fake server.
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClient = client
}

// CalDAVConfig returns the CalDAV connection configuration
func (sc *ServerContext) CalDAVConfig() caldav.Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.caldavConfig
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Metrics returns the metrics recorder, or nil if instrumentation is
// not configured
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// AuditLogger returns the audit logger, or nil if not configured
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger
func (sc *ServerContext) SetAuditLogger(auditLogger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
