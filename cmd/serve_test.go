package cmd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/bivex/caldav-mcp/internal/caldav"
	"github.com/bivex/caldav-mcp/internal/instrumentation"
)

func TestNewServeCmdFlags(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		name     string
		defValue string
	}{
		{name: "debug", defValue: "false"},
		{name: "transport", defValue: "stdio"},
		{name: "http-addr", defValue: ":8080"},
		{name: "yolo", defValue: "false"},
		{name: "caldav-url", defValue: ""},
		{name: "caldav-username", defValue: ""},
		{name: "caldav-password", defValue: ""},
		{name: "metrics-enabled", defValue: "true"},
		{name: "metrics-addr", defValue: ":9090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected flag %q to be registered", tt.name)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestRunServeRequiresBaseURL(t *testing.T) {
	t.Setenv("CALDAV_BASE_URL", "")
	t.Setenv("CALDAV_USERNAME", "")
	t.Setenv("CALDAV_PASSWORD", "")

	err := runServe("stdio", false, ":8080", false, caldav.Config{}, MetricsConfig{})
	if err == nil {
		t.Fatal("expected an error when no CalDAV base URL is configured")
	}
	if !strings.Contains(err.Error(), "CalDAV base URL is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHTTPMetricsNilRecorderPassesThrough(t *testing.T) {
	inner := http.NewServeMux()
	inner.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	handler := httpMetrics(nil, inner)
	if handler != http.Handler(inner) {
		t.Error("expected the inner handler back when no recorder is configured")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestHTTPMetricsRecordsAndPreservesStatus(t *testing.T) {
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	handler := httpMetrics(metrics, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestNewLogger(t *testing.T) {
	if newLogger(false) == nil {
		t.Error("expected a logger in default mode")
	}
	if newLogger(true) == nil {
		t.Error("expected a logger in debug mode")
	}
}
