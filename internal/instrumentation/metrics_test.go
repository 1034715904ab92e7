package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, ctx context.Context) *Provider {
	t.Helper()
	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        true,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordToolInvocation(ctx, "mail_recent_emails", StatusSuccess, 200*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "calendar_create_event", StatusError, 500*time.Millisecond)
}

func TestMetrics_RecordBackendOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordBackendOperation(ctx, BackendMail, "list", StatusSuccess, 200*time.Millisecond)
	metrics.RecordBackendOperation(ctx, BackendContacts, "search", StatusSuccess, 100*time.Millisecond)
	metrics.RecordBackendOperation(ctx, BackendCalendar, "delete", StatusError, 500*time.Millisecond)
}

func TestMetrics_ZeroValueIsNoOp(t *testing.T) {
	ctx := context.Background()
	var metrics Metrics

	// Should not panic
	metrics.RecordToolInvocation(ctx, "mail_search", StatusSuccess, time.Millisecond)
	metrics.RecordBackendOperation(ctx, BackendMail, "get", StatusSuccess, time.Millisecond)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.ServiceName != "fastmail-mcp" {
		t.Errorf("expected default service name fastmail-mcp, got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected instrumentation enabled by default")
	}
	if config.PrometheusEndpoint != "/metrics" {
		t.Errorf("expected default endpoint /metrics, got %q", config.PrometheusEndpoint)
	}

	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("OTEL_SERVICE_NAME", "renamed")
	config = DefaultConfig()
	if config.Enabled {
		t.Error("expected INSTRUMENTATION_ENABLED=false to disable instrumentation")
	}
	if config.ServiceName != "renamed" {
		t.Errorf("expected OTEL_SERVICE_NAME override, got %q", config.ServiceName)
	}
}
