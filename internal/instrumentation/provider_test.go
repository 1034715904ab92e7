package instrumentation

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewProviderDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Fatal("expected a no-op metrics recorder, got nil")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("expected no prometheus handler when disabled")
	}

	// Recording against the no-op recorder must not panic.
	provider.Metrics().RecordToolInvocation(ctx, "mail_search", StatusSuccess, time.Millisecond)
	provider.Metrics().RecordBackendOperation(ctx, BackendMail, "list", StatusSuccess, time.Millisecond)

	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestNewProviderEnabled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        true,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if provider.Metrics() == nil {
		t.Fatal("expected metrics to be non-nil")
	}
	if provider.PrometheusHandler() == nil {
		t.Fatal("expected a prometheus handler")
	}
}

func TestPrometheusHandlerExposesRecordedMetrics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        true,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordToolInvocation(ctx, "mail_search", StatusSuccess, 100*time.Millisecond)
	provider.Metrics().RecordBackendOperation(ctx, BackendCalendar, "create", StatusError, 50*time.Millisecond)

	recorder := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body := recorder.Body.String()
	if !strings.Contains(body, "mcp_tool_invocations_total") {
		t.Errorf("expected tool invocation counter in scrape output, got:\n%s", body)
	}
	if !strings.Contains(body, "backend_operations_total") {
		t.Errorf("expected backend operation counter in scrape output, got:\n%s", body)
	}
}
