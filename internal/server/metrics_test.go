package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailbridge/fastmail-mcp/internal/config"
	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
)

func enabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:    "test-service",
		ServiceVersion: "test",
		Enabled:        true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewMetricsServerRequiresProvider(t *testing.T) {
	_, err := NewMetricsServer(MetricsServerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instrumentation provider is required")
}

func TestNewMetricsServerRejectsDisabledProvider(t *testing.T) {
	disabled, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)

	_, err = NewMetricsServer(MetricsServerConfig{InstrumentationProvider: disabled})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enabled")
}

func TestNewMetricsServerDefaultAddr(t *testing.T) {
	ms, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: enabledProvider(t)})
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricsAddr, ms.Addr())
}

func TestHealthEndpointReflectsShutdown(t *testing.T) {
	sc := NewServerContext(context.Background(), config.NewResolver())
	ms, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    ":0",
		InstrumentationProvider: enabledProvider(t),
		ServerContext:           sc,
	})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	ms.handleHealth(recorder, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])

	require.NoError(t, sc.Shutdown())
	recorder = httptest.NewRecorder()
	ms.handleHealth(recorder, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}
