package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPMetricsMiddleware drives probe-style traffic through an
// instrumented router and checks the counters that come out of a scrape.
func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("vault_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "vault_test"))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// A request to an unregistered path still gets counted, under the
	// collapsed "unknown" label.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/not-a-route", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	output := scrape(t, provider)

	assertMetricLine(
		t,
		output,
		`vault_test_http_requests_total`,
		`method="GET".*path="/healthz".*status_code="200"`,
		`3`,
	)
	assertMetricLine(
		t,
		output,
		`vault_test_http_requests_total`,
		`method="GET".*path="unknown".*status_code="404"`,
		`1`,
	)
	assertMetricLine(
		t,
		output,
		`vault_test_http_request_duration_seconds_count`,
		`path="/healthz"`,
		`3`,
	)
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "StaticRoute",
			input:    "/healthz",
			expected: "/healthz",
		},
		{
			name:     "RouteWithParam",
			input:    "/documents/:id",
			expected: "/documents/:id",
		},
		{
			name:     "Unmatched",
			input:    "",
			expected: "unknown",
		},
		{
			name:     "Root",
			input:    "/",
			expected: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, routeLabel(tt.input))
		})
	}
}
