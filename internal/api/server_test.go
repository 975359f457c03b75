package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-catalog-server/internal/api"
	"github.com/stacklok/toolhive-catalog-server/internal/service"
	"github.com/stacklok/toolhive-catalog-server/internal/service/mocks"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	mockSvc := mocks.NewMockCatalogService(ctrl)
	// Health checks never reach the service
	server := api.NewServer(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		readiness      error
		expectedStatus int
		expectedKey    string
	}{
		{
			name:           "service ready",
			expectedStatus: http.StatusOK,
			expectedKey:    "status",
		},
		{
			name:           "service not ready",
			readiness:      service.ErrNotReady,
			expectedStatus: http.StatusServiceUnavailable,
			expectedKey:    "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockSvc := mocks.NewMockCatalogService(ctrl)
			mockSvc.EXPECT().CheckReadiness(gomock.Any()).Return(tt.readiness)

			rr := httptest.NewRecorder()
			api.NewServer(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readiness", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)

			var response map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Contains(t, response, tt.expectedKey)
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	rr := httptest.NewRecorder()
	api.NewServer(mocks.NewMockCatalogService(ctrl)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.NotEmpty(t, response["version"])
	assert.NotEmpty(t, response["go_version"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockCatalogService(ctrl)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "thv_catalog_items_total 3\n")
	})

	rr := httptest.NewRecorder()
	api.NewServer(mockSvc, api.WithMetricsHandler(metrics)).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "thv_catalog_items_total")

	rr = httptest.NewRecorder()
	api.NewServer(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	server := api.NewServer(mocks.NewMockCatalogService(ctrl))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/nonexistent", want: http.StatusNotFound},
		{method: http.MethodGet, path: "/v1/unknown", want: http.StatusNotFound},
		{method: http.MethodPut, path: "/v1/cache", want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestMiddlewaresAreApplied(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	var seenRequestID string
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenRequestID = middleware.GetReqID(r.Context())
			next.ServeHTTP(w, r)
		})
	}

	server := api.NewServer(mocks.NewMockCatalogService(ctrl),
		api.WithMiddlewares(middleware.RequestID, capture, api.LoggingMiddleware))

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, seenRequestID)
}
