package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/notable/internal/api"
	mw "github.com/kiranshivaraju/notable/internal/api/middleware"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const testKey = "nt_routertest0123456789"

// keyStore accepts testKey for testUser and nothing else.
type keyStore struct {
	hash string
}

var testUser = uuid.New()

func (s *keyStore) GetAPIKeyByPrefix(_ context.Context, prefix string) ([]*models.APIKey, error) {
	if prefix != testKey[:8] {
		return nil, nil
	}
	return []*models.APIKey{{ID: uuid.New(), UserID: testUser, KeyHash: s.hash, KeyPrefix: prefix}}, nil
}

func (s *keyStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

func newTestRouter(t *testing.T, deps api.Dependencies) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
	require.NoError(t, err)
	deps.Auth = mw.NewAuth(&keyStore{hash: string(hash)})
	if deps.Health == nil {
		deps.Health = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		}
	}
	return api.NewRouter(deps)
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)["code"].(string)
}

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	router := newTestRouter(t, api.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	router := newTestRouter(t, api.Dependencies{})

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/query"},
		{"POST", "/api/v1/scans"},
		{"GET", "/api/v1/scans"},
		{"GET", "/api/v1/audit"},
		{"POST", "/api/v1/audit"},
		{"PUT", "/api/v1/audit/zillow"},
		{"GET", "/api/v1/recommendations"},
		{"POST", "/api/v1/keys"},
		{"GET", "/api/v1/keys"},
		{"DELETE", "/api/v1/keys/" + uuid.NewString()},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "INVALID_TOKEN", errCode(t, w))
		})
	}
}

func TestRouter_AuthenticatedRouteSeesUserAndParam(t *testing.T) {
	var gotUser uuid.UUID
	var gotPlatform string
	router := newTestRouter(t, api.Dependencies{
		UpdateProfile: func(w http.ResponseWriter, r *http.Request) {
			gotUser, _ = mw.GetUserID(r)
			gotPlatform = chi.URLParam(r, "platform")
			w.WriteHeader(http.StatusOK)
		},
	})

	req := httptest.NewRequest("PUT", "/api/v1/audit/homes_com", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testUser, gotUser)
	assert.Equal(t, "homes_com", gotPlatform)
}

func TestRouter_UnwiredHandler(t *testing.T) {
	router := newTestRouter(t, api.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_PanicBecomes500(t *testing.T) {
	router := newTestRouter(t, api.Dependencies{
		Query: func(http.ResponseWriter, *http.Request) { panic("boom") },
	})

	req := httptest.NewRequest("POST", "/api/v1/query", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errCode(t, w))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, api.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errCode(t, w))
}
