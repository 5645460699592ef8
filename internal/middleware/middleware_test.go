package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/auth"
)

func newRouter(dev *auth.DevVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(zap.NewNop()), Metrics(), CORS([]string{"http://localhost:3000"}))
	api := r.Group("/api", Auth(dev))
	api.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, IdentityFrom(c)) })
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func token(t *testing.T, dev *auth.DevVerifier, role string) string {
	t.Helper()
	tok, err := dev.Generate(auth.Identity{UserID: "user_1", Role: role})
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	dev := auth.NewDevVerifier("secret", 1)
	r := newRouter(dev)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/me", "garbage").Code)

	w := do(r, http.MethodGet, "/api/me", token(t, dev, auth.RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user_1"`)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireAdmin(t *testing.T) {
	dev := auth.NewDevVerifier("secret", 1)
	r := newRouter(dev)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/admin", token(t, dev, auth.RoleUser)).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/admin", token(t, dev, auth.RoleAdmin)).Code)
}

func TestCORS_Preflight(t *testing.T) {
	r := newRouter(auth.NewDevVerifier("secret", 1))
	w := do(r, http.MethodOptions, "/api/me", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
