package seminars

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store/memory"
	"github.com/aura-academy/backend/internal/validation"
	"github.com/aura-academy/backend/internal/vendors/stripe"
	"github.com/aura-academy/backend/internal/vendors/zoom"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type env struct {
	router *gin.Engine
	zoom   *zoom.Mock
	dev    *auth.DevVerifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s := memory.New()
	zm := zoom.NewMock()
	svc := NewService(s.Seminars, s.Registrations, zm, stripe.NewMock("pk_test_123"), nil,
		activity.NewLogger(s.Activities, nil), Options{}, nil)
	h := NewHandler(svc, nil)
	dev := auth.NewDevVerifier("secret", 1)

	r := gin.New()
	api := r.Group("/", middleware.Auth(dev))
	api.GET("/seminars", h.List)
	api.GET("/seminars/:id", h.Get)
	api.POST("/seminars/:id/register", h.Register)
	api.GET("/me/registrations", h.Mine)
	admin := api.Group("/", middleware.RequireAdmin())
	admin.POST("/seminars", h.Create)
	admin.PATCH("/seminars/:id", h.Update)
	admin.DELETE("/seminars/:id", h.Delete)
	admin.PATCH("/seminars/:id/status", h.SetStatus)
	admin.GET("/seminars/:id/registrations", h.Registrations)
	admin.PATCH("/registrations/:id/attendance", h.SetAttendance)
	admin.PATCH("/registrations/:id/payment", h.SetPayment)
	return &env{router: r, zoom: zm, dev: dev}
}

func (e *env) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	tok, err := e.dev.Generate(id)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, tok, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Data
}

func TestSeminarLifecycle(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.Identity{UserID: "admin", Role: auth.RoleAdmin})
	user := e.token(t, auth.Identity{UserID: "u1", Email: "u1@example.com", Plan: models.PlanBasic})

	w := e.do(t, user, http.MethodPost, "/seminars", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, admin, http.MethodPost, "/seminars", map[string]interface{}{
		"title":            "Concurrency in Go",
		"scheduled_at":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"duration_minutes": 60,
		"capacity":         10,
		"price_basic":      2000,
		"provision_zoom":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sem := decode[models.Seminar](t, w)
	assert.NotEmpty(t, sem.ZoomJoinURL)
	assert.NotEmpty(t, sem.ZoomStartURL)
	assert.Equal(t, models.SeminarStatusScheduled, sem.Status)
	path := "/seminars/" + sem.ID.String()

	w = e.do(t, user, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.Seminar](t, w).ZoomStartURL)

	w = e.do(t, user, http.MethodGet, "/seminars?status=scheduled", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[query.Page[models.Seminar]](t, w)
	assert.Equal(t, 1, page.Total)

	w = e.do(t, user, http.MethodGet, "/seminars?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// plan defaults to the caller's own plan
	w = e.do(t, user, http.MethodPost, path+"/register", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[RegisterResponse](t, w)
	require.NotNil(t, out.Checkout)
	assert.Equal(t, "pk_test_123", out.Checkout.PublishableKey)
	assert.Equal(t, 2000, out.Registration.AmountCents)
	assert.Equal(t, models.PaymentStatusPending, out.Registration.PaymentStatus)

	w = e.do(t, user, http.MethodPost, path+"/register", map[string]string{"plan": "free"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, user, http.MethodGet, "/me/registrations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[query.Page[models.SeminarRegistration]](t, w).Total)

	w = e.do(t, admin, http.MethodPatch, "/registrations/"+out.Registration.ID.String()+"/attendance",
		map[string]string{"status": "attended"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AttendanceAttended, decode[models.SeminarRegistration](t, w).AttendanceStatus)

	w = e.do(t, admin, http.MethodPatch, "/registrations/"+out.Registration.ID.String()+"/payment",
		map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, admin, http.MethodGet, path+"/registrations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[query.Page[models.SeminarRegistration]](t, w).Total)

	w = e.do(t, admin, http.MethodPatch, path+"/status", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = e.do(t, admin, http.MethodPatch, path+"/status", map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, e.token(t, auth.Identity{UserID: "u2"}), http.MethodPost, path+"/register", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, admin, http.MethodPatch, path, map[string]interface{}{"title": "Renamed", "capacity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode[models.Seminar](t, w).Title)

	w = e.do(t, admin, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, e.zoom.Deleted(sem.ZoomMeetingID))

	w = e.do(t, user, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegister_UnknownTokenPlanIsFree(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, auth.Identity{UserID: "admin", Role: auth.RoleAdmin})
	w := e.do(t, admin, http.MethodPost, "/seminars", map[string]interface{}{
		"title":            "Profiling",
		"scheduled_at":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"duration_minutes": 45,
		"price_basic":      1000,
		"price_premium":    800,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sem := decode[models.Seminar](t, w)

	// signed directly so the plan claim skips Generate's normalisation
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.DevClaims{
		Plan: "Gold",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u9",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	w = e.do(t, raw, http.MethodPost, "/seminars/"+sem.ID.String()+"/register", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[RegisterResponse](t, w)
	assert.Equal(t, models.PlanFree, out.Registration.Plan)
	assert.Equal(t, models.PaymentStatusFree, out.Registration.PaymentStatus)
	assert.Nil(t, out.Checkout)

	w = e.do(t, e.token(t, auth.Identity{UserID: "u10"}), http.MethodPost, "/seminars/"+sem.ID.String()+"/register",
		map[string]string{"plan": "Premium"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
