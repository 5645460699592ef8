package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/app"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/validation"
	"github.com/aura-academy/backend/internal/worker"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type server struct {
	backend *app.Backend
	router  *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{CORSAllowedOrigins: "http://localhost:3000", RunWorker: true},
		Store:  config.StoreConfig{Driver: config.StoreMemory},
		Auth:   config.AuthConfig{DevJWTSecret: "test-secret", DevJWTExpireHours: 1},
		Stripe: config.StripeConfig{Currency: "usd"},
		Zoom:   config.ZoomConfig{Timezone: "UTC"},
		Worker: config.WorkerConfig{PollInterval: time.Millisecond, MaxPolls: 3},
	}
	b, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return &server{backend: b, router: newRouter(b, nil)}
}

func (s *server) do(t *testing.T, tok, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	require.True(t, body.Success, w.Body.String())
	return body.Data
}

func (s *server) token(t *testing.T, userID, role, plan string) string {
	t.Helper()
	w := s.do(t, "", http.MethodPost, "/api/auth/dev-token",
		map[string]string{"user_id": userID, "email": userID + "@example.com", "role": role, "plan": plan})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, w).Token
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	w := s.do(t, "", http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[struct {
		Status  string            `json:"status"`
		Store   string            `json:"store"`
		Vendors map[string]string `json:"vendors"`
	}](t, w)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, config.StoreMemory, health.Store)
	assert.Equal(t, map[string]string{"vimeo": "mock", "zoom": "mock", "stripe": "mock"}, health.Vendors)

	w = s.do(t, "", http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_request_duration_seconds"))

	w = s.do(t, "", http.MethodGet, "/api/videos", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadCreateRequiresAdmin(t *testing.T) {
	s := newServer(t)
	student := s.token(t, "student-1", "user", "premium")
	body := map[string]interface{}{"filename": "intro.mp4", "file_size": 1 << 20, "mime_type": "video/mp4", "title": "Intro"}

	w := s.do(t, student, http.MethodPost, "/api/upload-tasks", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, student, http.MethodGet, "/api/upload-tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)

	w = s.do(t, s.token(t, "admin-1", "admin", ""), http.MethodPost, "/api/upload-tasks", body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUploadToPlaybackFlow(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	admin := s.token(t, "admin-1", "admin", "")
	student := s.token(t, "student-1", "user", "premium")

	w := s.do(t, admin, http.MethodPost, "/api/upload-tasks", map[string]interface{}{
		"filename": "intro.mp4", "file_size": 1 << 20, "mime_type": "video/mp4", "title": "Intro",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[models.UploadTask](t, w)

	w = s.do(t, admin, http.MethodPost, "/api/upload-tasks/"+task.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	job, err := s.backend.Queue.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NoError(t, worker.NewUploadSyncProcessor(s.backend.Uploads, s.backend.Queue, nil).Process(ctx, job))

	w = s.do(t, admin, http.MethodGet, "/api/upload-tasks/"+task.ID.String(), nil)
	task = decode[models.UploadTask](t, w)
	require.Equal(t, models.UploadStatusCompleted, task.Status)
	require.NotNil(t, task.VideoID)
	videoPath := "/api/videos/" + task.VideoID.String()

	// drafts are hidden until published
	w = s.do(t, student, http.MethodGet, videoPath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, admin, http.MethodPatch, videoPath, map[string]string{"status": "published"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, student, http.MethodGet, videoPath+"/playback", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, student, http.MethodPost, videoPath+"/watch", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, student, http.MethodPut, videoPath+"/watch", map[string]interface{}{"current_time": 580, "watch_time": 580})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode[models.WatchSession](t, w)
	assert.True(t, session.Completed)

	w = s.do(t, admin, http.MethodGet, videoPath+"/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[struct {
		Viewers     int `json:"viewers"`
		Completions int `json:"completions"`
	}](t, w)
	assert.Equal(t, 1, summary.Viewers)
	assert.Equal(t, 1, summary.Completions)

	w = s.do(t, student, http.MethodGet, "/api/me/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.ActivityVideoCompleted)
}

func TestPaidSeminarFlow(t *testing.T) {
	s := newServer(t)
	admin := s.token(t, "admin-1", "admin", "")
	student := s.token(t, "student-1", "user", "basic")

	w := s.do(t, admin, http.MethodPost, "/api/seminars", map[string]interface{}{
		"title":            "Office hours",
		"scheduled_at":     time.Now().Add(time.Hour).Format(time.RFC3339),
		"duration_minutes": 45,
		"price_basic":      1200,
		"provision_zoom":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sem := decode[models.Seminar](t, w)

	w = s.do(t, student, http.MethodPost, "/api/seminars/"+sem.ID.String()+"/register", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[struct {
		Registration models.SeminarRegistration `json:"registration"`
		Checkout     struct {
			PaymentIntentID string `json:"payment_intent_id"`
		} `json:"checkout"`
	}](t, w)
	require.NotEmpty(t, out.Checkout.PaymentIntentID)

	w = s.do(t, "", http.MethodPost, "/api/stripe/webhook", map[string]interface{}{
		"id": "evt_1", "type": "payment_intent.succeeded",
		"data": map[string]interface{}{"object": map[string]string{"id": out.Checkout.PaymentIntentID}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, admin, http.MethodPost, "/api/stripe/refund", map[string]interface{}{
		"registration_id": out.Registration.ID, "amount_cents": 600,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, admin, http.MethodGet, "/api/seminars/"+sem.ID.String()+"/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[struct {
		RevenueCents  int `json:"revenue_cents"`
		RefundedCents int `json:"refunded_cents"`
	}](t, w)
	assert.Equal(t, 600, summary.RevenueCents)
	assert.Equal(t, 600, summary.RefundedCents)
}
