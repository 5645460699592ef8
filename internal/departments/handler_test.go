package departments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store/memory"
	"github.com/aura-academy/backend/internal/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Computer Science":     "computer-science",
		"  Data & AI -- 2026 ": "data-ai-2026",
		"Économie":             "conomie",
		"---":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func newRouter() *gin.Engine {
	h := NewHandler(memory.New().Departments, nil)
	r := gin.New()
	r.GET("/departments", h.List)
	r.POST("/departments", h.Create)
	r.PATCH("/departments/:id", h.Update)
	r.DELETE("/departments/:id", h.Delete)
	return r
}

func send(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDepartmentCRUD(t *testing.T) {
	r := newRouter()

	w := send(t, r, http.MethodPost, "/departments", map[string]string{"name": "Computer Science"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data models.Department `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "computer-science", created.Data.Slug)

	w = send(t, r, http.MethodPost, "/departments", map[string]string{"name": "CS again", "slug": "computer-science"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(t, r, http.MethodPost, "/departments", map[string]string{"name": "Bad", "slug": "Not A Slug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, r, http.MethodPost, "/departments", map[string]string{"name": "!!!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, r, http.MethodPost, "/departments", map[string]string{"name": "Mathematics"})
	require.Equal(t, http.StatusCreated, w.Code)

	path := "/departments/" + created.Data.ID.String()
	w = send(t, r, http.MethodPatch, path, map[string]string{"slug": "mathematics"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = send(t, r, http.MethodPatch, path, map[string]string{"description": "Algorithms and systems"})
	require.Equal(t, http.StatusOK, w.Code)

	w = send(t, r, http.MethodGet, "/departments?search=algorithms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data query.Page[models.Department] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Data.Total)

	w = send(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = send(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
