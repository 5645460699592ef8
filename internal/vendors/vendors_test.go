package vendors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestREST_DoDecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "v3", r.Header.Get("X-Version"))
		assert.Equal(t, "/things", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
	}))
	defer srv.Close()

	c := NewREST("test", srv.URL, nil,
		WithHeader("X-Version", "v3"),
		WithRateLimit(100),
		WithAuth(func(_ context.Context, r *http.Request) error {
			r.Header.Set("Authorization", "Bearer tok")
			return nil
		}))

	var out struct {
		Echo string `json:"echo"`
	}
	require.NoError(t, c.Do(context.Background(), "create", http.MethodPost, "/things", map[string]string{"name": "x"}, &out))
	assert.Equal(t, "x", out.Echo)
}

func TestREST_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"developer_message":"no such video"}`))
	}))
	defer srv.Close()

	c := NewREST("test", srv.URL, nil)
	for i := 0; i < 10; i++ {
		err := c.Do(context.Background(), "get", http.MethodGet, "/videos/1", nil, nil)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "no such video", apiErr.Message)
	}
}

func TestREST_ServerErrorsOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewREST("test", srv.URL, nil)
	for i := 0; i < 5; i++ {
		err := c.Do(context.Background(), "get", http.MethodGet, "/x", nil, nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	err := c.Do(context.Background(), "get", http.MethodGet, "/x", nil, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), hits.Load())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", errorMessage([]byte(`{"error":"bad"}`)))
	assert.Equal(t, "desc", errorMessage([]byte(`{"error":"invalid_client","error_description":"desc"}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text\n")))
}
