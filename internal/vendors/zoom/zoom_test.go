package zoom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/vendors"
)

func TestNew_SelectsMode(t *testing.T) {
	assert.Equal(t, vendors.ModeMock, New(config.ZoomConfig{}, nil).Mode())
	live := New(config.ZoomConfig{AccountID: "a", ClientID: "b", ClientSecret: "c"}, nil)
	assert.Equal(t, vendors.ModeLive, live.Mode())
}

func TestMock_DeterministicMeetings(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	a, err := m.CreateMeeting(ctx, MeetingRequest{Topic: "x"})
	require.NoError(t, err)
	b, err := m.CreateWebinar(ctx, MeetingRequest{Topic: "y"})
	require.NoError(t, err)

	assert.Equal(t, "81000000001", a.ID)
	assert.Equal(t, "https://zoom.us/j/81000000001", a.JoinURL)
	assert.Equal(t, "https://zoom.us/w/81000000002", b.JoinURL)

	require.NoError(t, m.DeleteMeeting(ctx, a.ID))
	assert.True(t, m.Deleted(a.ID))
}

func TestLive_TokenIsCachedAndMeetingCreated(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "account_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "acct", r.Form.Get("account_id"))
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/users/me/meetings":
			var body createBody
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, typeSched, body.Type)
			assert.Equal(t, "2026-05-01T14:00:00Z", body.StartTime)
			assert.Equal(t, "UTC", body.Timezone)
			_, _ = w.Write([]byte(`{"id":85012345678,"join_url":"https://zoom.us/j/85012345678","start_url":"https://zoom.us/s/85012345678","password":"abc"}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer apiSrv.Close()

	l := newLive(config.ZoomConfig{AccountID: "acct", ClientID: "client", ClientSecret: "secret", Timezone: "UTC"},
		apiSrv.URL, tokenSrv.URL, nil)
	ctx := context.Background()
	req := MeetingRequest{Topic: "Algebra", StartTime: time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC), DurationMinutes: 60}

	mt, err := l.CreateMeeting(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "85012345678", mt.ID)
	assert.Equal(t, "abc", mt.Password)

	_, err = l.CreateMeeting(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokenCalls.Load())

	assert.NoError(t, l.DeleteMeeting(ctx, "missing"))
}
