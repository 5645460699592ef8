package zoom

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/vendors"
)

const (
	apiBase   = "https://api.zoom.us/v2"
	tokenURL  = "https://zoom.us/oauth/token"
	typeSched = 2 // scheduled meeting
	typeWebin = 5 // webinar
	// tokenSkew renews the access token a minute before Zoom expires it.
	tokenSkew = time.Minute
)

// Live calls the Zoom REST API with a cached account_credentials token.
type Live struct {
	cfg      config.ZoomConfig
	rest     *vendors.REST
	http     *http.Client
	tokenURL string
	breaker  *gobreaker.CircuitBreaker[tokenResponse]
	logger   *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewLive creates a live client.
func NewLive(cfg config.ZoomConfig, logger *zap.Logger) *Live {
	return newLive(cfg, apiBase, tokenURL, logger)
}

func newLive(cfg config.ZoomConfig, base, tokenEndpoint string, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Live{
		cfg:      cfg,
		http:     &http.Client{Timeout: vendors.DefaultTimeout},
		tokenURL: tokenEndpoint,
		breaker:  vendors.NewBreaker[tokenResponse]("zoom-oauth", logger),
		logger:   logger,
	}
	l.rest = vendors.NewREST("zoom", base, logger, vendors.WithAuth(func(ctx context.Context, r *http.Request) error {
		tok, err := l.accessToken(ctx)
		if err != nil {
			return err
		}
		r.Header.Set("Authorization", "Bearer "+tok)
		return nil
	}))
	return l
}

func (l *Live) Mode() string { return vendors.ModeLive }

// accessToken returns the cached token or fetches a new one.
func (l *Live) accessToken(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token != "" && time.Now().Before(l.expiresAt) {
		return l.token, nil
	}
	tok, err := vendors.Execute(l.breaker, "zoom", "oauth_token", func() (tokenResponse, error) {
		form := url.Values{"grant_type": {"account_credentials"}, "account_id": {l.cfg.AccountID}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return tokenResponse{}, err
		}
		req.SetBasicAuth(l.cfg.ClientID, l.cfg.ClientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var out tokenResponse
		err = vendors.DoJSON(l.http, req, "zoom", &out)
		return out, err
	})
	if err != nil {
		return "", fmt.Errorf("zoom oauth: %w", err)
	}
	l.token = tok.AccessToken
	l.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	l.logger.Debug("zoom access token refreshed", zap.Int("expires_in", tok.ExpiresIn))
	return l.token, nil
}

type createBody struct {
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Timezone  string `json:"timezone"`
	Agenda    string `json:"agenda,omitempty"`
	Settings  struct {
		JoinBeforeHost bool   `json:"join_before_host,omitempty"`
		WaitingRoom    bool   `json:"waiting_room,omitempty"`
		HostVideo      bool   `json:"host_video"`
		PanelistsVideo bool   `json:"panelists_video,omitempty"`
		ApprovalType   int    `json:"approval_type"`
		AutoRecording  string `json:"auto_recording,omitempty"`
	} `json:"settings"`
}

type apiMeeting struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
	Password string `json:"password"`
}

func (l *Live) body(req MeetingRequest, kind int) createBody {
	tz := req.Timezone
	if tz == "" {
		tz = l.cfg.Timezone
	}
	b := createBody{
		Topic:     req.Topic,
		Type:      kind,
		StartTime: req.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  req.DurationMinutes,
		Timezone:  tz,
		Agenda:    req.Agenda,
	}
	b.Settings.HostVideo = true
	b.Settings.ApprovalType = 2 // no registration required
	b.Settings.AutoRecording = "cloud"
	if kind == typeSched {
		b.Settings.WaitingRoom = true
	} else {
		b.Settings.PanelistsVideo = true
	}
	return b
}

func (l *Live) create(ctx context.Context, op, path string, req MeetingRequest, kind int) (*Meeting, error) {
	var out apiMeeting
	if err := l.rest.Do(ctx, op, http.MethodPost, path, l.body(req, kind), &out); err != nil {
		return nil, err
	}
	l.logger.Info("zoom session scheduled", zap.String("op", op), zap.Int64("id", out.ID))
	return &Meeting{
		ID:       strconv.FormatInt(out.ID, 10),
		JoinURL:  out.JoinURL,
		StartURL: out.StartURL,
		Password: out.Password,
	}, nil
}

// CreateMeeting schedules a meeting for the account owner.
func (l *Live) CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	return l.create(ctx, "create_meeting", "/users/me/meetings", req, typeSched)
}

// CreateWebinar schedules a webinar; the account needs the webinar add-on.
func (l *Live) CreateWebinar(ctx context.Context, req MeetingRequest) (*Meeting, error) {
	return l.create(ctx, "create_webinar", "/users/me/webinars", req, typeWebin)
}

// DeleteMeeting cancels a meeting. A missing meeting is not an error.
func (l *Live) DeleteMeeting(ctx context.Context, id string) error {
	err := l.rest.Do(ctx, "delete_meeting", http.MethodDelete, "/meetings/"+url.PathEscape(id), nil, nil)
	if vendors.IsNotFound(err) {
		return nil
	}
	return err
}

// DeleteWebinar cancels a webinar. A missing webinar is not an error.
func (l *Live) DeleteWebinar(ctx context.Context, id string) error {
	err := l.rest.Do(ctx, "delete_webinar", http.MethodDelete, "/webinars/"+url.PathEscape(id), nil, nil)
	if vendors.IsNotFound(err) {
		return nil
	}
	return err
}
