package vimeo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/vendors"
)

const (
	baseURL      = "https://api.vimeo.com"
	acceptHeader = "application/vnd.vimeo.*+json;version=3.4"
	videoFields  = "uri,name,description,duration,status,link,player_embed_url,pictures.base_link,tags.name,transcode.status"
)

// Live talks to api.vimeo.com with a personal access token.
type Live struct {
	rest   *vendors.REST
	logger *zap.Logger
}

// NewLive creates a live client. Calls are rate limited and guarded by a circuit breaker.
func NewLive(cfg config.VimeoConfig, logger *zap.Logger) *Live {
	return newLive(cfg, baseURL, logger)
}

func newLive(cfg config.VimeoConfig, base string, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	token := cfg.AccessToken
	rest := vendors.NewREST("vimeo", base, logger,
		vendors.WithHeader("Accept", acceptHeader),
		vendors.WithRateLimit(cfg.RequestsPerSecond),
		vendors.WithAuth(func(_ context.Context, r *http.Request) error {
			r.Header.Set("Authorization", "Bearer "+token)
			return nil
		}))
	return &Live{rest: rest, logger: logger}
}

func (l *Live) Mode() string { return vendors.ModeLive }

type apiVideo struct {
	URI            string `json:"uri"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Duration       int    `json:"duration"`
	Status         string `json:"status"`
	Link           string `json:"link"`
	PlayerEmbedURL string `json:"player_embed_url"`
	Pictures       struct {
		BaseLink string `json:"base_link"`
	} `json:"pictures"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Transcode struct {
		Status string `json:"status"`
	} `json:"transcode"`
	Upload struct {
		Approach   string `json:"approach"`
		UploadLink string `json:"upload_link"`
	} `json:"upload"`
}

// CreateUpload reserves a tus upload slot of size bytes.
func (l *Live) CreateUpload(ctx context.Context, name string, size int64) (*Upload, error) {
	body := map[string]any{
		"name":   name,
		"upload": map[string]any{"approach": "tus", "size": size},
	}
	var out apiVideo
	if err := l.rest.Do(ctx, "create_upload", http.MethodPost, "/me/videos", body, &out); err != nil {
		return nil, err
	}
	if out.Upload.UploadLink == "" {
		return nil, fmt.Errorf("vimeo create upload: no upload link for %s", out.URI)
	}
	ticket := ""
	if u, err := url.Parse(out.Upload.UploadLink); err == nil {
		ticket = path.Base(u.Path)
	}
	l.logger.Info("vimeo upload slot created", zap.String("uri", out.URI), zap.Int64("size", size))
	return &Upload{
		VideoID:    IDFromURI(out.URI),
		URI:        out.URI,
		UploadLink: out.Upload.UploadLink,
		Ticket:     ticket,
		Approach:   out.Upload.Approach,
	}, nil
}

// GetVideo fetches metadata and the normalised processing status.
func (l *Live) GetVideo(ctx context.Context, id string) (*VideoMeta, error) {
	var out apiVideo
	p := "/videos/" + url.PathEscape(id) + "?fields=" + url.QueryEscape(videoFields)
	if err := l.rest.Do(ctx, "get_video", http.MethodGet, p, nil, &out); err != nil {
		return nil, err
	}
	meta := &VideoMeta{
		ID:           IDFromURI(out.URI),
		URI:          out.URI,
		Name:         out.Name,
		Description:  out.Description,
		Duration:     out.Duration,
		Status:       normaliseStatus(out.Status, out.Transcode.Status),
		Link:         out.Link,
		EmbedURL:     out.PlayerEmbedURL,
		ThumbnailURL: out.Pictures.BaseLink,
	}
	for _, t := range out.Tags {
		meta.Tags = append(meta.Tags, t.Name)
	}
	return meta, nil
}

// UpdateVideo sets title and description.
func (l *Live) UpdateVideo(ctx context.Context, id, title, description string) error {
	body := map[string]string{"name": title, "description": description}
	return l.rest.Do(ctx, "update_video", http.MethodPatch, "/videos/"+url.PathEscape(id), body, nil)
}

// DeleteVideo removes the video from Vimeo.
func (l *Live) DeleteVideo(ctx context.Context, id string) error {
	return l.rest.Do(ctx, "delete_video", http.MethodDelete, "/videos/"+url.PathEscape(id), nil, nil)
}
