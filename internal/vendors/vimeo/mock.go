package vimeo

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aura-academy/backend/internal/vendors"
)

// MockDuration is the duration reported for videos the mock did not see uploaded.
const MockDuration = 600

// Mock is an in-memory Vimeo used when no access token is configured.
type Mock struct {
	mu     sync.Mutex
	videos map[string]VideoMeta
	next   atomic.Int64
	now    func() time.Time
}

// NewMock creates an empty mock.
func NewMock() *Mock {
	m := &Mock{videos: make(map[string]VideoMeta), now: time.Now}
	m.next.Store(900000000)
	return m
}

func (m *Mock) Mode() string { return vendors.ModeMock }

// CreateUpload records a video that is immediately available.
func (m *Mock) CreateUpload(_ context.Context, name string, _ int64) (*Upload, error) {
	id := strconv.FormatInt(m.next.Add(1), 10)
	uri := "/videos/" + id
	m.mu.Lock()
	m.videos[id] = VideoMeta{
		ID:       id,
		URI:      uri,
		Name:     name,
		Duration: MockDuration,
		Status:   StatusAvailable,
		Link:     "https://vimeo.com/" + id,
		EmbedURL: EmbedURL(SourceVimeo, id),
	}
	m.mu.Unlock()
	return &Upload{
		VideoID:    id,
		URI:        uri,
		UploadLink: "https://mock.vimeo.local/upload/" + id,
		Ticket:     fmt.Sprintf("mock-ticket-%d", m.now().UnixMilli()),
		Approach:   "tus",
	}, nil
}

// GetVideo returns the recorded video, or a deterministic available one.
func (m *Mock) GetVideo(_ context.Context, id string) (*VideoMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.videos[id]; ok {
		v.Tags = append([]string(nil), v.Tags...)
		return &v, nil
	}
	return &VideoMeta{
		ID:       id,
		URI:      "/videos/" + id,
		Name:     "Mock video " + id,
		Duration: MockDuration,
		Status:   StatusAvailable,
		Link:     "https://vimeo.com/" + id,
		EmbedURL: EmbedURL(SourceVimeo, id),
	}, nil
}

// SetStatus overrides the status reported for id.
func (m *Mock) SetStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		v = VideoMeta{ID: id, URI: "/videos/" + id, Duration: MockDuration, EmbedURL: EmbedURL(SourceVimeo, id)}
	}
	v.Status = status
	m.videos[id] = v
}

// UpdateVideo stores the new title and description.
func (m *Mock) UpdateVideo(_ context.Context, id, title, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return &vendors.APIError{Vendor: "vimeo", Status: 404, Message: "video not found"}
	}
	v.Name, v.Description = title, description
	m.videos[id] = v
	return nil
}

// DeleteVideo forgets the video.
func (m *Mock) DeleteVideo(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.videos, id)
	return nil
}
