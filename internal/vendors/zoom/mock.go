package zoom

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aura-academy/backend/internal/vendors"
)

// Mock schedules nothing; ids count up from a fixed base so URLs are predictable.
type Mock struct {
	next    atomic.Int64
	mu      sync.Mutex
	deleted map[string]bool
}

// NewMock creates a mock client.
func NewMock() *Mock {
	m := &Mock{deleted: make(map[string]bool)}
	m.next.Store(81000000000)
	return m
}

func (m *Mock) Mode() string { return vendors.ModeMock }

func (m *Mock) schedule(kind string) *Meeting {
	id := fmt.Sprintf("%d", m.next.Add(1))
	return &Meeting{
		ID:       id,
		JoinURL:  fmt.Sprintf("https://zoom.us/%s/%s", kind, id),
		StartURL: fmt.Sprintf("https://zoom.us/s/%s?role=host", id),
		Password: "mock" + id[len(id)-4:],
	}
}

// CreateMeeting returns a fake meeting.
func (m *Mock) CreateMeeting(_ context.Context, _ MeetingRequest) (*Meeting, error) {
	return m.schedule("j"), nil
}

// CreateWebinar returns a fake webinar.
func (m *Mock) CreateWebinar(_ context.Context, _ MeetingRequest) (*Meeting, error) {
	return m.schedule("w"), nil
}

// DeleteMeeting records the deletion.
func (m *Mock) DeleteMeeting(_ context.Context, id string) error {
	m.mu.Lock()
	m.deleted[id] = true
	m.mu.Unlock()
	return nil
}

// DeleteWebinar records the deletion.
func (m *Mock) DeleteWebinar(ctx context.Context, id string) error {
	return m.DeleteMeeting(ctx, id)
}

// Deleted reports whether id was deleted.
func (m *Mock) Deleted(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted[id]
}
