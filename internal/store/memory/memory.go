// Package memory is a map-backed implementation of the store interfaces. State is process-local
// and lost on restart; it backs local development and tests.
package memory

import (
	"bytes"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/store"
)

// New returns a Store whose repositories all live in memory.
func New() *store.Store {
	return &store.Store{
		Driver:        config.StoreMemory,
		Videos:        NewVideos(),
		Seminars:      NewSeminars(),
		Registrations: NewRegistrations(),
		WatchSessions: NewWatchSessions(),
		Activities:    NewActivities(),
		UploadTasks:   NewUploadTasks(),
		Courses:       NewCourses(),
		DiscountRules: NewDiscountRules(),
		Departments:   NewDepartments(),
		Ratings:       NewRatings(),
		Refunds:       NewRefunds(),
	}
}

func now() time.Time { return time.Now().UTC() }

// table is a mutex-guarded map of records keyed by id. clone deep-copies values crossing the boundary.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[uuid.UUID]T
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &table[T]{rows: make(map[uuid.UUID]T), clone: clone}
}

func (t *table[T]) get(id uuid.UUID) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		return v, false
	}
	return t.clone(v), true
}

// all returns copies of every row, unordered.
func (t *table[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for _, v := range t.rows {
		out = append(out, t.clone(v))
	}
	return out
}

func (t *table[T]) del(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// idLess orders ids bytewise, as Postgres compares uuid columns.
func idLess(a, b uuid.UUID) bool { return bytes.Compare(a[:], b[:]) < 0 }

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}
