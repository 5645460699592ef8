package seminars

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/realtime"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/store/memory"
	"github.com/aura-academy/backend/internal/vendors"
	"github.com/aura-academy/backend/internal/vendors/stripe"
	"github.com/aura-academy/backend/internal/vendors/zoom"
)

type published struct {
	topic, event string
	payload      interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(topic, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic, event, payload})
}

type zoomMock struct{ mock.Mock }

func (m *zoomMock) Mode() string { return vendors.ModeMock }
func (m *zoomMock) CreateMeeting(ctx context.Context, req zoom.MeetingRequest) (*zoom.Meeting, error) {
	args := m.Called(ctx, req)
	mt, _ := args.Get(0).(*zoom.Meeting)
	return mt, args.Error(1)
}
func (m *zoomMock) CreateWebinar(ctx context.Context, req zoom.MeetingRequest) (*zoom.Meeting, error) {
	args := m.Called(ctx, req)
	mt, _ := args.Get(0).(*zoom.Meeting)
	return mt, args.Error(1)
}
func (m *zoomMock) DeleteMeeting(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *zoomMock) DeleteWebinar(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fixture struct {
	svc    *Service
	store  *store.Store
	events *recorder
}

// gatedStripe blocks CreatePaymentIntent until release is closed.
type gatedStripe struct {
	*stripe.Mock
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStripe) CreatePaymentIntent(ctx context.Context, amount int64, currency string, md map[string]string) (*stripe.PaymentIntent, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Mock.CreatePaymentIntent(ctx, amount, currency, md)
}

type downStripe struct{ *stripe.Mock }

func (downStripe) CreatePaymentIntent(context.Context, int64, string, map[string]string) (*stripe.PaymentIntent, error) {
	return nil, errors.New("stripe unavailable")
}

func newFixture(t *testing.T, zc zoom.Client) *fixture {
	t.Helper()
	return newFixtureWith(t, zc, stripe.NewMock(""))
}

func newFixtureWith(t *testing.T, zc zoom.Client, sc stripe.Client) *fixture {
	t.Helper()
	s := memory.New()
	ev := &recorder{}
	svc := NewService(s.Seminars, s.Registrations, zc, sc, ev,
		activity.NewLogger(s.Activities, nil), Options{Currency: "usd"}, nil)
	return &fixture{svc: svc, store: s, events: ev}
}

func (f *fixture) seminar(t *testing.T, capacity int) *models.Seminar {
	t.Helper()
	sem := &models.Seminar{
		Title:           "Intro to Go",
		ScheduledAt:     time.Now().Add(48 * time.Hour).UTC(),
		DurationMinutes: 60,
		Capacity:        capacity,
		PriceBasic:      1500,
		PricePremium:    900,
	}
	require.NoError(t, f.svc.Create(context.Background(), sem, false))
	return sem
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.SeminarStatusScheduled, models.SeminarStatusLive, true},
		{models.SeminarStatusScheduled, models.SeminarStatusCancelled, true},
		{models.SeminarStatusLive, models.SeminarStatusCompleted, true},
		{models.SeminarStatusLive, models.SeminarStatusCancelled, true},
		{models.SeminarStatusScheduled, models.SeminarStatusCompleted, false},
		{models.SeminarStatusCompleted, models.SeminarStatusLive, false},
		{models.SeminarStatusCancelled, models.SeminarStatusScheduled, false},
		{models.SeminarStatusLive, models.SeminarStatusScheduled, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCreateProvisionsZoom(t *testing.T) {
	zc := &zoomMock{}
	zc.On("CreateWebinar", mock.Anything, mock.MatchedBy(func(r zoom.MeetingRequest) bool {
		return r.Topic == "Webinar" && r.DurationMinutes == 90 && r.Timezone == "UTC"
	})).Return(&zoom.Meeting{ID: "555", JoinURL: "https://zoom.us/w/555", StartURL: "https://zoom.us/s/555"}, nil)
	f := newFixture(t, zc)

	sem := &models.Seminar{Title: "Webinar", ZoomType: models.ZoomTypeWebinar, DurationMinutes: 90, ScheduledAt: time.Now()}
	require.NoError(t, f.svc.Create(context.Background(), sem, true))

	assert.Equal(t, models.SeminarStatusScheduled, sem.Status)
	assert.Equal(t, "555", sem.ZoomMeetingID)
	assert.Equal(t, "https://zoom.us/w/555", sem.ZoomJoinURL)
	assert.Equal(t, "usd", sem.Currency)
	zc.AssertExpectations(t)
}

func TestCreateZoomFailureStoresNothing(t *testing.T) {
	zc := &zoomMock{}
	zc.On("CreateMeeting", mock.Anything, mock.Anything).
		Return(nil, &vendors.APIError{Vendor: "zoom", Status: 500, Message: "boom"})
	f := newFixture(t, zc)

	err := f.svc.Create(context.Background(), &models.Seminar{Title: "x", DurationMinutes: 30}, true)
	require.ErrorIs(t, err, ErrVendor)

	_, total, err := f.store.Seminars.FindAll(context.Background(), store.SeminarFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeleteRemovesZoomMeeting(t *testing.T) {
	ctx := context.Background()
	t.Run("zoom 404 still deletes", func(t *testing.T) {
		zc := &zoomMock{}
		zc.On("CreateMeeting", mock.Anything, mock.Anything).Return(&zoom.Meeting{ID: "1"}, nil)
		zc.On("DeleteMeeting", mock.Anything, "1").Return(&vendors.APIError{Vendor: "zoom", Status: 404})
		f := newFixture(t, zc)
		sem := &models.Seminar{Title: "x", DurationMinutes: 30}
		require.NoError(t, f.svc.Create(ctx, sem, true))

		require.NoError(t, f.svc.Delete(ctx, sem.ID))
		_, err := f.svc.Get(ctx, sem.ID)
		assert.ErrorIs(t, err, ErrSeminarNotFound)
	})
	t.Run("zoom failure keeps seminar", func(t *testing.T) {
		zc := &zoomMock{}
		zc.On("CreateMeeting", mock.Anything, mock.Anything).Return(&zoom.Meeting{ID: "2"}, nil)
		zc.On("DeleteMeeting", mock.Anything, "2").Return(errors.New("timeout"))
		f := newFixture(t, zc)
		sem := &models.Seminar{Title: "x", DurationMinutes: 30}
		require.NoError(t, f.svc.Create(ctx, sem, true))

		assert.ErrorIs(t, f.svc.Delete(ctx, sem.ID), ErrVendor)
		_, err := f.svc.Get(ctx, sem.ID)
		assert.NoError(t, err)
	})
}

func TestSetStatusCompletesAndMarksNoShows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, zoom.NewMock())
	sem := f.seminar(t, 0)

	a, _, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "a"}, models.PlanFree)
	require.NoError(t, err)
	b, _, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "b"}, models.PlanFree)
	require.NoError(t, err)
	_, err = f.svc.SetAttendance(ctx, a.ID, models.AttendanceAttended)
	require.NoError(t, err)

	_, _, err = f.svc.SetStatus(ctx, sem.ID, models.SeminarStatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = f.svc.SetStatus(ctx, sem.ID, models.SeminarStatusLive)
	require.NoError(t, err)
	got, noShows, err := f.svc.SetStatus(ctx, sem.ID, models.SeminarStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.SeminarStatusCompleted, got.Status)
	assert.Equal(t, 1, noShows)

	regB, err := f.store.Registrations.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceNoShow, regB.AttendanceStatus)
	regA, err := f.store.Registrations.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAttended, regA.AttendanceStatus)

	require.Len(t, f.events.events, 2)
	last := f.events.events[1]
	assert.Equal(t, realtime.SeminarTopic(sem.ID.String()), last.topic)
	assert.Equal(t, realtime.EventSeminarStatus, last.event)
	assert.Equal(t, StatusChange{SeminarID: sem.ID, Status: models.SeminarStatusCompleted, NoShows: 1}, last.payload)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("free plan never charges", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		sem := f.seminar(t, 0)
		sem.PriceFree = 500
		require.NoError(t, f.svc.Update(ctx, sem))

		reg, checkout, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanFree)
		require.NoError(t, err)
		assert.Nil(t, checkout)
		assert.Equal(t, models.PaymentStatusFree, reg.PaymentStatus)
		assert.Zero(t, reg.AmountCents)
		assert.Equal(t, models.AttendanceRegistered, reg.AttendanceStatus)
	})

	t.Run("paid plan returns checkout", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		sem := f.seminar(t, 0)

		reg, checkout, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1", Email: "u1@example.com"}, models.PlanBasic)
		require.NoError(t, err)
		require.NotNil(t, checkout)
		assert.Equal(t, models.PaymentStatusPending, reg.PaymentStatus)
		assert.Equal(t, 1500, reg.AmountCents)
		assert.Equal(t, reg.PaymentIntentID, checkout.PaymentIntentID)
		assert.Contains(t, checkout.ClientSecret, "_secret_")
		assert.Equal(t, "pk_test_mock", checkout.PublishableKey)
		assert.Equal(t, "usd", checkout.Currency)

		acts, total, err := f.store.Activities.FindAll(ctx, store.ActivityFilter{UserID: "u1"})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, models.ActivitySeminarRegistered, acts[0].Action)
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		sem := f.seminar(t, 0)
		_, _, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanFree)
		require.NoError(t, err)
		_, _, err = f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanFree)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("capacity ignores failed payments", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		sem := f.seminar(t, 1)
		first, _, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanBasic)
		require.NoError(t, err)

		_, _, err = f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u2"}, models.PlanFree)
		assert.ErrorIs(t, err, ErrSeminarFull)

		_, err = f.svc.SetPaymentStatus(ctx, first.ID, models.PaymentStatusFailed)
		require.NoError(t, err)
		_, _, err = f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u2"}, models.PlanFree)
		assert.NoError(t, err)
	})

	t.Run("retry after failed payment reuses registration", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		sem := f.seminar(t, 0)
		first, _, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanBasic)
		require.NoError(t, err)
		_, err = f.svc.SetPaymentStatus(ctx, first.ID, models.PaymentStatusFailed)
		require.NoError(t, err)

		again, checkout, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanPremium)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, 900, again.AmountCents)
		assert.NotEqual(t, first.PaymentIntentID, checkout.PaymentIntentID)
	})

	t.Run("closed seminar", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		sem := f.seminar(t, 0)
		_, _, err := f.svc.SetStatus(ctx, sem.ID, models.SeminarStatusCancelled)
		require.NoError(t, err)
		_, _, err = f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanFree)
		assert.ErrorIs(t, err, ErrSeminarClosed)
	})

	t.Run("unknown plan rejected", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		sem := f.seminar(t, 0)
		_, _, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, "Premium")
		assert.ErrorIs(t, err, ErrInvalidPlan)
		_, err = f.store.Registrations.FindByUserAndSeminar(ctx, "u1", sem.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("stripe failure releases the seat", func(t *testing.T) {
		f := newFixtureWith(t, zoom.NewMock(), downStripe{stripe.NewMock("")})
		sem := f.seminar(t, 1)
		_, _, err := f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u1"}, models.PlanBasic)
		assert.ErrorIs(t, err, ErrVendor)

		reg, err := f.store.Registrations.FindByUserAndSeminar(ctx, "u1", sem.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, reg.PaymentStatus)

		_, _, err = f.svc.Register(ctx, sem.ID, &auth.Identity{UserID: "u2"}, models.PlanFree)
		assert.NoError(t, err)
	})

	t.Run("pending checkout does not block other registrations", func(t *testing.T) {
		gate := &gatedStripe{Mock: stripe.NewMock(""), entered: make(chan struct{}), release: make(chan struct{})}
		f := newFixtureWith(t, zoom.NewMock(), gate)
		paid := f.seminar(t, 0)
		other := f.seminar(t, 0)

		done := make(chan error, 1)
		go func() {
			_, _, err := f.svc.Register(ctx, paid.ID, &auth.Identity{UserID: "u1"}, models.PlanBasic)
			done <- err
		}()
		<-gate.entered

		reg, _, err := f.svc.Register(ctx, other.ID, &auth.Identity{UserID: "u2"}, models.PlanFree)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFree, reg.PaymentStatus)
		_, _, err = f.svc.Register(ctx, paid.ID, &auth.Identity{UserID: "u3"}, models.PlanFree)
		require.NoError(t, err)

		close(gate.release)
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("paid registration did not finish")
		}
		pending, err := f.store.Registrations.FindByUserAndSeminar(ctx, "u1", paid.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, pending.PaymentStatus)
		assert.NotEmpty(t, pending.PaymentIntentID)
	})

	t.Run("unknown seminar", func(t *testing.T) {
		f := newFixture(t, zoom.NewMock())
		_, _, err := f.svc.Register(ctx, uuid.New(), &auth.Identity{UserID: "u1"}, models.PlanFree)
		assert.ErrorIs(t, err, ErrSeminarNotFound)
	})
}
