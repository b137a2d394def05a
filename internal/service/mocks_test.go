package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"rentbook/internal/docstore"
	"rentbook/internal/events"
	"rentbook/internal/models"
	"rentbook/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotifier is a mock of the domain.Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewBooking(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockNotifier) NotifyBookingAccepted(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockNotifier) NotifyBookingRejected(ctx context.Context, booking *models.Booking, reason string) error {
	args := m.Called(ctx, booking, reason)
	return args.Error(0)
}

func (m *MockNotifier) NotifyBookingCancelled(ctx context.Context, booking *models.Booking, cancelledBy string) error {
	args := m.Called(ctx, booking, cancelledBy)
	return args.Error(0)
}

func (m *MockNotifier) NotifyBookingCompleted(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

// MockImageStore is a mock of the domain.ImageStore interface
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, filename string, r io.Reader, folder string) (*models.Image, error) {
	args := m.Called(ctx, filename, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

// eventRecorder collects booking events published on a bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.BookingEventPayload
	types  []string
}

func (r *eventRecorder) handle(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.Type)
	r.events = append(r.events, payload)
	return nil
}

func (r *eventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

// stepClock returns increasing timestamps so ordering by createdAt is stable.
func stepClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

type fixture struct {
	repo          *repository.Repository
	users         *UserService
	notifications *NotificationService
	notifier      *MockNotifier
	bookings      *BookingService
	ratings       *RatingService
	recorder      *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	repo := repository.New(docstore.NewMemoryStore())
	clock := stepClock()

	bus := events.NewEventBus()
	recorder := &eventRecorder{}
	bus.SubscribeBookings(recorder.handle)

	users := NewUserService(repo, &logger)
	users.now = clock
	notifications := NewNotificationService(repo, 0, &logger)
	notifications.now = clock
	notifier := new(MockNotifier)
	bookings := NewBookingService(repo, users, notifier, bus, &logger)
	bookings.now = clock
	ratings := NewRatingService(repo, repo, users, &logger)
	ratings.now = clock

	return &fixture{
		repo:          repo,
		users:         users,
		notifications: notifications,
		notifier:      notifier,
		bookings:      bookings,
		ratings:       ratings,
		recorder:      recorder,
	}
}

func (f *fixture) addUser(t *testing.T, uid, username string, role models.Role) {
	t.Helper()
	require.NoError(t, f.repo.SaveUser(context.Background(), &models.User{
		UID:      uid,
		Username: username,
		Role:     role,
		Profile:  models.UserProfile{PhotoURL: "https://img.example/" + uid + ".png"},
	}))
}
