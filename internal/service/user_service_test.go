package service

import (
	"context"
	"errors"
	"testing"

	"rentbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock of the domain.UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func TestUserService_IsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "A", "root", models.RoleAdmin)
	f.addUser(t, "C", "carla", models.RoleCustomer)

	ok, err := f.users.IsAdmin(ctx, "A")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.users.IsAdmin(ctx, "C")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.users.IsAdmin(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserService_StoreFailureIsInternal(t *testing.T) {
	mockRepo := new(MockUserRepository)
	logger := zerolog.Nop()
	s := NewUserService(mockRepo, &logger)

	mockRepo.On("GetUser", mock.Anything, "A").Return(nil, errors.New("connection reset"))

	_, err := s.IsAdmin(context.Background(), "A")
	require.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, InternalMessage, err.Error())

	assert.Equal(t, models.UnknownOwnerUsername, s.Username(context.Background(), "A"))
	mockRepo.AssertExpectations(t)
}

func TestUserService_Username(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "S", "seller_sam", models.RoleShopOwner)
	f.addUser(t, "N", "", models.RoleCustomer)

	assert.Equal(t, "seller_sam", f.users.Username(context.Background(), "S"))
	assert.Equal(t, models.UnknownOwnerUsername, f.users.Username(context.Background(), "N"))
	assert.Equal(t, models.UnknownOwnerUsername, f.users.Username(context.Background(), "missing"))
}

func TestUserService_SaveProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.SaveProfile(ctx, "C", ProfileInput{})
	assert.ErrorIs(t, err, ErrValidation)

	user, err := f.users.SaveProfile(ctx, "C", ProfileInput{
		Username: strPtr(" carla "),
		Email:    strPtr("carla@example.com"),
		Profile:  &models.UserProfile{Bio: "hi", Address: "Main st"},
	})
	require.NoError(t, err)
	assert.Equal(t, "carla", user.Username)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.False(t, user.CreatedAt.IsZero())

	updated, err := f.users.SaveProfile(ctx, "C", ProfileInput{Profile: &models.UserProfile{PhotoURL: "https://img/c.png"}})
	require.NoError(t, err)
	assert.Equal(t, "carla", updated.Username)
	assert.Equal(t, "https://img/c.png", updated.Profile.PhotoURL)
	assert.True(t, updated.CreatedAt.Equal(user.CreatedAt))
}

func TestUserService_SetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "A", "root", models.RoleAdmin)
	f.addUser(t, "C", "carla", models.RoleCustomer)

	_, err := f.users.SetRole(ctx, "C", "C", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.users.SetRole(ctx, "A", "C", models.Role("god"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.SetRole(ctx, "A", "missing", models.RoleShopOwner)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := f.users.SetRole(ctx, "A", "C", models.RoleShopOwner)
	require.NoError(t, err)
	assert.Equal(t, models.RoleShopOwner, user.Role)
}
