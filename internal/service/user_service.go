package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentbook/internal/docstore"
	"rentbook/internal/domain"
	"rentbook/internal/logging"
	"rentbook/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.UserRepository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo domain.UserRepository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logging.Component(logger, "user_service"), now: time.Now}
}

func (s *UserService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger, "user_service")
}

func (s *UserService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, storeError(s.log(ctx), "get user", err, "user not found")
	}
	return user, nil
}

// IsAdmin reports whether uid has the admin role. Unknown users are not admins.
func (s *UserService) IsAdmin(ctx context.Context, uid string) (bool, error) {
	user, err := s.repo.GetUser(ctx, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, internalError(s.log(ctx), "check admin", err)
	}
	return user.IsAdmin(), nil
}

// Username resolves a display name, falling back to "Unknown".
func (s *UserService) Username(ctx context.Context, uid string) string {
	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			s.log(ctx).Warn().Err(err).Str("uid", uid).Msg("username lookup failed")
		}
		return models.UnknownOwnerUsername
	}
	if user.Username == "" {
		return models.UnknownOwnerUsername
	}
	return user.Username
}

// ProfileInput carries the self-editable user fields; nil leaves a field unchanged.
type ProfileInput struct {
	Username *string             `json:"username"`
	Email    *string             `json:"email"`
	Profile  *models.UserProfile `json:"profile"`
}

// SaveProfile creates or updates the caller's own user record. New users
// get the customer role.
func (s *UserService) SaveProfile(ctx context.Context, principal string, in ProfileInput) (*models.User, error) {
	now := s.now().UTC()
	user, err := s.repo.GetUser(ctx, principal)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		user = &models.User{UID: principal, Role: models.RoleCustomer, CreatedAt: now}
	case err != nil:
		return nil, internalError(s.log(ctx), "load profile", err)
	}

	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if user.Username == "" {
		return nil, validationError("username is required")
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.Profile != nil {
		user.Profile = *in.Profile
	}
	user.UpdatedAt = now

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, internalError(s.log(ctx), "save profile", err)
	}
	return user, nil
}

// SetRole changes another user's role. Only admins may call it.
func (s *UserService) SetRole(ctx context.Context, principal, uid string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, validationError("invalid role %q", role)
	}
	admin, err := s.IsAdmin(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, forbidden("only admins can change roles")
	}

	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, storeError(s.log(ctx), "load user", err, "user not found")
	}
	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, internalError(s.log(ctx), "save role", err)
	}

	s.log(ctx).Info().Str("uid", uid).Str("role", string(role)).Str("by", principal).Msg("user role changed")
	return user, nil
}
