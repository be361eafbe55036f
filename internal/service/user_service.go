package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"myfunds/internal/domain"
	"myfunds/internal/logger"
	"myfunds/internal/utils"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Phone    string
	Nickname string
}

// UpdateUserInput carries profile changes. Nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Phone    *string
	Nickname *string
}

// UserService manages accounts and credential checks
type UserService struct {
	store domain.Store
	now   utils.Clock
	cost  int
}

// NewUserService creates a new UserService
func NewUserService(store domain.Store, now utils.Clock) *UserService {
	return &UserService{store: store, now: now, cost: bcrypt.DefaultCost}
}

// Register creates an ACTIVE user with a bcrypt password hash
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password is too long", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		Phone:        in.Phone,
		Nickname:     in.Nickname,
		Status:       domain.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := checkUnique(ctx, repos.Users, user.Username, user.Email, user.Phone); err != nil {
			return err
		}
		return repos.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login checks credentials. Unknown users, wrong passwords and inactive
// accounts all fail with ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.store.Repos(ctx).Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	}

	if user.Status != domain.UserActive {
		return nil, fmt.Errorf("%w: account is disabled", domain.ErrUnauthorized)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.store.Repos(ctx).Users.GetByID(ctx, id)
}

// UpdateUser applies profile changes, re-checking uniqueness for changed values
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*domain.User, error) {
	var user *domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		user, err = repos.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}

		var username, email, phone string
		if in.Username != nil {
			v := strings.TrimSpace(*in.Username)
			if v == "" {
				return fmt.Errorf("%w: username cannot be empty", domain.ErrInvalidInput)
			}
			if v != user.Username {
				username = v
			}
			user.Username = v
		}
		if in.Email != nil {
			v := strings.TrimSpace(*in.Email)
			if v != user.Email {
				email = v
			}
			user.Email = v
		}
		if in.Phone != nil {
			v := strings.TrimSpace(*in.Phone)
			if v != user.Phone {
				phone = v
			}
			user.Phone = v
		}
		if in.Nickname != nil {
			user.Nickname = *in.Nickname
		}

		if err := checkUnique(ctx, repos.Users, username, email, phone); err != nil {
			return err
		}

		user.UpdatedAt = s.now()
		return repos.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// checkUnique reports ErrConflict for any non-empty value already taken
func checkUnique(ctx context.Context, users domain.UserRepository, username, email, phone string) error {
	if username != "" {
		taken, err := users.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: username already exists", domain.ErrConflict)
		}
	}
	if email != "" {
		taken, err := users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}
	if phone != "" {
		taken, err := users.ExistsByPhone(ctx, phone)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: phone already registered", domain.ErrConflict)
		}
	}
	return nil
}
