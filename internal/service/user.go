package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/repository"
)

const minPasswordLength = 6

type UserInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"required,oneof=admin pharmacist cashier"`
	IsActive *bool  `json:"is_active"`
}

// UserUpdate changes only the fields that are set.
type UserUpdate struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

type UserService struct {
	repo  *repository.UserRepository
	log   *zap.Logger
	clock clock
	cost  int
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	stamp := s.clock.Stamp()
	u := &domain.User{
		Username:  in.Username,
		FullName:  strings.TrimSpace(in.FullName),
		Email:     in.Email,
		Password:  hashed,
		Role:      in.Role,
		IsActive:  in.IsActive == nil || *in.IsActive,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Int64("id", u.ID), zap.String("username", u.Username), zap.String("role", u.Role))
	return s.repo.Get(ctx, u.ID)
}

// isSoleAdmin reports whether u is the only active admin left.
func (s *UserService) isSoleAdmin(ctx context.Context, u *domain.User) (bool, error) {
	if u.Role != domain.RoleAdmin || !u.IsActive {
		return false, nil
	}
	n, err := s.repo.CountActiveAdmins(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count admins")
	}
	return n <= 1, nil
}

func (s *UserService) Update(ctx context.Context, id int64, in UserUpdate) (*domain.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *u
	if in.Username != nil {
		updated.Username = strings.TrimSpace(*in.Username)
		if l := len(updated.Username); l < 3 || l > 50 {
			return nil, domain.Invalid("username", "must be between 3 and 50 characters")
		}
	}
	if in.FullName != nil {
		updated.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		updated.Email = strings.TrimSpace(*in.Email)
		if updated.Email != "" {
			if err := validate.Var(updated.Email, "email"); err != nil {
				return nil, domain.Invalid("email", "must be a valid email address")
			}
		}
	}
	if in.Role != nil {
		if !domain.ValidRole(*in.Role) {
			return nil, domain.Invalid("role", "must be one of: admin, pharmacist, cashier")
		}
		updated.Role = *in.Role
	}
	if in.IsActive != nil {
		updated.IsActive = *in.IsActive
	}
	if in.Password != nil && len(*in.Password) < minPasswordLength {
		return nil, domain.Invalid("password", "must be at least %d characters", minPasswordLength)
	}

	if updated.Role != domain.RoleAdmin || !updated.IsActive {
		sole, err := s.isSoleAdmin(ctx, u)
		if err != nil {
			return nil, err
		}
		if sole {
			return nil, errors.Wrapf(domain.ErrLastAdmin, "cannot demote or disable %s", u.Username)
		}
	}

	updated.UpdatedAt = s.clock.Stamp()
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	if in.Password != nil {
		hashed, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdatePassword(ctx, id, hashed, updated.UpdatedAt); err != nil {
			return nil, err
		}
	}
	s.log.Info("user updated", zap.Int64("id", id))
	return s.repo.Get(ctx, id)
}

// Delete removes a user. Nobody can delete their own account and the last
// active admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return errors.Wrap(domain.ErrConflict, "you cannot delete your own account")
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	sole, err := s.isSoleAdmin(ctx, u)
	if err != nil {
		return err
	}
	if sole {
		return errors.Wrapf(domain.ErrLastAdmin, "cannot delete %s", u.Username)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("id", id), zap.String("username", u.Username))
	return nil
}

// Authenticate checks a username and password pair and records the login.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, domain.ErrInactiveUser
	}
	stamp := s.clock.Stamp()
	if err := s.repo.TouchLastLogin(ctx, u.ID, stamp); err != nil {
		return nil, err
	}
	u.LastLogin = &stamp
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return domain.Invalid("current_password", "is incorrect")
	}
	if len(next) < minPasswordLength {
		return domain.Invalid("new_password", "must be at least %d characters", minPasswordLength)
	}
	hashed, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hashed, s.clock.Stamp()); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Int64("user_id", id))
	return nil
}

// EnsureAdmin creates the bootstrap admin when no user exists yet.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count users")
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, UserInput{
		Username: username,
		Password: password,
		FullName: "Administrator",
		Role:     domain.RoleAdmin,
	}); err != nil {
		return false, errors.Wrap(err, "create bootstrap admin")
	}
	s.log.Warn("bootstrap admin created; change its password", zap.String("username", username))
	return true, nil
}
