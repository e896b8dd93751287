package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/genops/internal"
)

type Repository interface {
	// GetByUID returns nil, nil when the profile does not exist.
	GetByUID(ctx context.Context, uid string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Save(ctx context.Context, u *User) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByUID(ctx context.Context, uid string) (*User, error) {
	u, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", uid, err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

// ListOperators returns the profiles whose stored role is operator, ordered by name.
func (s *Service) ListOperators(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	operators := make([]*User, 0, len(users))
	for _, u := range users {
		if u.IsOperator() {
			operators = append(operators, u)
		}
	}
	sortByName(operators)
	return operators, nil
}

func (s *Service) Upsert(ctx context.Context, u *User) error {
	if u.UID == "" {
		return internal.NewValidationFieldError("uid", "uid is required", internal.ErrCodeValidationFailed)
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return fmt.Errorf("failed to save user %s: %w", u.UID, err)
	}
	s.logger.InfoContext(ctx, "user profile saved", "uid", u.UID, "role", u.Role)
	return nil
}
