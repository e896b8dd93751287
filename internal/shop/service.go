package shop

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/user"
)

type Repository interface {
	// GetByID returns nil, nil when the shop does not exist.
	GetByID(ctx context.Context, id string) (*Shop, error)
	List(ctx context.Context) ([]*Shop, error)
	// Create pushes s under a generated key and returns it.
	Create(ctx context.Context, s *Shop) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// OperatorLookup resolves the profile a shop is assigned to.
type OperatorLookup interface {
	GetByUID(ctx context.Context, uid string) (*user.User, error)
}

type Service struct {
	repo      Repository
	operators OperatorLookup
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, operators OperatorLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		operators: operators,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns every shop ordered by name.
func (s *Service) List(ctx context.Context) ([]*Shop, error) {
	shops, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	sort.SliceStable(shops, func(i, j int) bool {
		return strings.ToLower(shops[i].Name) < strings.ToLower(shops[j].Name)
	})
	return shops, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Shop, error) {
	shop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop %s: %w", id, err)
	}
	if shop == nil {
		return nil, internal.ErrShopNotFound
	}
	return shop, nil
}

func (s *Service) Create(ctx context.Context, dto CreateShopDTO) (*Shop, error) {
	shop := dto.toShop()
	if appErr := Validate(shop); appErr != nil {
		return nil, appErr
	}
	if err := s.resolveOperator(ctx, shop); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	shop.CreatedAt = now
	shop.UpdatedAt = now

	id, err := s.repo.Create(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}
	shop.ID = id

	s.logger.InfoContext(ctx, "shop created", "shop_id", id, "code", shop.Code)
	return shop, nil
}

// Update applies a partial update. Operator display fields are refreshed whenever the
// operator id is part of the update.
func (s *Service) Update(ctx context.Context, id string, dto UpdateShopDTO) (*Shop, error) {
	shop, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := dto.apply(shop)
	if appErr := Validate(shop); appErr != nil {
		return nil, appErr
	}

	if dto.OperatorID != nil {
		shop.OperatorID = strings.TrimSpace(*dto.OperatorID)
		if err := s.resolveOperator(ctx, shop); err != nil {
			return nil, err
		}
		for k, v := range operatorFields(shop) {
			fields[k] = v
		}
	}

	shop.UpdatedAt = s.now().UTC()
	fields["updatedAt"] = shop.UpdatedAt.UnixMilli()

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update shop %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "shop updated", "shop_id", id, "fields", len(fields))
	return shop, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete shop %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "shop deleted", "shop_id", id)
	return nil
}

func (s *Service) resolveOperator(ctx context.Context, shop *Shop) error {
	if shop.OperatorID == "" {
		shop.AssignOperator(nil)
		return nil
	}

	op, err := s.operators.GetByUID(ctx, shop.OperatorID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeUserNotFound {
			return internal.NewValidationFieldError("operatorId", "operatorId does not match a user", internal.ErrCodeUserNotFound)
		}
		return fmt.Errorf("failed to resolve operator %s: %w", shop.OperatorID, err)
	}
	if !op.IsOperator() {
		return internal.NewValidationFieldError("operatorId", "operatorId must reference an operator", internal.ErrCodeValidationFailed)
	}
	shop.AssignOperator(op)
	return nil
}
